package epub

import (
	"bytes"
	"encoding/xml"
	"io"
)

// injectStylesheet streams an XHTML document through the XML tokenizer and
// writes a <link> to href immediately before every </head> end tag. Source
// bytes are copied verbatim; only the link is added. A document that is not
// well-formed XML is an error.
func injectStylesheet(data []byte, href string) ([]byte, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.Strict = true
	d.Entity = xml.HTMLEntity
	d.CharsetReader = func(_ string, in io.Reader) (io.Reader, error) { return in, nil }

	var out bytes.Buffer
	out.Grow(len(data) + 128)
	var copied int64
	for {
		start := d.InputOffset()
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		end, ok := tok.(xml.EndElement)
		// A self-closing <head/> yields an end element without source bytes.
		if !ok || end.Name.Local != "head" || d.InputOffset() == start {
			continue
		}
		out.Write(data[copied:start])
		writeStylesheetLink(&out, href)
		copied = start
	}
	out.Write(data[copied:])
	return out.Bytes(), nil
}

func writeStylesheetLink(w *bytes.Buffer, href string) {
	w.WriteString(`<link rel="stylesheet" type="text/css" href="`)
	xml.EscapeText(w, []byte(href))
	w.WriteString(`"/>`)
}
