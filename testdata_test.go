package epub

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

// zipEntry is one file of a test archive. Entries are written in order, so
// a name may appear more than once.
type zipEntry struct {
	Name   string
	Body   string
	Method uint16
}

// buildZip writes entries into an in-memory ZIP file. Entries without a
// method are deflated.
func buildZip(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	zw.RegisterCompressor(zstd.ZipMethodWinZip, zstd.ZipCompressor())
	for _, e := range entries {
		method := e.Method
		if method == 0 && !strings.HasSuffix(e.Name, "mimetype") {
			method = zip.Deflate
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: method})
		require.NoError(t, err, "create %s", e.Name)
		_, err = io.WriteString(fw, e.Body)
		require.NoError(t, err, "write %s", e.Name)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// writeTempFile stores data under a fresh temporary directory and returns
// its path.
func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	fp := filepath.Join(t.TempDir(), "test.epub")
	require.NoError(t, os.WriteFile(fp, data, 0o644))
	return fp
}

func containerXML(rootfiles ...string) string {
	var sb strings.Builder
	for _, p := range rootfiles {
		fmt.Fprintf(&sb, `<rootfile full-path="%s" media-type="application/oebps-package+xml"/>`, p)
	}
	return `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>` + sb.String() + `</rootfiles>
</container>`
}

// testPackage describes a package document for packageXML.
type testPackage struct {
	Version  string
	Title    string
	Metadata string
	Manifest string
	Spine    string
}

func packageXML(p testPackage) string {
	if p.Version == "" {
		p.Version = "3.0"
	}
	if p.Title == "" {
		p.Title = "Test Book"
	}
	return `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="` + p.Version + `" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="uid">urn:uuid:12345</dc:identifier>
    <dc:title>` + p.Title + `</dc:title>
    <dc:language>en</dc:language>
    ` + p.Metadata + `
  </metadata>
  <manifest>` + p.Manifest + `</manifest>
  <spine>` + p.Spine + `</spine>
</package>`
}

const chapterXHTML = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head><title>Chapter One</title></head>
<body><h1>Chapter One</h1><p>It was a bright&nbsp;cold day.</p></body>
</html>`

const navXHTML = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head><title>Contents</title></head>
<body>
  <nav epub:type="toc">
    <ol>
      <li><a href="text/ch1.xhtml">Chapter One</a>
        <ol><li><a href="text/ch1.xhtml#s1">Section 1.1</a></li></ol>
      </li>
      <li><a href="text/ch2.xhtml">Chapter Two</a></li>
    </ol>
  </nav>
  <nav epub:type="landmarks">
    <ol><li><a epub:type="bodymatter" href="text/ch1.xhtml">Start</a></li></ol>
  </nav>
</body>
</html>`

// sampleEntries is a single-rendition ePub 3 publication rooted at OEBPS.
func sampleEntries() []zipEntry {
	return []zipEntry{
		{Name: "mimetype", Body: "application/epub+zip", Method: zip.Store},
		{Name: "META-INF/container.xml", Body: containerXML("OEBPS/content.opf")},
		{Name: "OEBPS/content.opf", Body: packageXML(testPackage{
			Metadata: `<dc:creator id="c1">Jane Doe</dc:creator>
    <meta refines="#c1" property="role">aut</meta>
    <meta property="dcterms:modified">2024-01-01T00:00:00Z</meta>`,
			Manifest: `
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="ch1" href="text/ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="text/ch2.xhtml" media-type="application/xhtml+xml"/>
    <item id="cover" href="images/cover.png" media-type="image/png" properties="cover-image"/>
    <item id="css" href="style.css" media-type="text/css"/>
    <item id="notes" href="notes.json" media-type="application/json" properties="annotations"/>`,
			Spine: `<itemref idref="ch1"/><itemref idref="ch2" linear="no"/><itemref idref="missing"/>`,
		})},
		{Name: "OEBPS/nav.xhtml", Body: navXHTML},
		{Name: "OEBPS/text/ch1.xhtml", Body: chapterXHTML},
		{Name: "OEBPS/text/ch2.xhtml", Body: `<html xmlns="http://www.w3.org/1999/xhtml"><head><title>Two</title></head><body><p>Second</p></body></html>`},
		{Name: "OEBPS/images/cover.png", Body: "\x89PNG\r\n\x1a\nfake"},
		{Name: "OEBPS/style.css", Body: "p { margin: 0 }"},
		{Name: "OEBPS/notes.json", Body: `[{
			"@context": "http://www.w3.org/ns/anno.jsonld",
			"id": "urn:note:1",
			"type": "Annotation",
			"bodyValue": "remember this",
			"target": "text/ch1.xhtml#epubcfi(/6/4!/4/2,/1:0,/1:5)"
		}]`},
	}
}

// replaceEntry returns entries with the body of name replaced.
func replaceEntry(entries []zipEntry, name, body string) []zipEntry {
	out := make([]zipEntry, len(entries))
	copy(out, entries)
	for i := range out {
		if out[i].Name == name {
			out[i].Body = body
		}
	}
	return out
}

func openSample(t *testing.T, entries []zipEntry, opts ...Option) *Book {
	t.Helper()
	book, err := OpenBytes(context.Background(), buildZip(t, entries...), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { book.Close() })
	return book
}
