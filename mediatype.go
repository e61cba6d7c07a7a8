package epub

import (
	"mime"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const defaultContentType = "application/octet-stream"

// contentTypeOverrides pins the types a reader host must serve regardless of
// the platform MIME table. XHTML is served as HTML.
var contentTypeOverrides = map[string]string{
	"xhtml": "text/html",
	"html":  "text/html",
	"htm":   "text/html",
	"css":   "text/css",
	"js":    "text/javascript",
	"ts":    "text/javascript",
	"tsx":   "text/javascript",
	"svg":   "image/svg+xml",
	"opf":   "application/oebps-package+xml",
	"ncx":   "application/x-dtbncx+xml",
	"smil":  "application/smil+xml",
	"otf":   "font/otf",
	"ttf":   "font/ttf",
	"woff":  "font/woff",
	"woff2": "font/woff2",
}

// ContentType guesses the content type of an asset: the override table by
// extension first, then the platform MIME table, then content sniffing of
// data. It never returns "".
func ContentType(name string, data []byte) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if ct, ok := contentTypeOverrides[ext]; ok {
		return ct
	}
	if ext != "" {
		if ct := mime.TypeByExtension("." + ext); ct != "" {
			return ct
		}
	}
	if len(data) > 0 {
		return mimetype.Detect(data).String()
	}
	return defaultContentType
}
