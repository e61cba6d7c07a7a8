package epub

import (
	"path"
	"strings"
)

// LoadAsset reads the file at the rendition-relative path logical. XHTML
// documents get a stylesheet link injected before </head>; every other
// file is returned unchanged.
func LoadAsset(r *Rendition, a *Archive, logical string, opts ...Option) ([]byte, error) {
	return loadAsset(r, a, logical, buildOptions(opts))
}

func loadAsset(r *Rendition, a *Archive, logical string, o options) ([]byte, error) {
	name := r.FilePath(logical)
	data, err := a.ReadFile(name)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(path.Ext(logical), ".xhtml") {
		return data, nil
	}
	out, err := injectStylesheet(data, stylesheetHref(logical, o.stylesheet))
	if err != nil {
		return nil, pathError("process xhtml", name, ErrParse, err)
	}
	return out, nil
}

// stylesheetHref climbs one directory per segment of logical, which
// leaves the rendition root and lands on the reader root.
func stylesheetHref(logical, stylesheet string) string {
	return strings.Repeat("../", strings.Count(logical, "/")+1) + stylesheet
}
