package epub

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CoverImage is the cover picture of a rendition.
type CoverImage struct {
	// Path is the archive path of the image.
	Path      string
	MediaType string
	Data      []byte
}

// Cover detects the rendition's cover image. Strategies are tried in order:
//  1. manifest item with properties="cover-image"
//  2. <meta name="cover" content="ID"/>, naming an image or a cover page
//  3. image item whose id or href contains "cover"
//  4. first <img> of the first spine document
//
// Cover fails with ErrNotFound when no strategy succeeds.
func (r *Rendition) Cover(a *Archive) (*CoverImage, error) {
	if items := r.ItemsWithProperty("cover-image"); len(items) > 0 {
		return r.loadCover(a, items[0])
	}
	for _, find := range []func(*Archive) (Item, bool){
		r.coverFromMeta,
		r.coverFromName,
		r.coverFromFirstSpine,
	} {
		if it, ok := find(a); ok {
			return r.loadCover(a, it)
		}
	}
	return nil, pathError("cover", r.PackagePath, ErrNotFound, nil)
}

func (r *Rendition) coverFromMeta(a *Archive) (Item, bool) {
	for _, f := range r.Package.Metadata.Fields {
		if f.Kind() != MetaMeta || !strings.EqualFold(f.Name, "cover") || f.Content == "" {
			continue
		}
		it, ok := r.Item(f.Content)
		if !ok {
			continue
		}
		if isImageMediaType(it.MediaType) {
			return it, true
		}
		if img, ok := r.firstImageIn(a, it); ok {
			return img, true
		}
	}
	return Item{}, false
}

func (r *Rendition) coverFromName(*Archive) (Item, bool) {
	for _, it := range r.Package.Manifest.Items {
		if !isImageMediaType(it.MediaType) {
			continue
		}
		if containsFold(it.ID, "cover") || containsFold(it.Href, "cover") {
			return it, true
		}
	}
	return Item{}, false
}

func (r *Rendition) coverFromFirstSpine(a *Archive) (Item, bool) {
	spine := r.SpineItems()
	if len(spine) == 0 {
		return Item{}, false
	}
	return r.firstImageIn(a, spine[0])
}

// firstImageIn resolves the first image referenced by the document item to
// an image item of the manifest.
func (r *Rendition) firstImageIn(a *Archive, doc Item) (Item, bool) {
	docPath := r.FilePath(doc.Href)
	data, err := a.ReadFile(docPath)
	if err != nil {
		return Item{}, false
	}
	imgPath := findFirstImage(data, docPath)
	if imgPath == "" {
		return Item{}, false
	}
	for _, it := range r.Package.Manifest.Items {
		if isImageMediaType(it.MediaType) && strings.EqualFold(r.FilePath(it.Href), imgPath) {
			return it, true
		}
	}
	return Item{}, false
}

func (r *Rendition) loadCover(a *Archive, it Item) (*CoverImage, error) {
	p := r.FilePath(it.Href)
	data, err := a.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return &CoverImage{Path: p, MediaType: it.MediaType, Data: data}, nil
}

// findFirstImage returns the archive path of the first <img src> or SVG
// <image href> in an HTML document, or "" when there is none.
func findFirstImage(data []byte, basePath string) string {
	z := html.NewTokenizer(bytes.NewReader(data))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if !hasAttr {
				continue
			}
			var keys []string
			switch atom.Lookup(name) {
			case atom.Img:
				keys = []string{"src"}
			case atom.Image:
				keys = []string{"href", "xlink:href"}
			default:
				continue
			}
			for more := true; more; {
				var k, v []byte
				k, v, more = z.TagAttr()
				for _, want := range keys {
					if string(k) == want && len(v) > 0 {
						if p := resolveRelativePath(basePath, string(v)); p != "" {
							return p
						}
					}
				}
			}
		}
	}
}

func isImageMediaType(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
