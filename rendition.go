package epub

import (
	"strings"

	"github.com/pkg/errors"
)

// Rendition is one complete version of the work: a decoded package document
// and the archive directory its hrefs are relative to.
type Rendition struct {
	Package *Package

	// Root is the archive directory containing the package document.
	Root string

	// PackagePath is the archive path of the package document.
	PackagePath string

	// PackageXML is the raw package document text.
	PackageXML string
}

// LoadRendition reads the package document named by rf.
func LoadRendition(a *Archive, rf Rootfile) (*Rendition, error) {
	i := strings.LastIndex(rf.FullPath, "/")
	if i <= 0 {
		return nil, pathError("load rendition", rf.FullPath, ErrSchema,
			errors.New("rootfile path has no parent directory"))
	}

	var pkg Package
	raw, err := a.ReadXML(rf.FullPath, &pkg)
	if err != nil {
		return nil, err
	}
	return &Rendition{
		Package:     &pkg,
		Root:        rf.FullPath[:i],
		PackagePath: rf.FullPath,
		PackageXML:  raw,
	}, nil
}

// Item looks up a manifest item by id. The boolean is false when no item has
// that id; spine and annotation references may be stale.
func (r *Rendition) Item(id string) (Item, bool) {
	for _, it := range r.Package.Manifest.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// FilePath returns the archive path of a file in the rendition.
func (r *Rendition) FilePath(rel string) string {
	return r.Root + "/" + rel
}

// ItemsWithProperty returns manifest items carrying prop, in manifest order.
func (r *Rendition) ItemsWithProperty(prop string) []Item {
	var out []Item
	for _, it := range r.Package.Manifest.Items {
		if it.HasProperty(prop) {
			out = append(out, it)
		}
	}
	return out
}

// SpineItems returns the manifest items in reading order. Itemrefs that do
// not resolve are skipped.
func (r *Rendition) SpineItems() []Item {
	out := make([]Item, 0, len(r.Package.Spine.ItemRefs))
	for _, ref := range r.Package.Spine.ItemRefs {
		if it, ok := r.Item(ref.IDRef); ok {
			out = append(out, it)
		}
	}
	return out
}
