package epub

import (
	"github.com/pkg/errors"

	"github.com/simp-lee/bene/annotation"
)

// annotationsProperty marks manifest items holding Web Annotation JSON.
const annotationsProperty = "annotations"

// LoadAnnotations reads every manifest item of r marked with the
// "annotations" property, in manifest order, and normalizes the combined
// records. One unsupported record fails the whole load. A rendition without
// annotation items yields an empty slice.
func LoadAnnotations(a *Archive, r *Rendition) ([]annotation.Annotation, error) {
	var raws []annotation.Raw
	for _, it := range r.ItemsWithProperty(annotationsProperty) {
		name := r.FilePath(it.Href)
		text, err := a.ReadText(name)
		if err != nil {
			return nil, err
		}
		batch, err := annotation.ParseCollection([]byte(text))
		if err != nil {
			return nil, pathError("decode annotations", name, ErrSchema, err)
		}
		raws = append(raws, batch...)
	}

	annots, err := annotation.Normalize(raws)
	if err != nil {
		return nil, errors.WithMessagef(err, "epub: annotations of %s", r.PackagePath)
	}
	if annots == nil {
		annots = []annotation.Annotation{}
	}
	return annots, nil
}
