package annotation

import (
	"bytes"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Variable holds a JSON value that may be written either as a single item
// or as an array of items. Call Slice to get the uniform view.
type Variable[T any] struct {
	items []T
}

// UnmarshalJSON accepts T or []T.
func (v *Variable[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var many []T
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		v.items = many
		return nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	v.items = []T{one}
	return nil
}

// Slice returns the items in document order. A nil Variable has none.
func (v *Variable[T]) Slice() []T {
	if v == nil {
		return nil
	}
	return v.items
}

// One wraps a single item.
func One[T any](item T) *Variable[T] { return &Variable[T]{items: []T{item}} }

// Many wraps several items.
func Many[T any](items ...T) *Variable[T] { return &Variable[T]{items: items} }

// Raw is a Web Annotation as found in the wild. Decoding is permissive:
// unknown fields are ignored and every polymorphic field is accepted in
// all of its forms. Raw values are narrowed by Normalize.
type Raw struct {
	Context    json.RawMessage   `json:"@context"`
	ID         string            `json:"id"`
	Type       *Variable[string] `json:"type"`
	Motivation *Variable[string] `json:"motivation"`
	Created    string            `json:"created"`
	Modified   string            `json:"modified"`
	Body       *Variable[Body]   `json:"body"`
	BodyValue  *string           `json:"bodyValue"`
	Target     *Variable[Target] `json:"target"`
}

// ResourceFields are the descriptive properties shared by resources.
type ResourceFields struct {
	Format             string            `json:"format"`
	Language           *Variable[string] `json:"language"`
	ProcessingLanguage string            `json:"processingLanguage"`
	TextDirection      string            `json:"textDirection"`
}

// BodyKind identifies the variant held by a Body.
type BodyKind int

const (
	BodyIRI BodyKind = iota
	BodyTextual
	BodySpecificResource
	BodyChoice
	BodyExternal
)

// Body is an annotation body: an IRI, an embedded TextualBody, a
// SpecificResource, a Choice, or an external web resource.
type Body struct {
	Kind     BodyKind
	IRI      string
	Textual  *TextualBody
	Resource *SpecificResource
	Choice   *Choice
	External *ExternalWebResource
}

// TextualBody is text embedded in the annotation.
type TextualBody struct {
	ID      string            `json:"id"`
	Type    string            `json:"type"`
	Value   string            `json:"value"`
	Purpose *Variable[string] `json:"purpose"`
	ResourceFields
}

// Choice lists alternative bodies.
type Choice struct {
	Type  string `json:"type"`
	Items []Body `json:"items"`
}

// ExternalWebResource is a resource identified by IRI with descriptive fields.
type ExternalWebResource struct {
	ID   string            `json:"id"`
	Type *Variable[string] `json:"type"`
	ResourceFields
}

// SpecificResource narrows a source resource with selectors.
type SpecificResource struct {
	ID       string              `json:"id"`
	Type     string              `json:"type"`
	Source   *Target             `json:"source"`
	Purpose  *Variable[string]   `json:"purpose"`
	Selector *Variable[Selector] `json:"selector"`
}

// shapeProbe reports which discriminating keys an object carries.
type shapeProbe struct {
	Type   *Variable[string] `json:"type"`
	ID     *string           `json:"id"`
	Value  json.RawMessage   `json:"value"`
	Source json.RawMessage   `json:"source"`
	Items  json.RawMessage   `json:"items"`
}

func (p shapeProbe) hasType(name string) bool {
	for _, t := range p.Type.Slice() {
		if t == name {
			return true
		}
	}
	return false
}

func isString(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '"'
}

// decodeIRI reports whether data is a JSON string and, if so, its value.
// A string that is not an IRI reference is an ErrInvalidIRI error.
func decodeIRI(data []byte) (string, bool, error) {
	if !isString(data) {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", true, err
	}
	return s, true, validateIRIRef(s)
}

// UnmarshalJSON classifies the body by its shape, trying the variants in
// the order IRI, TextualBody, SpecificResource, Choice, external resource.
func (b *Body) UnmarshalJSON(data []byte) error {
	if iri, ok, err := decodeIRI(data); ok {
		*b = Body{Kind: BodyIRI, IRI: iri}
		return err
	}

	var probe shapeProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	switch {
	case isString(probe.Value):
		var t TextualBody
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		*b = Body{Kind: BodyTextual, Textual: &t}
	case probe.Source != nil:
		var r SpecificResource
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		*b = Body{Kind: BodySpecificResource, Resource: &r}
	case probe.hasType("Choice") && probe.Items != nil:
		var c Choice
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		*b = Body{Kind: BodyChoice, Choice: &c}
	case probe.ID != nil:
		var e ExternalWebResource
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		*b = Body{Kind: BodyExternal, External: &e}
	default:
		return errors.New("annotation: body is not an IRI, TextualBody, SpecificResource, Choice, or resource")
	}
	return nil
}

// TargetKind identifies the variant held by a Target.
type TargetKind int

const (
	TargetIRI TargetKind = iota
	TargetSpecificResource
	TargetExternal
)

// Target is what an annotation is about: an IRI, a SpecificResource, or an
// external web resource.
type Target struct {
	Kind     TargetKind
	IRI      string
	Resource *SpecificResource
	External *ExternalWebResource
}

// UnmarshalJSON classifies the target by its shape.
func (t *Target) UnmarshalJSON(data []byte) error {
	if iri, ok, err := decodeIRI(data); ok {
		*t = Target{Kind: TargetIRI, IRI: iri}
		return err
	}

	var probe shapeProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	switch {
	case probe.Source != nil:
		var r SpecificResource
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		*t = Target{Kind: TargetSpecificResource, Resource: &r}
	case probe.ID != nil:
		var e ExternalWebResource
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		*t = Target{Kind: TargetExternal, External: &e}
	default:
		return errors.New("annotation: target is not an IRI, SpecificResource, or resource")
	}
	return nil
}

// SelectorKind identifies the variant held by a Selector.
type SelectorKind int

const (
	SelectorIRI SelectorKind = iota
	SelectorFragment
	SelectorCSS
	SelectorXPath
	SelectorTextQuote
	SelectorTextPosition
	SelectorDataPosition
	SelectorSVG
	SelectorRange
	// SelectorUnknown is any typed selector outside the Web Annotation model.
	SelectorUnknown
)

var selectorKinds = map[string]SelectorKind{
	"FragmentSelector":     SelectorFragment,
	"CssSelector":          SelectorCSS,
	"XPathSelector":        SelectorXPath,
	"TextQuoteSelector":    SelectorTextQuote,
	"TextPositionSelector": SelectorTextPosition,
	"DataPositionSelector": SelectorDataPosition,
	"SvgSelector":          SelectorSVG,
	"RangeSelector":        SelectorRange,
}

// Selector is a bare IRI or a typed selector. Only the fields of its kind
// are set.
type Selector struct {
	Kind SelectorKind `json:"-"`
	IRI  string       `json:"-"`

	Type string `json:"type"`

	// Fragment, CSS, XPath, and SVG selectors.
	Value      string `json:"value"`
	ConformsTo string `json:"conformsTo"`

	// TextQuoteSelector.
	Exact  string `json:"exact"`
	Prefix string `json:"prefix"`
	Suffix string `json:"suffix"`

	// TextPositionSelector and DataPositionSelector.
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`

	// RangeSelector.
	StartSelector *Selector `json:"startSelector"`
	EndSelector   *Selector `json:"endSelector"`

	RefinedBy *Selector `json:"refinedBy"`
}

// UnmarshalJSON decodes a bare IRI or an object tagged by "type".
func (s *Selector) UnmarshalJSON(data []byte) error {
	if iri, ok, err := decodeIRI(data); ok {
		*s = Selector{Kind: SelectorIRI, IRI: iri}
		return err
	}

	type plain Selector
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Type == "" {
		return errors.New("annotation: selector object has no type")
	}
	*s = Selector(p)
	s.Kind = SelectorUnknown
	if k, ok := selectorKinds[s.Type]; ok {
		s.Kind = k
	}
	return nil
}

// Parse decodes a single annotation.
func Parse(data []byte) (Raw, error) {
	var r Raw
	if err := json.Unmarshal(data, &r); err != nil {
		return Raw{}, errors.Wrap(err, "annotation: decode")
	}
	return r, nil
}

// collectionProbe matches AnnotationCollection and AnnotationPage objects.
type collectionProbe struct {
	Type  *Variable[string] `json:"type"`
	Items []Raw             `json:"items"`
	First *collectionProbe  `json:"first"`
}

// ParseCollection decodes an annotation resource: a JSON array of
// annotations, a single annotation, an AnnotationPage, or an
// AnnotationCollection with its first page embedded.
func ParseCollection(data []byte) ([]Raw, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var raws []Raw
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, errors.Wrap(err, "annotation: decode")
		}
		return raws, nil
	}

	var probe collectionProbe
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		// Prefer the annotation decoder's message when it fails too.
		if _, err := Parse(trimmed); err != nil {
			return nil, err
		}
		return nil, errors.Wrap(err, "annotation: decode collection")
	}
	for _, t := range probe.Type.Slice() {
		switch t {
		case "AnnotationPage":
			return probe.Items, nil
		case "AnnotationCollection":
			if probe.First == nil {
				return nil, errors.Wrap(ErrUnsupportedShape, "annotation: collection without embedded first page")
			}
			return probe.First.Items, nil
		}
	}

	r, err := Parse(trimmed)
	if err != nil {
		return nil, err
	}
	return []Raw{r}, nil
}
