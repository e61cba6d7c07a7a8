// Package annotation narrows W3C Web Annotations that target EPUB content
// to a pair of a parsed CFI selector and an optional text body.
//
// Raw annotations are decoded permissively (see Raw). Normalize then accepts
// only the shapes it can represent: a single target that is either an IRI
// whose fragment is a CFI or a SpecificResource with one EPUB CFI
// FragmentSelector, and at most one textual body.
package annotation

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/simp-lee/bene/cfi"
)

// CFIConformance is the conformsTo value identifying a FragmentSelector
// whose value is an EPUB CFI.
const CFIConformance = "http://www.idpf.org/epub/linking/cfi/epub-cfi.html"

var (
	// ErrUnsupportedShape is returned for annotations Normalize cannot
	// represent: several targets, selectors or bodies, non-CFI selectors,
	// and non-textual bodies.
	ErrUnsupportedShape = errors.New("annotation: unsupported shape")

	// ErrParse is returned when a selector is not a valid CFI. The
	// underlying *cfi.ParseError remains reachable through errors.As.
	ErrParse = cfi.ErrParse
)

// Error reports which record of a batch failed.
type Error struct {
	// Index is the position of the record in the batch.
	Index int
	// ID is the record's id, possibly empty.
	ID string
	// Selector is the selector text when the failure was a CFI parse error.
	Selector string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("annotation %d", e.Index)
	if e.ID != "" {
		msg += fmt.Sprintf(" (%s)", e.ID)
	}
	if e.Selector != "" {
		msg += fmt.Sprintf(": selector %q", e.Selector)
	}
	return msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Annotation is a normalized annotation.
type Annotation struct {
	Selector cfi.Fragment `json:"selector"`
	Body     *string      `json:"body"`
}

// Normalize converts raws in order and stops at the first record that
// cannot be represented. The error is an *Error naming that record.
func Normalize(raws []Raw) ([]Annotation, error) {
	out := make([]Annotation, 0, len(raws))
	for i, raw := range raws {
		a, selector, err := normalize(raw)
		if err != nil {
			return nil, &Error{Index: i, ID: raw.ID, Selector: selector, Err: err}
		}
		out = append(out, a)
	}
	return out, nil
}

func unsupported(format string, args ...any) error {
	return errors.Wrapf(ErrUnsupportedShape, format, args...)
}

// normalize returns the annotation and, on a CFI parse failure, the
// offending selector text.
func normalize(raw Raw) (Annotation, string, error) {
	targets := raw.Target.Slice()
	if len(targets) != 1 {
		return Annotation{}, "", unsupported("want exactly one target, got %d", len(targets))
	}
	selector, err := targetSelector(targets[0])
	if err != nil {
		return Annotation{}, "", err
	}

	body, err := bodyText(raw)
	if err != nil {
		return Annotation{}, "", err
	}

	frag, err := cfi.Parse(selector)
	if err != nil {
		return Annotation{}, selector, err
	}
	return Annotation{Selector: frag, Body: body}, "", nil
}

func targetSelector(t Target) (string, error) {
	switch t.Kind {
	case TargetIRI:
		_, fragment, ok := strings.Cut(t.IRI, "#")
		if !ok || fragment == "" {
			return "", unsupported("target IRI %q has no fragment", t.IRI)
		}
		return fragment, nil
	case TargetSpecificResource:
		selectors := t.Resource.Selector.Slice()
		if len(selectors) != 1 {
			return "", unsupported("want exactly one selector, got %d", len(selectors))
		}
		s := selectors[0]
		if s.Kind != SelectorFragment {
			return "", unsupported("selector %s", s.describe())
		}
		if s.ConformsTo != CFIConformance {
			return "", unsupported("fragment selector conforms to %q, not EPUB CFI", s.ConformsTo)
		}
		return s.Value, nil
	default:
		return "", unsupported("external web resource target %q", t.External.ID)
	}
}

func bodyText(raw Raw) (*string, error) {
	if raw.BodyValue != nil {
		v := *raw.BodyValue
		return &v, nil
	}
	if raw.Body == nil {
		return nil, nil
	}
	bodies := raw.Body.Slice()
	if len(bodies) != 1 {
		return nil, unsupported("want at most one body, got %d", len(bodies))
	}
	b := bodies[0]
	if b.Kind != BodyTextual {
		return nil, unsupported("body is %s, not TextualBody", b.Kind)
	}
	v := b.Textual.Value
	return &v, nil
}

func (s Selector) describe() string {
	if s.Kind == SelectorIRI {
		return fmt.Sprintf("IRI %q", s.IRI)
	}
	return s.Type
}

func (k BodyKind) String() string {
	switch k {
	case BodyIRI:
		return "IRI"
	case BodyTextual:
		return "TextualBody"
	case BodySpecificResource:
		return "SpecificResource"
	case BodyChoice:
		return "Choice"
	case BodyExternal:
		return "external resource"
	}
	return fmt.Sprintf("BodyKind(%d)", int(k))
}
