// Package cfi parses EPUB Canonical Fragment Identifiers, the positional
// addressing language used to point into ePub content:
//
//	epubcfi(/6/2[pageref]!/4/2/2/8,/1:0,/1:15)
//
// A Fragment is a Path of Steps, id Assertions, and Indirections, with an
// optional character Offset, and optionally a Range of two further Paths
// relative to it. Parse accepts exactly this grammar:
//
//	fragment   := "epubcfi(" path range? ")"
//	path       := component+ offset?
//	component  := "/" integer | "[" safe-chars "]" | "!"
//	offset     := ":" integer
//	range      := ("," path){2}
//	safe-chars := any char except ^[](),;=
//
// In addition a path must begin with a Step and an Assertion must directly
// follow a Step, as in the EPUB CFI formal grammar.
//
// Interpreting steps against a document is left to the caller.
package cfi

import (
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Fragment is a parsed epubcfi(...) expression.
type Fragment struct {
	Path  Path
	Range *Range
}

// Range is a span whose endpoints are paths relative to the fragment path.
type Range struct {
	From Path
	To   Path
}

// Path is a sequence of components with an optional terminal offset.
type Path struct {
	Components []Component
	Offset     *Offset
}

// ComponentKind identifies the variant held by a Component.
type ComponentKind int

const (
	// KindStep descends to a child by index.
	KindStep ComponentKind = iota
	// KindAssertion carries the expected id of the node reached by the
	// preceding step. It validates; it does not navigate.
	KindAssertion
	// KindIndirection crosses into the content document referenced by the
	// current node; subsequent steps apply within that document.
	KindIndirection
)

func (k ComponentKind) String() string {
	switch k {
	case KindStep:
		return "Step"
	case KindAssertion:
		return "Assertion"
	case KindIndirection:
		return "Indirection"
	}
	return "ComponentKind(" + strconv.Itoa(int(k)) + ")"
}

// Component is one element of a Path.
type Component struct {
	Kind ComponentKind

	// Step is the child index when Kind is KindStep.
	Step uint32

	// Assertion is set when Kind is KindAssertion.
	Assertion Assertion
}

// Assertion is an id assertion, written [id].
type Assertion struct {
	ID string
}

// Offset is a character offset into the node reached by a path.
type Offset struct {
	Character uint32
}

// NewStep returns a Step component.
func NewStep(n uint32) Component { return Component{Kind: KindStep, Step: n} }

// NewAssertion returns an id Assertion component.
func NewAssertion(id string) Component {
	return Component{Kind: KindAssertion, Assertion: Assertion{ID: id}}
}

// NewIndirection returns an Indirection component.
func NewIndirection() Component { return Component{Kind: KindIndirection} }

// NewOffset returns a character offset.
func NewOffset(n uint32) *Offset { return &Offset{Character: n} }

// IsRange reports whether f addresses a span rather than a point.
func (f Fragment) IsRange() bool { return f.Range != nil }

// String renders f in canonical epubcfi(...) form. Parse(f.String())
// yields a fragment equal to f.
func (f Fragment) String() string {
	var sb strings.Builder
	sb.WriteString("epubcfi(")
	f.Path.writeTo(&sb)
	if f.Range != nil {
		sb.WriteByte(',')
		f.Range.From.writeTo(&sb)
		sb.WriteByte(',')
		f.Range.To.writeTo(&sb)
	}
	sb.WriteByte(')')
	return sb.String()
}

func (p Path) String() string {
	var sb strings.Builder
	p.writeTo(&sb)
	return sb.String()
}

func (p Path) writeTo(sb *strings.Builder) {
	for _, c := range p.Components {
		sb.WriteString(c.String())
	}
	if p.Offset != nil {
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatUint(uint64(p.Offset.Character), 10))
	}
}

func (c Component) String() string {
	switch c.Kind {
	case KindStep:
		return "/" + strconv.FormatUint(uint64(c.Step), 10)
	case KindAssertion:
		return "[" + c.Assertion.ID + "]"
	default:
		return "!"
	}
}

// Steps returns the step indices of p, ignoring assertions and indirections.
func (p Path) Steps() []uint32 {
	var out []uint32
	for _, c := range p.Components {
		if c.Kind == KindStep {
			out = append(out, c.Step)
		}
	}
	return out
}

// taggedValue is the JSON shape shared by components, assertions, and
// offsets: {"type": ..., "value": ...}.
type taggedValue struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// MarshalJSON encodes c as {"type":"Step","value":6},
// {"type":"Assertion","value":{"type":"Id","value":"x"}} or
// {"type":"Indirection"}.
func (c Component) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindStep:
		return json.Marshal(taggedValue{Type: "Step", Value: c.Step})
	case KindAssertion:
		return json.Marshal(taggedValue{Type: "Assertion", Value: c.Assertion})
	default:
		return json.Marshal(struct {
			Type string `json:"type"`
		}{"Indirection"})
	}
}

// MarshalJSON encodes a as {"type":"Id","value":"..."}.
func (a Assertion) MarshalJSON() ([]byte, error) {
	return json.Marshal(taggedValue{Type: "Id", Value: a.ID})
}

// MarshalJSON encodes o as {"type":"Character","value":n}.
func (o Offset) MarshalJSON() ([]byte, error) {
	return json.Marshal(taggedValue{Type: "Character", Value: o.Character})
}

// MarshalJSON encodes p as {"components":[...],"offset":...}.
func (p Path) MarshalJSON() ([]byte, error) {
	components := p.Components
	if components == nil {
		components = []Component{}
	}
	return json.Marshal(struct {
		Components []Component `json:"components"`
		Offset     *Offset     `json:"offset"`
	}{components, p.Offset})
}

// MarshalJSON encodes r as {"from":...,"to":...}.
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		From Path `json:"from"`
		To   Path `json:"to"`
	}{r.From, r.To})
}

// MarshalJSON encodes f as {"path":...,"range":...}.
func (f Fragment) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Path  Path   `json:"path"`
		Range *Range `json:"range"`
	}{f.Path, f.Range})
}
