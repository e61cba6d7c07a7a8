package cfi

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

// ErrParse is matched by every error returned from Parse.
var ErrParse = errors.New("cfi: parse error")

// ParseError reports where an input stopped matching the grammar.
type ParseError struct {
	// Input is the complete string given to Parse.
	Input string

	// Offset is the byte position of the first character that could not
	// be consumed.
	Offset int

	// Remainder is Input[Offset:], the unconsumed suffix.
	Remainder string

	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cfi: %s at offset %d (unconsumed %q)", e.Msg, e.Offset, e.Remainder)
}

// Is makes errors.Is(err, ErrParse) true for every ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

func newParseError(input string, offset int, format string, args ...any) *ParseError {
	if offset < 0 {
		offset = 0
	}
	if offset > len(input) {
		offset = len(input)
	}
	return &ParseError{
		Input:     input,
		Offset:    offset,
		Remainder: input[offset:],
		Msg:       fmt.Sprintf(format, args...),
	}
}

// cfiLexer switches into the Assertion state after "[" so that assertion
// text may contain digits and other characters that are tokens outside it.
var cfiLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Open", Pattern: `epubcfi\(`},
		{Name: "Int", Pattern: `[0-9]+`},
		{Name: "AssertOpen", Pattern: `\[`, Action: lexer.Push("Assertion")},
		{Name: "Punct", Pattern: `[/!:,)]`},
	},
	"Assertion": {
		{Name: "Chars", Pattern: `[^\^\[\](),;=]+`},
		{Name: "AssertClose", Pattern: `\]`, Action: lexer.Pop()},
	},
})

//nolint:govet // participle grammar tags are not standard struct tags
type fragmentNode struct {
	Path   *pathNode   `"epubcfi(" @@`
	Ranges []*pathNode `( "," @@ )* ")"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type pathNode struct {
	Pos        lexer.Position
	Components []*componentNode `@@+`
	Offset     *offsetNode      `@@?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type componentNode struct {
	Pos         lexer.Position
	Step        *string `  "/" @Int`
	Assertion   *string `| "[" @Chars "]"`
	Indirection bool    `| @"!"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type offsetNode struct {
	Pos   lexer.Position
	Value string `":" @Int`
}

var cfiParser = participle.MustBuild[fragmentNode](
	participle.Lexer(cfiLexer),
)

// Parse parses a complete epubcfi(...) expression. Any input that does not
// match the grammar in full, including trailing text, fails with a
// *ParseError.
func Parse(s string) (Fragment, error) {
	node, err := cfiParser.ParseString("", s)
	if err != nil {
		var perr participle.Error
		if errors.As(err, &perr) {
			return Fragment{}, newParseError(s, perr.Position().Offset, "%s", perr.Message())
		}
		return Fragment{}, newParseError(s, 0, "%v", err)
	}
	return build(s, node)
}

// MustParse is like Parse but panics on error. It simplifies
// initialization of constant fragments.
func MustParse(s string) Fragment {
	f, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return f
}

func build(input string, node *fragmentNode) (Fragment, error) {
	path, err := buildPath(input, node.Path, true)
	if err != nil {
		return Fragment{}, err
	}
	f := Fragment{Path: path}

	switch len(node.Ranges) {
	case 0:
		return f, nil
	case 2:
	default:
		// Point at the comma that starts the unexpected path.
		bad := node.Ranges[0]
		if len(node.Ranges) > 2 {
			bad = node.Ranges[2]
		}
		return Fragment{}, newParseError(input, bad.Pos.Offset-1,
			"range needs exactly two paths, got %d", len(node.Ranges))
	}

	from, err := buildPath(input, node.Ranges[0], false)
	if err != nil {
		return Fragment{}, err
	}
	to, err := buildPath(input, node.Ranges[1], false)
	if err != nil {
		return Fragment{}, err
	}
	f.Range = &Range{From: from, To: to}
	return f, nil
}

// buildPath converts a matched path. The fragment's main path must begin
// with a step; range paths are local and may begin with an indirection.
func buildPath(input string, node *pathNode, main bool) (Path, error) {
	p := Path{Components: make([]Component, 0, len(node.Components))}
	for i, c := range node.Components {
		if main && i == 0 && c.Step == nil {
			return Path{}, newParseError(input, c.Pos.Offset, "path must begin with a step")
		}
		switch {
		case c.Step != nil:
			n, err := parseInt(input, c.Pos.Offset+1, *c.Step)
			if err != nil {
				return Path{}, err
			}
			p.Components = append(p.Components, NewStep(n))
		case c.Assertion != nil:
			if i == 0 || node.Components[i-1].Step == nil {
				return Path{}, newParseError(input, c.Pos.Offset, "assertion must follow a step")
			}
			p.Components = append(p.Components, NewAssertion(*c.Assertion))
		default:
			p.Components = append(p.Components, NewIndirection())
		}
	}

	if node.Offset != nil {
		n, err := parseInt(input, node.Offset.Pos.Offset+1, node.Offset.Value)
		if err != nil {
			return Path{}, err
		}
		p.Offset = NewOffset(n)
	}
	return p, nil
}

func parseInt(input string, offset int, digits string) (uint32, error) {
	if len(digits) > 1 && digits[0] == '0' {
		return 0, newParseError(input, offset, "integer %s has a leading zero", digits)
	}
	n, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, newParseError(input, offset, "integer %s out of range", digits)
	}
	return uint32(n), nil
}
