package annotation

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// ErrInvalidIRI is returned when a value decoded as an IRI is not an
// RFC 3987 IRI reference.
var ErrInvalidIRI = errors.New("annotation: invalid IRI reference")

func invalidIRI(s, format string, args ...any) error {
	return errors.Wrapf(ErrInvalidIRI, "%q: "+format, append([]any{s}, args...)...)
}

// validateIRIRef checks s against the IRI-reference production of
// RFC 3987: [scheme ":"] ["//" iauthority] ipath ["?" iquery] ["#" ifragment].
func validateIRIRef(s string) error {
	if !utf8.ValidString(s) {
		return invalidIRI(s, "not UTF-8")
	}

	rest, fragment, hasFragment := strings.Cut(s, "#")
	if hasFragment {
		if err := checkChars(s, "fragment", fragment, isFragmentRune); err != nil {
			return err
		}
	}
	rest, query, hasQuery := strings.Cut(rest, "?")
	if hasQuery {
		if err := checkChars(s, "query", query, isQueryRune); err != nil {
			return err
		}
	}

	if i := strings.IndexAny(rest, ":/"); i >= 0 && rest[i] == ':' {
		if !isScheme(rest[:i]) {
			return invalidIRI(s, "invalid scheme %q", rest[:i])
		}
		rest = rest[i+1:]
	}

	if strings.HasPrefix(rest, "//") {
		authority, path, _ := strings.Cut(rest[2:], "/")
		if err := checkAuthority(s, authority); err != nil {
			return err
		}
		rest = path
	}
	return checkChars(s, "path", rest, func(r rune) bool { return r == '/' || isPchar(r) })
}

func checkChars(s, part, text string, ok func(rune) bool) error {
	for i := 0; i < len(text); {
		if text[i] == '%' {
			if i+2 >= len(text) || !isHex(text[i+1]) || !isHex(text[i+2]) {
				return invalidIRI(s, "bad percent-encoding in %s", part)
			}
			i += 3
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if !ok(r) {
			return invalidIRI(s, "character %q not allowed in %s", r, part)
		}
		i += size
	}
	return nil
}

func checkAuthority(s, authority string) error {
	if at := strings.LastIndexByte(authority, '@'); at >= 0 {
		userinfo := authority[:at]
		if err := checkChars(s, "userinfo", userinfo, func(r rune) bool {
			return r == ':' || isUnreserved(r) || isSubDelim(r)
		}); err != nil {
			return err
		}
		authority = authority[at+1:]
	}

	host, port := authority, ""
	if strings.HasPrefix(host, "[") {
		end := strings.IndexByte(host, ']')
		if end < 0 {
			return invalidIRI(s, "unterminated IP literal")
		}
		literal := host[1:end]
		for _, r := range literal {
			if !(r == ':' || r == '.' || isUnreserved(r) && r < utf8.RuneSelf || isSubDelim(r)) {
				return invalidIRI(s, "character %q not allowed in IP literal", r)
			}
		}
		host, port = "", host[end+1:]
		if port != "" {
			if port[0] != ':' {
				return invalidIRI(s, "text after IP literal")
			}
			port = port[1:]
		}
	} else if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host, port = host[:i], host[i+1:]
	}

	for i := 0; i < len(port); i++ {
		if port[i] < '0' || port[i] > '9' {
			return invalidIRI(s, "invalid port %q", port)
		}
	}
	return checkChars(s, "host", host, func(r rune) bool { return isUnreserved(r) || isSubDelim(r) })
}

func isScheme(s string) bool {
	if s == "" || !isAlpha(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !isAlpha(c) && !(c >= '0' && c <= '9') && c != '+' && c != '-' && c != '.' {
			return false
		}
	}
	return true
}

func isFragmentRune(r rune) bool { return r == '/' || r == '?' || isPchar(r) }

func isQueryRune(r rune) bool { return isFragmentRune(r) || isPrivate(r) }

// isPchar is ipchar without pct-encoded, which checkChars handles.
func isPchar(r rune) bool {
	return r == ':' || r == '@' || isUnreserved(r) || isSubDelim(r)
}

func isUnreserved(r rune) bool {
	switch {
	case r < utf8.RuneSelf:
		c := byte(r)
		return isAlpha(c) || (c >= '0' && c <= '9') || c == '-' || c == '.' || c == '_' || c == '~'
	case r >= 0xA0 && r <= 0xD7FF, r >= 0xF900 && r <= 0xFDCF, r >= 0xFDF0 && r <= 0xFFEF:
		return true
	case r >= 0x10000 && r <= 0xEFFFD:
		// ucschar skips the last two code points of every plane and the
		// tag block at the start of plane 14.
		return r&0xFFFF <= 0xFFFD && !(r >= 0xE0000 && r < 0xE1000)
	}
	return false
}

func isPrivate(r rune) bool {
	return r >= 0xE000 && r <= 0xF8FF || r >= 0xF0000 && r <= 0xFFFFD || r >= 0x100000 && r <= 0x10FFFD
}

func isSubDelim(r rune) bool { return strings.ContainsRune("!$&'()*+,;=", r) }

func isAlpha(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}
