package epub

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Chapter is a spine entry resolved to its manifest item.
type Chapter struct {
	// Index is the position in the spine.
	Index int

	// ID is the manifest id referenced by the itemref.
	ID string

	// Path is the archive path of the content document.
	Path string

	MediaType string
	Linear    bool

	// Title is taken from the navigation document when one was given.
	Title string
}

// Chapters returns the spine in reading order. Itemrefs naming no manifest
// item are skipped. nav may be nil; when set, chapters whose document is
// targeted by a navigation entry take that entry's title.
func (r *Rendition) Chapters(nav *Navigation) []Chapter {
	titles := map[string]string{}
	if nav != nil {
		collectTitles(nav.TOC, titles)
	}

	out := make([]Chapter, 0, len(r.Package.Spine.ItemRefs))
	for i, ref := range r.Package.Spine.ItemRefs {
		it, ok := r.Item(ref.IDRef)
		if !ok {
			continue
		}
		p := r.FilePath(it.Href)
		out = append(out, Chapter{
			Index:     i,
			ID:        it.ID,
			Path:      p,
			MediaType: it.MediaType,
			Linear:    ref.IsLinear(),
			Title:     titles[p],
		})
	}
	return out
}

// collectTitles maps each target document to the first title pointing at it.
func collectTitles(points []NavPoint, into map[string]string) {
	for _, np := range points {
		target, _, _ := strings.Cut(np.Href, "#")
		if _, seen := into[target]; target != "" && !seen {
			into[target] = np.Title
		}
		collectTitles(np.Children, into)
	}
}

// ChapterText extracts the plain text of a chapter. Block-level elements
// start new lines; script and style content is skipped.
func ChapterText(a *Archive, c Chapter) (string, error) {
	data, err := a.ReadFile(c.Path)
	if err != nil {
		return "", err
	}
	text, err := extractText(stripBOM(data))
	if err != nil {
		return "", pathError("extract text", c.Path, ErrParse, err)
	}
	return text, nil
}

var blockTags = map[atom.Atom]bool{
	atom.P: true, atom.Br: true, atom.Div: true, atom.Li: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Hr: true, atom.Section: true, atom.Article: true,
}

// selfClosingRawTag matches <script/> and <style/>. The HTML tokenizer
// treats everything after them as raw text, so they are expanded first.
var selfClosingRawTag = regexp.MustCompile(`(?is)<(script|style)\b([^>]*)/>`)

func extractText(data []byte) (string, error) {
	data = selfClosingRawTag.ReplaceAll(data, []byte(`<$1$2></$1>`))
	z := html.NewTokenizer(bytes.NewReader(data))
	var sb strings.Builder
	skip := 0
	atLineStart := true
	space := false

	newline := func() {
		if sb.Len() > 0 && !atLineStart {
			sb.WriteByte('\n')
			atLineStart = true
		}
		space = false
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", err
			}
			return strings.TrimSpace(sb.String()), nil
		case html.StartTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if a == atom.Script || a == atom.Style {
				skip++
			} else if skip == 0 && blockTags[a] {
				newline()
			}
		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if skip == 0 && blockTags[atom.Lookup(name)] {
				newline()
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if a := atom.Lookup(name); (a == atom.Script || a == atom.Style) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			raw := string(z.Text())
			if startsWithSpace(raw) {
				space = true
			}
			words := strings.Fields(raw)
			if len(words) == 0 {
				continue
			}
			if space && !atLineStart {
				sb.WriteByte(' ')
			}
			sb.WriteString(strings.Join(words, " "))
			atLineStart = false
			space = endsWithSpace(raw)
		}
	}
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' }

func startsWithSpace(s string) bool { return s != "" && isSpace(s[0]) }
func endsWithSpace(s string) bool   { return s != "" && isSpace(s[len(s)-1]) }
