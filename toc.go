package epub

import (
	"bytes"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
)

// NavPoint is one entry of a navigation document list.
type NavPoint struct {
	// Title is the display text of the entry.
	Title string

	// Href is the archive path of the target, including any fragment.
	// Empty for heading-only entries.
	Href string

	Children []NavPoint
}

// Navigation holds the lists of an ePub 3 navigation document.
type Navigation struct {
	TOC       []NavPoint
	Landmarks []NavPoint
}

// Navigation parses the rendition's navigation document (the manifest item
// with the "nav" property). It fails with ErrNotFound when there is none.
func (r *Rendition) Navigation(a *Archive) (*Navigation, error) {
	items := r.ItemsWithProperty("nav")
	if len(items) == 0 {
		return nil, pathError("navigation", r.PackagePath, ErrNotFound, nil)
	}
	navPath := r.FilePath(items[0].Href)
	data, err := a.ReadFile(navPath)
	if err != nil {
		return nil, err
	}
	nav, err := parseNavDocument(data, navPath)
	if err != nil {
		return nil, pathError("navigation", navPath, ErrParse, err)
	}
	return nav, nil
}

// parseNavDocument parses an XHTML nav document. basePath is the archive
// path of the document, used to resolve relative hrefs.
func parseNavDocument(data []byte, basePath string) (*Navigation, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var navNodes []*html.Node
	var findNavs func(*html.Node)
	findNavs = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "nav" {
			navNodes = append(navNodes, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findNavs(c)
		}
	}
	findNavs(doc)

	nav := &Navigation{}
	for _, n := range navNodes {
		ol := findFirstChildElement(n, "ol")
		if ol == nil {
			continue
		}
		switch {
		case hasEpubType(n, "toc") && nav.TOC == nil:
			nav.TOC = parseNavOL(ol, basePath)
		case hasEpubType(n, "landmarks") && nav.Landmarks == nil:
			nav.Landmarks = parseNavOL(ol, basePath)
		}
	}
	return nav, nil
}

func parseNavOL(ol *html.Node, basePath string) []NavPoint {
	var points []NavPoint
	for c := ol.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "li" {
			points = append(points, parseNavLI(c, basePath))
		}
	}
	return points
}

// parseNavLI reads the <a> (or heading <span>) label of an <li> and its
// nested <ol>.
func parseNavLI(li *html.Node, basePath string) NavPoint {
	var p NavPoint
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "a":
			if p.Href == "" {
				p.Href = resolveRelativePath(basePath, navGetAttr(c, "href"))
				p.Title = collapseSpace(nodeTextContent(c))
			}
		case "span":
			if p.Title == "" {
				p.Title = collapseSpace(nodeTextContent(c))
			}
		case "ol":
			p.Children = parseNavOL(c, basePath)
		}
	}
	return p
}

// resolveRelativePath resolves href against the directory of basePath,
// keeping any fragment. External and root-escaping hrefs resolve to "".
func resolveRelativePath(basePath, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "/") || strings.Contains(href, "://") {
		return ""
	}
	fragment := ""
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href, fragment = href[:i], href[i:]
	}
	if decoded, err := url.PathUnescape(href); err == nil {
		href = decoded
	}
	if href == "" {
		return basePath + fragment
	}
	cleaned := path.Clean(path.Join(path.Dir(basePath), href))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return ""
	}
	return cleaned + fragment
}

// hasEpubType checks whether n has an epub:type attribute containing typeName.
func hasEpubType(n *html.Node, typeName string) bool {
	for _, t := range strings.Fields(navGetAttr(n, "epub:type")) {
		if t == typeName {
			return true
		}
	}
	return false
}

func navGetAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// findFirstChildElement performs a depth-first search for the first descendant
// element with the given tag name.
func findFirstChildElement(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
		if found := findFirstChildElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func nodeTextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeTextContent(c))
	}
	return sb.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
