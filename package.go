package epub

import (
	"encoding/xml"
	"strings"
)

// dcNamespace is the Dublin Core elements namespace used by package metadata.
const dcNamespace = "http://purl.org/dc/elements/1.1/"

// Package is the decoded package document of one rendition.
type Package struct {
	XMLName          xml.Name `xml:"package"`
	Version          string   `xml:"version,attr"`
	UniqueIdentifier string   `xml:"unique-identifier,attr"`
	Metadata         Metadata `xml:"metadata"`
	Manifest         Manifest `xml:"manifest"`
	Spine            Spine    `xml:"spine"`
}

// Metadata keeps every child of <metadata> in document order.
type Metadata struct {
	Fields []MetaField `xml:",any"`
}

// MetaField is a single metadata element. Elements this package does not
// recognise are kept with kind MetaUnknown.
type MetaField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
	ID      string `xml:"id,attr"`

	// ePub 3 <meta property="..." refines="...">value</meta>.
	Property string `xml:"property,attr"`
	Refines  string `xml:"refines,attr"`

	// ePub 2 <meta name="..." content="..."/>.
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

// MetaKind classifies a MetaField.
type MetaKind int

const (
	MetaUnknown MetaKind = iota
	MetaTitle
	MetaLanguage
	MetaIdentifier
	MetaCreator
	MetaDate
	MetaMeta
)

var dcKinds = map[string]MetaKind{
	"title":      MetaTitle,
	"language":   MetaLanguage,
	"identifier": MetaIdentifier,
	"creator":    MetaCreator,
	"date":       MetaDate,
}

// Kind classifies f by element name. Dublin Core elements must carry the
// DC namespace; <meta> is accepted in any namespace.
func (f MetaField) Kind() MetaKind {
	if f.XMLName.Local == "meta" {
		return MetaMeta
	}
	if f.XMLName.Space == dcNamespace {
		if k, ok := dcKinds[f.XMLName.Local]; ok {
			return k
		}
	}
	return MetaUnknown
}

// Text returns the trimmed element text.
func (f MetaField) Text() string {
	return strings.TrimSpace(f.Value)
}

// Manifest lists every publication resource of a rendition.
type Manifest struct {
	Items []Item `xml:"item"`
}

// Item is a manifest entry. Href is relative to the rendition root.
type Item struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

// HasProperty reports whether the space-separated properties of i contain prop.
func (i Item) HasProperty(prop string) bool {
	for _, p := range strings.Fields(i.Properties) {
		if p == prop {
			return true
		}
	}
	return false
}

// Spine is the reading order of a rendition.
type Spine struct {
	Toc      string    `xml:"toc,attr"`
	ItemRefs []ItemRef `xml:"itemref"`
}

// ItemRef points at a manifest item by id.
type ItemRef struct {
	IDRef  string `xml:"idref,attr"`
	ID     string `xml:"id,attr"`
	Linear string `xml:"linear,attr"`
}

// IsLinear reports whether the item is part of the linear reading order.
func (r ItemRef) IsLinear() bool {
	return r.Linear != "no"
}
