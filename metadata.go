package epub

import "strings"

// Creator is a dc:creator entry with its ePub 3 refinements resolved.
type Creator struct {
	Name   string
	FileAs string
	Role   string
}

// Identifier is a dc:identifier entry.
type Identifier struct {
	Value  string
	Scheme string
	ID     string
}

// fieldsOf returns the fields of kind k with non-empty text, in order.
func (m Metadata) fieldsOf(k MetaKind) []MetaField {
	var out []MetaField
	for _, f := range m.Fields {
		if f.Kind() == k && f.Text() != "" {
			out = append(out, f)
		}
	}
	return out
}

func (m Metadata) textsOf(k MetaKind) []string {
	var out []string
	for _, f := range m.fieldsOf(k) {
		out = append(out, f.Text())
	}
	return out
}

// Titles returns all dc:title values. The first entry is the primary title.
func (m Metadata) Titles() []string { return m.textsOf(MetaTitle) }

// Languages returns all dc:language values.
func (m Metadata) Languages() []string { return m.textsOf(MetaLanguage) }

// Date returns the first dc:date value, or "".
func (m Metadata) Date() string {
	if dates := m.textsOf(MetaDate); len(dates) > 0 {
		return dates[0]
	}
	return ""
}

// Property returns the value of the first <meta property="prop"> that does
// not refine another element, e.g. "dcterms:modified".
func (m Metadata) Property(prop string) (string, bool) {
	for _, f := range m.fieldsOf(MetaMeta) {
		if f.Property == prop && f.Refines == "" {
			return f.Text(), true
		}
	}
	return "", false
}

// refinement finds <meta refines="#id" property="prop">.
func (m Metadata) refinement(id, prop string) (string, bool) {
	if id == "" {
		return "", false
	}
	for _, f := range m.fieldsOf(MetaMeta) {
		if f.Property == prop && strings.TrimPrefix(f.Refines, "#") == id {
			return f.Text(), true
		}
	}
	return "", false
}

// Creators returns all dc:creator entries with file-as and role refinements.
func (m Metadata) Creators() []Creator {
	var out []Creator
	for _, f := range m.fieldsOf(MetaCreator) {
		c := Creator{Name: f.Text()}
		c.FileAs, _ = m.refinement(f.ID, "file-as")
		c.Role, _ = m.refinement(f.ID, "role")
		out = append(out, c)
	}
	return out
}

// Identifiers returns all dc:identifier entries; the scheme comes from an
// identifier-type refinement when present.
func (m Metadata) Identifiers() []Identifier {
	var out []Identifier
	for _, f := range m.fieldsOf(MetaIdentifier) {
		id := Identifier{Value: f.Text(), ID: f.ID}
		id.Scheme, _ = m.refinement(f.ID, "identifier-type")
		out = append(out, id)
	}
	return out
}

// UniqueID returns the identifier referenced by the package's
// unique-identifier attribute, or "" when it does not resolve.
func (p *Package) UniqueID() string {
	for _, id := range p.Metadata.Identifiers() {
		if id.ID == p.UniqueIdentifier {
			return id.Value
		}
	}
	return ""
}
