package epub

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func twoRenditionEntries(secondVersion string) []zipEntry {
	return []zipEntry{
		{Name: "mimetype", Body: "application/epub+zip"},
		{Name: "META-INF/container.xml", Body: containerXML("A/content.opf", "B/content.opf")},
		{Name: "A/content.opf", Body: packageXML(testPackage{Title: "Alpha"})},
		{Name: "B/content.opf", Body: packageXML(testPackage{Title: "Beta", Version: secondVersion})},
	}
}

func TestLoadEpub_RenditionsKeepListingOrder(t *testing.T) {
	for _, n := range []int{0, 1, 2} {
		a, err := LoadArchive(MemoryBacking(buildZip(t, twoRenditionEntries("3.0")...)))
		require.NoError(t, err)

		e, err := LoadEpub(context.Background(), a, WithConcurrency(n))
		require.NoError(t, err, "concurrency %d", n)
		require.Len(t, e.Renditions, 2)
		assert.Equal(t, "A", e.Renditions[0].Root)
		assert.Equal(t, "A/content.opf", e.Renditions[0].PackagePath)
		assert.Equal(t, []string{"Alpha"}, e.Renditions[0].Package.Metadata.Titles())
		assert.Equal(t, "B", e.Renditions[1].Root)
		assert.Equal(t, []string{"Beta"}, e.Renditions[1].Package.Metadata.Titles())
		assert.Contains(t, e.Renditions[1].PackageXML, "<dc:title>Beta</dc:title>")
		require.NoError(t, a.Close())
	}
}

func TestLoadEpub_UnsupportedVersion(t *testing.T) {
	a, err := LoadArchive(MemoryBacking(buildZip(t, twoRenditionEntries("2.0")...)))
	require.NoError(t, err)
	defer a.Close()

	e, err := LoadEpub(context.Background(), a)
	assert.Nil(t, e)
	assert.ErrorIs(t, err, ErrFormat)
	assert.Contains(t, err.Error(), `"2.0"`)
}

func TestLoadEpub_Errors(t *testing.T) {
	base := sampleEntries()
	tests := []struct {
		name    string
		entries []zipEntry
		want    error
	}{
		{
			name:    "no container",
			entries: []zipEntry{{Name: "OEBPS/content.opf", Body: packageXML(testPackage{})}},
			want:    ErrNotFound,
		},
		{
			name:    "container not xml",
			entries: replaceEntry(base, "META-INF/container.xml", "{not xml"),
			want:    ErrSchema,
		},
		{
			name:    "no rootfiles",
			entries: replaceEntry(base, "META-INF/container.xml", containerXML()),
			want:    ErrSchema,
		},
		{
			name:    "rootfile at archive root",
			entries: replaceEntry(base, "META-INF/container.xml", containerXML("content.opf")),
			want:    ErrSchema,
		},
		{
			name:    "rootfile missing",
			entries: replaceEntry(base, "META-INF/container.xml", containerXML("OEBPS/nope.opf")),
			want:    ErrNotFound,
		},
		{
			name:    "package not utf-8",
			entries: replaceEntry(base, "OEBPS/content.opf", "<package version=\"3.0\">\xff</package>"),
			want:    ErrEncoding,
		},
		{
			name:    "package wrong root element",
			entries: replaceEntry(base, "OEBPS/content.opf", `<container version="1.0"/>`),
			want:    ErrSchema,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := LoadArchive(MemoryBacking(buildZip(t, tt.entries...)))
			require.NoError(t, err)
			defer a.Close()

			_, err = LoadEpub(context.Background(), a, WithConcurrency(1))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadEpub_CanceledContext(t *testing.T) {
	a, err := LoadArchive(MemoryBacking(buildZip(t, sampleEntries()...)))
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = LoadEpub(ctx, a)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLoadEpub_DRM(t *testing.T) {
	t.Run("fairplay", func(t *testing.T) {
		entries := append(sampleEntries(), zipEntry{Name: "META-INF/sinf.xml", Body: "<sinf/>"})
		_, err := OpenBytes(context.Background(), buildZip(t, entries...))
		assert.ErrorIs(t, err, ErrDRMProtected)
		assert.ErrorIs(t, err, ErrFormat)
	})

	t.Run("encrypted content", func(t *testing.T) {
		entries := append(sampleEntries(), zipEntry{Name: "META-INF/encryption.xml", Body: `<?xml version="1.0"?>
<encryption xmlns="urn:oasis:names:tc:opendocument:xmlns:container" xmlns:enc="http://www.w3.org/2001/04/xmlenc#">
  <enc:EncryptedData>
    <enc:EncryptionMethod Algorithm="http://www.w3.org/2001/04/xmlenc#aes128-cbc"/>
    <enc:CipherData><enc:CipherReference URI="OEBPS/text/ch1.xhtml"/></enc:CipherData>
  </enc:EncryptedData>
</encryption>`})
		_, err := OpenBytes(context.Background(), buildZip(t, entries...))
		assert.ErrorIs(t, err, ErrDRMProtected)
		assert.Contains(t, err.Error(), "OEBPS/text/ch1.xhtml")
	})

	t.Run("font obfuscation only", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		entries := append(sampleEntries(), zipEntry{Name: "META-INF/encryption.xml", Body: `<?xml version="1.0"?>
<encryption xmlns="urn:oasis:names:tc:opendocument:xmlns:container" xmlns:enc="http://www.w3.org/2001/04/xmlenc#">
  <enc:EncryptedData>
    <enc:EncryptionMethod Algorithm="http://www.idpf.org/2008/embedding"/>
    <enc:CipherData><enc:CipherReference URI="OEBPS/fonts/a.otf"/></enc:CipherData>
  </enc:EncryptedData>
</encryption>`})
		book, err := OpenBytes(context.Background(), buildZip(t, entries...), WithLogger(zap.New(core)))
		require.NoError(t, err)
		defer book.Close()

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "OEBPS/fonts/a.otf", logs.All()[0].ContextMap()["path"])
	})
}

func TestOpen_FileBacking(t *testing.T) {
	path := writeTempFile(t, buildZip(t, sampleEntries()...))
	book, err := OpenFile(context.Background(), path)
	require.NoError(t, err)
	defer book.Close()

	summaries := book.Renditions()
	require.Len(t, summaries, 1)
	assert.Equal(t, RenditionSummary{
		Index:       0,
		Root:        "OEBPS",
		PackagePath: "OEBPS/content.opf",
		Version:     "3.0",
		Title:       "Test Book",
		Language:    "en",
		UniqueID:    "urn:uuid:12345",
		ItemCount:   6,
		SpineCount:  3,
	}, summaries[0])
}

func TestBook_RenditionOutOfRange(t *testing.T) {
	book := openSample(t, sampleEntries())

	for _, i := range []int{-1, 1} {
		_, err := book.Rendition(i)
		assert.ErrorIs(t, err, ErrNotFound)

		_, _, err = book.ResolveAsset(i, "style.css")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = book.LoadAnnotations(i)
		assert.ErrorIs(t, err, ErrNotFound)
	}
}

func TestRendition_Lookups(t *testing.T) {
	book := openSample(t, sampleEntries())
	r, err := book.Rendition(0)
	require.NoError(t, err)

	it, ok := r.Item("ch1")
	require.True(t, ok)
	assert.Equal(t, "text/ch1.xhtml", it.Href)

	_, ok = r.Item("missing")
	assert.False(t, ok)

	assert.Equal(t, "OEBPS/text/ch1.xhtml", r.FilePath(it.Href))

	spine := r.SpineItems()
	require.Len(t, spine, 2, "stale idrefs are skipped")
	assert.Equal(t, "ch1", spine[0].ID)
	assert.Equal(t, "ch2", spine[1].ID)

	nav := r.ItemsWithProperty("nav")
	require.Len(t, nav, 1)
	assert.Equal(t, "nav.xhtml", nav[0].Href)
}

func TestMetadata(t *testing.T) {
	book := openSample(t, sampleEntries())
	r, err := book.Rendition(0)
	require.NoError(t, err)
	md := r.Package.Metadata

	assert.Equal(t, []Creator{{Name: "Jane Doe", Role: "aut"}}, md.Creators())
	assert.Equal(t, []Identifier{{Value: "urn:uuid:12345", ID: "uid"}}, md.Identifiers())
	assert.Equal(t, "urn:uuid:12345", r.Package.UniqueID())

	modified, ok := md.Property("dcterms:modified")
	require.True(t, ok)
	assert.Equal(t, "2024-01-01T00:00:00Z", modified)

	_, ok = md.Property("role")
	assert.False(t, ok, "refining metas are not package properties")
	assert.Equal(t, "", md.Date())
}

func TestMetaField_Kind(t *testing.T) {
	tests := []struct {
		space, local string
		want         MetaKind
	}{
		{dcNamespace, "title", MetaTitle},
		{dcNamespace, "creator", MetaCreator},
		{"", "title", MetaUnknown},
		{"http://www.idpf.org/2007/opf", "meta", MetaMeta},
		{dcNamespace, "subject", MetaUnknown},
	}
	for _, tt := range tests {
		f := MetaField{}
		f.XMLName.Space, f.XMLName.Local = tt.space, tt.local
		assert.Equal(t, tt.want, f.Kind(), "%s %s", tt.space, tt.local)
	}
}
