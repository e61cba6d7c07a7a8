package epub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simp-lee/bene/annotation"
	"github.com/simp-lee/bene/cfi"
)

func TestBook_LoadAnnotations(t *testing.T) {
	book := openSample(t, sampleEntries())

	annots, err := book.LoadAnnotations(0)
	require.NoError(t, err)
	require.Len(t, annots, 1)
	assert.Equal(t, cfi.MustParse("epubcfi(/6/4!/4/2,/1:0,/1:5)"), annots[0].Selector)
	require.NotNil(t, annots[0].Body)
	assert.Equal(t, "remember this", *annots[0].Body)
}

func TestLoadAnnotations_ManifestOrder(t *testing.T) {
	entries := replaceEntry(sampleEntries(), "OEBPS/content.opf", packageXML(testPackage{
		Manifest: `
    <item id="n2" href="b.json" media-type="application/json" properties="annotations"/>
    <item id="n1" href="a.json" media-type="application/json" properties="annotations"/>`,
	}))
	entries = append(entries,
		zipEntry{Name: "OEBPS/a.json", Body: `{"type": "AnnotationPage", "items": [{"id": "a", "target": "x#epubcfi(/2)"}]}`},
		zipEntry{Name: "OEBPS/b.json", Body: `{"id": "b", "bodyValue": "B", "target": "x#epubcfi(/4)"}`},
	)
	book := openSample(t, entries)
	r, err := book.Rendition(0)
	require.NoError(t, err)

	annots, err := LoadAnnotations(book.Archive(), r)
	require.NoError(t, err)
	require.Len(t, annots, 2)
	assert.Equal(t, []uint32{4}, annots[0].Selector.Path.Steps())
	assert.Equal(t, []uint32{2}, annots[1].Selector.Path.Steps())
	assert.Nil(t, annots[1].Body)
}

func TestLoadAnnotations_NoItems(t *testing.T) {
	entries := replaceEntry(sampleEntries(), "OEBPS/content.opf", packageXML(testPackage{}))
	book := openSample(t, entries)

	annots, err := book.LoadAnnotations(0)
	require.NoError(t, err)
	assert.NotNil(t, annots)
	assert.Empty(t, annots)
}

func TestLoadAnnotations_Errors(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		book := openSample(t, replaceEntry(sampleEntries(), "OEBPS/notes.json", `{"id": `))
		_, err := book.LoadAnnotations(0)
		assert.ErrorIs(t, err, ErrSchema)
	})

	t.Run("unsupported shape", func(t *testing.T) {
		book := openSample(t, replaceEntry(sampleEntries(), "OEBPS/notes.json",
			`[{"id": "ok", "target": "x#epubcfi(/2)"}, {"id": "css", "target": {"source": "x", "selector": {"type": "CssSelector", "value": "p"}}}]`))
		_, err := book.LoadAnnotations(0)
		assert.ErrorIs(t, err, annotation.ErrUnsupportedShape)

		var aerr *annotation.Error
		require.ErrorAs(t, err, &aerr)
		assert.Equal(t, 1, aerr.Index)
		assert.Equal(t, "css", aerr.ID)
	})

	t.Run("bad cfi", func(t *testing.T) {
		book := openSample(t, replaceEntry(sampleEntries(), "OEBPS/notes.json",
			`{"id": "bad", "target": "x#epubcfi(/6/4"}`))
		_, err := book.LoadAnnotations(0)
		assert.ErrorIs(t, err, annotation.ErrParse)
	})

	t.Run("bare IRI with bracketed cfi", func(t *testing.T) {
		book := openSample(t, replaceEntry(sampleEntries(), "OEBPS/notes.json",
			`{"id": "bare", "target": "text/ch1.xhtml#epubcfi(/6/2[pageref]!/4)"}`))
		_, err := book.LoadAnnotations(0)
		assert.ErrorIs(t, err, ErrSchema)
		assert.ErrorIs(t, err, annotation.ErrInvalidIRI)
	})

	t.Run("missing item file", func(t *testing.T) {
		var entries []zipEntry
		for _, e := range sampleEntries() {
			if e.Name != "OEBPS/notes.json" {
				entries = append(entries, e)
			}
		}
		book := openSample(t, entries)
		_, err := book.LoadAnnotations(0)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
