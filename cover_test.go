package epub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coverBook(t *testing.T, metadata, manifest, spine string, extra ...zipEntry) *Book {
	t.Helper()
	entries := []zipEntry{
		{Name: "META-INF/container.xml", Body: containerXML("OEBPS/content.opf")},
		{Name: "OEBPS/content.opf", Body: packageXML(testPackage{Metadata: metadata, Manifest: manifest, Spine: spine})},
		{Name: "OEBPS/img/front.jpg", Body: "front"},
		{Name: "OEBPS/img/other.jpg", Body: "other"},
	}
	return openSample(t, append(entries, extra...))
}

func TestRendition_Cover(t *testing.T) {
	const page = `<html xmlns="http://www.w3.org/1999/xhtml"><body><div><img src="../img/front.jpg" alt=""/></div></body></html>`
	const svgPage = `<html xmlns="http://www.w3.org/1999/xhtml"><body><svg xmlns:xlink="http://www.w3.org/1999/xlink"><image xlink:href="../img/front.jpg"/></svg></body></html>`

	tests := []struct {
		name     string
		metadata string
		manifest string
		spine    string
		extra    []zipEntry
	}{
		{
			name: "cover-image property",
			manifest: `<item id="a" href="img/other.jpg" media-type="image/jpeg"/>
				<item id="b" href="img/front.jpg" media-type="image/jpeg" properties="cover-image"/>`,
		},
		{
			name:     "meta naming an image",
			metadata: `<meta name="cover" content="img1"/>`,
			manifest: `<item id="img1" href="img/front.jpg" media-type="image/jpeg"/>`,
		},
		{
			name:     "meta naming a cover page",
			metadata: `<meta name="cover" content="page"/>`,
			manifest: `<item id="page" href="text/cover.xhtml" media-type="application/xhtml+xml"/>
				<item id="img1" href="img/front.jpg" media-type="image/jpeg"/>`,
			extra: []zipEntry{{Name: "OEBPS/text/cover.xhtml", Body: page}},
		},
		{
			name:     "name heuristic",
			manifest: `<item id="cover-jpg" href="img/front.jpg" media-type="image/jpeg"/>`,
		},
		{
			name: "first spine document",
			manifest: `<item id="p1" href="text/p1.xhtml" media-type="application/xhtml+xml"/>
				<item id="i" href="img/front.jpg" media-type="image/jpeg"/>`,
			spine: `<itemref idref="p1"/>`,
			extra: []zipEntry{{Name: "OEBPS/text/p1.xhtml", Body: svgPage}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book := coverBook(t, tt.metadata, tt.manifest, tt.spine, tt.extra...)
			r, err := book.Rendition(0)
			require.NoError(t, err)

			cover, err := r.Cover(book.Archive())
			require.NoError(t, err)
			assert.Equal(t, "OEBPS/img/front.jpg", cover.Path)
			assert.Equal(t, "image/jpeg", cover.MediaType)
			assert.Equal(t, "front", string(cover.Data))
		})
	}
}

func TestRendition_CoverNotFound(t *testing.T) {
	book := coverBook(t, "", `<item id="a" href="img/other.jpg" media-type="image/jpeg"/>`, "")
	r, err := book.Rendition(0)
	require.NoError(t, err)

	_, err = r.Cover(book.Archive())
	assert.ErrorIs(t, err, ErrNotFound)
}
