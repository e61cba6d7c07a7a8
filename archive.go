package epub

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"io/fs"
	"strings"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Archive is a random-access reader over a ZIP container. The entry index is
// built once by LoadArchive and never modified afterwards.
//
// An Archive is not safe for concurrent use by multiple goroutines. Use
// TryClone or an ArchivePool to obtain independent cursors.
type Archive struct {
	backing Backing
	opts    options
	src     Source
	zip     *zip.Reader
	index   map[string]*zip.File
}

// LoadArchive opens b and indexes its central directory.
func LoadArchive(b Backing, opts ...Option) (*Archive, error) {
	return loadArchive(b, buildOptions(opts))
}

func loadArchive(b Backing, o options) (*Archive, error) {
	src, err := b.Open()
	if err != nil {
		return nil, pathError("open", b.String(), ErrIO, err)
	}

	zr, err := zip.NewReader(src, src.Size())
	if err != nil {
		src.Close()
		if errors.As(err, new(*fs.PathError)) {
			return nil, pathError("open", b.String(), ErrIO, err)
		}
		return nil, pathError("open", b.String(), ErrFormat, err)
	}
	registerDecompressors(zr)

	a := &Archive{
		backing: b,
		opts:    o,
		src:     src,
		zip:     zr,
	}
	a.buildIndex()
	o.logger.Debug("archive loaded",
		zap.Stringer("backing", b),
		zap.Int("entries", len(zr.File)))
	return a, nil
}

// buildIndex maps each entry name, verbatim, to its entry. When the central
// directory lists a name more than once the first entry wins.
func (a *Archive) buildIndex() {
	a.index = make(map[string]*zip.File, len(a.zip.File))
	for _, f := range a.zip.File {
		if _, exists := a.index[f.Name]; !exists {
			a.index[f.Name] = f
		}
	}
}

// TryClone reopens the backing and rebuilds the index, returning an Archive
// that shares no cursor state with a. It fails if e.g. the file on disk was
// removed after a was loaded.
func (a *Archive) TryClone() (*Archive, error) {
	return loadArchive(a.backing, a.opts)
}

// Close releases the backing handle. Close is idempotent.
func (a *Archive) Close() error {
	if a.src == nil {
		return nil
	}
	err := a.src.Close()
	a.src = nil
	return err
}

// Files returns entry names in central-directory order, duplicates included.
func (a *Archive) Files() []string {
	names := make([]string, 0, len(a.zip.File))
	for _, f := range a.zip.File {
		names = append(names, f.Name)
	}
	return names
}

// Has reports whether name is an entry in the archive.
func (a *Archive) Has(name string) bool {
	_, ok := a.index[name]
	return ok
}

// ReadFile decompresses the entry stored under name into a new buffer.
// Names are matched exactly; nothing is cached between calls.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	f, ok := a.index[name]
	if !ok {
		return nil, pathError("read", name, ErrNotFound, nil)
	}
	a.opts.logger.Debug("reading archive entry", zap.String("path", name))

	data, err := readZipFileWithLimit(f, a.opts.maxEntrySize)
	if err != nil {
		if errors.As(err, new(*fs.PathError)) {
			return nil, pathError("read", name, ErrIO, err)
		}
		return nil, pathError("read", name, ErrFormat, err)
	}
	return data, nil
}

// ReadText reads name and checks that it is valid UTF-8.
func (a *Archive) ReadText(name string) (string, error) {
	data, err := a.ReadFile(name)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", pathError("decode", name, ErrEncoding, nil)
	}
	return string(data), nil
}

// ReadXML decodes the entry stored under name into v and returns the raw
// document text alongside it.
func (a *Archive) ReadXML(name string, v any) (string, error) {
	text, err := a.ReadText(name)
	if err != nil {
		return "", err
	}

	d := xml.NewDecoder(strings.NewReader(string(stripBOM([]byte(text)))))
	d.Entity = xml.HTMLEntity
	// The bytes were validated as UTF-8 above; a stale encoding
	// declaration must not trigger transcoding.
	d.CharsetReader = func(_ string, in io.Reader) (io.Reader, error) { return in, nil }
	if err := d.Decode(v); err != nil {
		return "", pathError("decode xml", name, ErrSchema, err)
	}
	return text, nil
}

// ReadJSON decodes the entry stored under name into v.
func (a *Archive) ReadJSON(name string, v any) error {
	text, err := a.ReadText(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(stripBOM([]byte(text)), v); err != nil {
		return pathError("decode json", name, ErrSchema, err)
	}
	return nil
}
