package epub

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/simp-lee/bene/annotation"
)

// SupportedVersion is the only package document version accepted by LoadEpub.
const SupportedVersion = "3.0"

// Epub is the loaded book model: one Rendition per rootfile, in the order
// container.xml lists them.
type Epub struct {
	Renditions []*Rendition
}

// LoadEpub reads the container manifest of a and loads every rendition it
// lists. Each rendition is read through its own clone of a, concurrently
// unless WithConcurrency(1) is given; the result does not depend on the
// order in which they finish. If any rendition fails to load or declares a
// version other than SupportedVersion, no Epub is returned.
func LoadEpub(ctx context.Context, a *Archive, opts ...Option) (*Epub, error) {
	o := buildOptions(opts)

	c, err := LoadContainer(a)
	if err != nil {
		return nil, err
	}
	if err := checkEncryption(a, o.logger); err != nil {
		return nil, err
	}
	if len(c.Rootfiles) == 0 {
		return nil, pathError("load", containerPath, ErrSchema, errors.New("no rootfile entries"))
	}

	renditions := make([]*Rendition, len(c.Rootfiles))
	g, ctx := errgroup.WithContext(ctx)
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}
	for i, rf := range c.Rootfiles {
		i, rf := i, rf // per-iteration copies; go directive is pinned below 1.22
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			clone, err := a.TryClone()
			if err != nil {
				return err
			}
			defer clone.Close()

			r, err := LoadRendition(clone, rf)
			if err != nil {
				return errors.WithMessagef(err, "epub: rendition %d", i)
			}
			o.logger.Debug("rendition loaded",
				zap.Int("index", i),
				zap.String("package", rf.FullPath),
				zap.String("version", r.Package.Version))
			renditions[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, r := range renditions {
		if r.Package.Version != SupportedVersion {
			return nil, pathError("load", r.PackagePath, ErrFormat,
				errors.Errorf("rendition %d has unsupported version %q (want %q)", i, r.Package.Version, SupportedVersion))
		}
	}
	return &Epub{Renditions: renditions}, nil
}

// Book is an open ePub: its archive plus the loaded model.
//
// A Book is not safe for concurrent use by multiple goroutines; clone the
// archive (Archive.TryClone, ArchivePool) for parallel asset reads.
type Book struct {
	archive *Archive
	epub    *Epub
	opts    options
}

// RenditionSummary describes one rendition for a table-of-contents view.
type RenditionSummary struct {
	Index       int
	Root        string
	PackagePath string
	Version     string
	Title       string
	Language    string
	UniqueID    string
	ItemCount   int
	SpineCount  int
}

// Open opens the archive held by b and loads its book model.
// The caller must call Close when done reading from the book.
func Open(ctx context.Context, b Backing, opts ...Option) (*Book, error) {
	o := buildOptions(opts)
	a, err := loadArchive(b, o)
	if err != nil {
		return nil, err
	}
	e, err := LoadEpub(ctx, a, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	return &Book{archive: a, epub: e, opts: o}, nil
}

// OpenFile opens an ePub file at the given path.
func OpenFile(ctx context.Context, path string, opts ...Option) (*Book, error) {
	return Open(ctx, FileBacking(path), opts...)
}

// OpenBytes opens an ePub held in memory. data must not be modified afterwards.
func OpenBytes(ctx context.Context, data []byte, opts ...Option) (*Book, error) {
	return Open(ctx, MemoryBacking(data), opts...)
}

// Close releases the archive. Close is idempotent.
func (b *Book) Close() error {
	return b.archive.Close()
}

// Epub returns the loaded model.
func (b *Book) Epub() *Epub { return b.epub }

// Archive returns the archive the book was loaded from.
func (b *Book) Archive() *Archive { return b.archive }

// Rendition returns the rendition at index i.
func (b *Book) Rendition(i int) (*Rendition, error) {
	if i < 0 || i >= len(b.epub.Renditions) {
		return nil, errors.Wrapf(ErrNotFound, "epub: rendition %d (have %d)", i, len(b.epub.Renditions))
	}
	return b.epub.Renditions[i], nil
}

// Renditions summarises every rendition in listing order.
func (b *Book) Renditions() []RenditionSummary {
	out := make([]RenditionSummary, 0, len(b.epub.Renditions))
	for i, r := range b.epub.Renditions {
		md := r.Package.Metadata
		s := RenditionSummary{
			Index:       i,
			Root:        r.Root,
			PackagePath: r.PackagePath,
			Version:     r.Package.Version,
			UniqueID:    r.Package.UniqueID(),
			ItemCount:   len(r.Package.Manifest.Items),
			SpineCount:  len(r.Package.Spine.ItemRefs),
		}
		if titles := md.Titles(); len(titles) > 0 {
			s.Title = titles[0]
		}
		if langs := md.Languages(); len(langs) > 0 {
			s.Language = langs[0]
		}
		out = append(out, s)
	}
	return out
}

// ResolveAsset loads a file of rendition i by its rendition-relative path
// and returns it with a content-type hint.
func (b *Book) ResolveAsset(i int, logical string) ([]byte, string, error) {
	r, err := b.Rendition(i)
	if err != nil {
		return nil, "", err
	}
	data, err := loadAsset(r, b.archive, logical, b.opts)
	if err != nil {
		return nil, "", err
	}
	return data, ContentType(logical, data), nil
}

// Navigation parses the navigation document of rendition i.
func (b *Book) Navigation(i int) (*Navigation, error) {
	r, err := b.Rendition(i)
	if err != nil {
		return nil, err
	}
	return r.Navigation(b.archive)
}

// LoadAnnotations reads and normalizes the annotations of rendition i.
func (b *Book) LoadAnnotations(i int) ([]annotation.Annotation, error) {
	r, err := b.Rendition(i)
	if err != nil {
		return nil, err
	}
	return LoadAnnotations(b.archive, r)
}
