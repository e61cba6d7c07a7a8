package epub

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ArchivePool hands out independent Archive clones for concurrent readers.
// Every clone is created up front; Acquire never opens the backing.
type ArchivePool struct {
	free   chan *Archive
	clones []*Archive
}

// NewArchivePool clones a size times. a itself is not added to the pool.
func NewArchivePool(a *Archive, size int) (*ArchivePool, error) {
	if size < 1 {
		return nil, errors.Errorf("epub: archive pool size must be positive, got %d", size)
	}
	p := &ArchivePool{free: make(chan *Archive, size)}
	for i := 0; i < size; i++ {
		clone, err := a.TryClone()
		if err != nil {
			p.Close()
			return nil, errors.WithMessagef(err, "epub: clone %d of %d", i+1, size)
		}
		p.clones = append(p.clones, clone)
		p.free <- clone
	}
	return p, nil
}

// Acquire waits for a free clone or for ctx to end.
func (p *ArchivePool) Acquire(ctx context.Context) (*Archive, error) {
	select {
	case a := <-p.free:
		return a, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a clone obtained from Acquire.
func (p *ArchivePool) Release(a *Archive) {
	p.free <- a
}

// Size reports the number of clones owned by the pool.
func (p *ArchivePool) Size() int { return len(p.clones) }

// Close closes every clone. Clones still acquired must not be used afterwards.
func (p *ArchivePool) Close() error {
	var err error
	for _, a := range p.clones {
		err = multierr.Append(err, a.Close())
	}
	p.clones = nil
	return err
}
