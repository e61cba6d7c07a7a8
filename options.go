package epub

import "go.uber.org/zap"

// defaultStylesheet is the reader stylesheet linked into every XHTML asset.
const defaultStylesheet = "content.css"

// maxDecompressSize is the default limit for a single decompressed ZIP entry.
// This guards against zip bomb attacks. Defaults to 256 MB.
const maxDecompressSize int64 = 256 * 1024 * 1024

type options struct {
	logger       *zap.Logger
	maxEntrySize int64
	concurrency  int
	stylesheet   string
}

// Option configures archive loading, book loading, and asset resolution.
type Option func(*options)

// WithLogger sets the logger used for debug and warning output.
// The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxEntrySize limits the decompressed size of any single entry.
func WithMaxEntrySize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxEntrySize = n
		}
	}
}

// WithConcurrency bounds how many renditions load in parallel.
// Zero (the default) loads every rendition at once; 1 loads sequentially.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.concurrency = n
		}
	}
}

// WithStylesheet sets the file name of the stylesheet linked into XHTML assets.
func WithStylesheet(name string) Option {
	return func(o *options) {
		if name != "" {
			o.stylesheet = name
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:       zap.NewNop(),
		maxEntrySize: maxDecompressSize,
		stylesheet:   defaultStylesheet,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
