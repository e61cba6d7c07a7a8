package epub

import (
	"github.com/pkg/errors"
)

// Sentinel errors returned by the epub package. Every error produced while
// reading an archive wraps exactly one of these, so callers classify
// failures with errors.Is.
var (
	// ErrIO indicates the backing store (file or buffer) could not be read.
	ErrIO = errors.New("epub: backing store unreadable")

	// ErrFormat indicates the archive is not a valid ZIP file, an entry
	// exceeds the size limit, or a package declares an unsupported version.
	ErrFormat = errors.New("epub: invalid format")

	// ErrNotFound indicates a path, manifest id, or rendition is absent.
	ErrNotFound = errors.New("epub: not found")

	// ErrEncoding indicates text content is not valid UTF-8.
	ErrEncoding = errors.New("epub: invalid UTF-8")

	// ErrSchema indicates well-formed input that does not match the
	// expected document shape.
	ErrSchema = errors.New("epub: schema mismatch")

	// ErrParse indicates content markup that could not be tokenized.
	ErrParse = errors.New("epub: parse failure")

	// ErrDRMProtected indicates the ePub file is protected by DRM
	// (e.g., Adobe ADEPT, Apple FairPlay, Readium LCP) and cannot be read.
	ErrDRMProtected = errors.Wrap(ErrFormat, "epub: file is DRM protected")
)

// PathError records the archive path and operation that failed.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error { return e.Err }

// pathError wraps cause under kind so that errors.Is matches both.
func pathError(op, path string, kind, cause error) error {
	err := kind
	if cause != nil {
		err = &kindError{kind: kind, cause: cause}
	}
	return &PathError{Op: op, Path: path, Err: err}
}

// kindError pairs a taxonomy sentinel with the underlying cause.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string { return e.kind.Error() + ": " + e.cause.Error() }

func (e *kindError) Unwrap() []error { return []error{e.kind, e.cause} }
