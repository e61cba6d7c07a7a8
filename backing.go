package epub

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Source is an open, random-access view of a ZIP file.
type Source interface {
	io.ReaderAt
	io.Closer
	Size() int64
}

// Backing describes where an archive's bytes live. Open returns a fresh,
// independent Source on every call, which is what lets an Archive be cloned.
type Backing interface {
	Open() (Source, error)
	String() string
}

// MemoryBacking is a ZIP file resident in memory. The buffer is shared by
// every Source opened from it and must not be modified afterwards.
type MemoryBacking []byte

// Open returns a reader over the shared buffer.
func (m MemoryBacking) Open() (Source, error) {
	return memorySource{bytes.NewReader(m)}, nil
}

func (m MemoryBacking) String() string {
	return fmt.Sprintf("memory(%d bytes)", len(m))
}

type memorySource struct {
	*bytes.Reader
}

func (memorySource) Close() error { return nil }

// FileBacking is a ZIP file on disk, reopened for every Source.
type FileBacking string

// Open opens the file and records its current size.
func (f FileBacking) Open() (Source, error) {
	file, err := os.Open(string(f))
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	return &fileSource{File: file, size: info.Size()}, nil
}

func (f FileBacking) String() string { return string(f) }

type fileSource struct {
	*os.File
	size int64
}

func (f *fileSource) Size() int64 { return f.size }
