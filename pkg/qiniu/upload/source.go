package upload

import (
	"io"
	"os"
	"path/filepath"
)

// Source is the content of one upload. Callers pick the concrete kind:
// File for a path on disk, Reader for an already opened stream.
type Source interface {
	// Name is the file name sent in the multipart "file" part
	Name() string

	// Open returns the content to send. The caller closes it.
	Open() (io.ReadCloser, error)
}

// File is a Source read from a local path
type File string

// Name returns the base name of the path
func (f File) Name() string {
	return filepath.Base(string(f))
}

// Open opens the file for reading
func (f File) Open() (io.ReadCloser, error) {
	return os.Open(string(f))
}

type readerSource struct {
	name string
	r    io.Reader
}

// Reader wraps an opened stream as a Source. The stream is consumed by the
// first upload and is not closed by the client.
func Reader(name string, r io.Reader) Source {
	return &readerSource{name: name, r: r}
}

func (s *readerSource) Name() string {
	return s.name
}

func (s *readerSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(s.r), nil
}
