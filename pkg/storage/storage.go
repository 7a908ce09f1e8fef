// Package storage defines the blob store the development upload server
// writes accepted files to. Backends live in the memory, fs and s3
// subpackages.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when an object key does not exist
var ErrNotFound = errors.New("storage: object not found")

// ObjectMeta describes a stored object
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
}

// BlobStore stores uploaded objects by key
type BlobStore interface {
	// Put stores the content of r under key, replacing any existing object
	Put(ctx context.Context, key string, r io.Reader, contentType string) error

	// Get opens the object stored under key. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, *ObjectMeta, error)
}
