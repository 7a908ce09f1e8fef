package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/tendant/qiniu-upload/pkg/storage"
)

type object struct {
	data        []byte
	contentType string
}

// Backend is an in-memory implementation of storage.BlobStore
type Backend struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects: make(map[string]object),
	}
}

// Put stores the content in memory
func (b *Backend) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[key] = object{data: data, contentType: contentType}
	return nil
}

// Get returns a reader over a copy of the stored bytes
func (b *Backend) Get(ctx context.Context, key string) (io.ReadCloser, *storage.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[key]
	if !ok {
		return nil, nil, storage.ErrNotFound
	}

	data := bytes.Clone(obj.data)
	meta := &storage.ObjectMeta{
		Key:         key,
		Size:        int64(len(data)),
		ContentType: obj.contentType,
	}
	return io.NopCloser(bytes.NewReader(data)), meta, nil
}

// Len returns the number of stored objects
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}
