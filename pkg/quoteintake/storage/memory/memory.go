package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/tendant/quote-intake/pkg/quoteintake"
)

// Backend is an in-memory implementation of the quoteintake.ObjectStore interface
type Backend struct {
	mu           sync.RWMutex
	objects      map[string][]byte
	contentTypes map[string]string
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

// Put stores the content under key, replacing any previous object
func (b *Backend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read object body: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[key] = data
	b.contentTypes[key] = contentType
	return nil
}

// Get returns the object stored under key
func (b *Backend) Get(ctx context.Context, key string) (*quoteintake.Object, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[key]
	if !exists {
		return nil, quoteintake.ErrObjectNotFound
	}

	return &quoteintake.Object{
		Key:         key,
		ContentType: b.contentTypes[key],
		Size:        int64(len(data)),
		Body:        io.NopCloser(bytes.NewReader(data)),
	}, nil
}

// Keys returns the stored keys in no particular order
func (b *Backend) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		keys = append(keys, k)
	}
	return keys
}
