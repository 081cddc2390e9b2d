package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tendant/quote-intake/pkg/quoteintake"
)

const metaSuffix = ".meta.json"

// ErrInvalidKey is returned for keys that would resolve outside the base directory
var ErrInvalidKey = errors.New("invalid object key")

// Backend is a filesystem implementation of the quoteintake.ObjectStore interface.
// Each object is a plain file; its content type lives in a sidecar
// "<key>.meta.json" file next to it.
type Backend struct {
	baseDir string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir string // Base directory for storing files
}

type objectMeta struct {
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{baseDir: config.BaseDir}, nil
}

func (b *Backend) path(key string) (string, error) {
	if key == "" || !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", ErrInvalidKey
	}
	return filepath.Join(b.baseDir, filepath.FromSlash(key)), nil
}

// Put writes the content to the filesystem
func (b *Backend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	filePath, err := b.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, r)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	meta, err := json.Marshal(objectMeta{ContentType: contentType, Size: written})
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := os.WriteFile(filePath+metaSuffix, meta, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// Get opens the stored file. A missing sidecar leaves ContentType empty.
func (b *Backend) Get(ctx context.Context, key string) (*quoteintake.Object, error) {
	filePath, err := b.path(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", quoteintake.ErrObjectNotFound, err)
	}

	file, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return nil, quoteintake.ErrObjectNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, quoteintake.ErrObjectNotFound
	}

	obj := &quoteintake.Object{
		Key:  key,
		Size: info.Size(),
		Body: file,
	}
	if raw, err := os.ReadFile(filePath + metaSuffix); err == nil {
		var meta objectMeta
		if json.Unmarshal(raw, &meta) == nil {
			obj.ContentType = meta.ContentType
		}
	}

	return obj, nil
}
