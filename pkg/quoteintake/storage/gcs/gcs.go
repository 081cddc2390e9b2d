package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/tendant/quote-intake/pkg/quoteintake"
)

// Config options for the Google Cloud Storage backend
type Config struct {
	Bucket          string
	CredentialsFile string // Optional; application default credentials otherwise
	Endpoint        string // Optional; for emulators
}

// Bucket is the subset of bucket operations the backend needs
type Bucket interface {
	NewWriter(ctx context.Context, key, contentType string) io.WriteCloser
	NewReader(ctx context.Context, key string) (body io.ReadCloser, contentType string, size int64, err error)
}

// Backend is a Google Cloud Storage implementation of the quoteintake.ObjectStore interface
type Backend struct {
	bucket Bucket
	client *storage.Client
}

// New creates a new GCS storage backend
func New(ctx context.Context, config Config) (*Backend, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	var opts []option.ClientOption
	if config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}
	if config.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(config.Endpoint), option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &Backend{
		bucket: bucketHandle{client.Bucket(config.Bucket)},
		client: client,
	}, nil
}

// NewWithBucket wires a backend around an existing bucket
func NewWithBucket(bucket Bucket) *Backend {
	return &Backend{bucket: bucket}
}

// Close releases the underlying client
func (b *Backend) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

// Put uploads content to the bucket
func (b *Backend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	w := b.bucket.NewWriter(ctx, key, contentType)
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	// The upload is only committed by Close
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// Get downloads an object from the bucket
func (b *Backend) Get(ctx context.Context, key string) (*quoteintake.Object, error) {
	body, contentType, size, err := b.bucket.NewReader(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, quoteintake.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to read object: %w", err)
	}

	return &quoteintake.Object{
		Key:         key,
		ContentType: contentType,
		Size:        size,
		Body:        body,
	}, nil
}

type bucketHandle struct {
	handle *storage.BucketHandle
}

func (h bucketHandle) NewWriter(ctx context.Context, key, contentType string) io.WriteCloser {
	w := h.handle.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	return w
}

func (h bucketHandle) NewReader(ctx context.Context, key string) (io.ReadCloser, string, int64, error) {
	r, err := h.handle.Object(key).NewReader(ctx)
	if err != nil {
		return nil, "", 0, err
	}
	return r, r.Attrs.ContentType, r.Attrs.Size, nil
}
