package minio_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/quote-intake/pkg/quoteintake"
	miniostorage "github.com/tendant/quote-intake/pkg/quoteintake/storage/minio"
)

// fakeS3 answers the object PUT and GET requests the backend makes.
// Upload bodies may be aws-chunked, so only the content type is recorded.
type fakeS3 struct {
	mu           sync.Mutex
	contentTypes map[string]string
	objects      map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		_, _ = io.Copy(io.Discard, r.Body)
		f.contentTypes[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		body, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", f.contentTypes[r.URL.Path])
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, body)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newBackend(t *testing.T) (*miniostorage.Backend, *fakeS3) {
	t.Helper()
	fake := &fakeS3{contentTypes: map[string]string{}, objects: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	backend, err := miniostorage.New(context.Background(), miniostorage.Config{
		Endpoint:        u.Host,
		Bucket:          "quotes",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
	})
	require.NoError(t, err)
	return backend, fake
}

func TestMinioBackend_Put(t *testing.T) {
	backend, fake := newBackend(t)

	err := backend.Put(context.Background(), "quotes/2024-05-01/ab12cd34_roof.jpg", strings.NewReader("jpeg"), 4, "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", fake.contentTypes["/quotes/quotes/2024-05-01/ab12cd34_roof.jpg"])
}

func TestMinioBackend_Get(t *testing.T) {
	backend, fake := newBackend(t)
	fake.objects["/quotes/a.png"] = "png-bytes"
	fake.contentTypes["/quotes/a.png"] = "image/png"

	obj, err := backend.Get(context.Background(), "a.png")

	require.NoError(t, err)
	defer obj.Body.Close()
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, int64(9), obj.Size)
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestMinioBackend_GetNotFound(t *testing.T) {
	backend, _ := newBackend(t)

	_, err := backend.Get(context.Background(), "missing.jpg")

	assert.ErrorIs(t, err, quoteintake.ErrObjectNotFound)
}

func TestNew_Validation(t *testing.T) {
	_, err := miniostorage.New(context.Background(), miniostorage.Config{Bucket: "b"})
	assert.Error(t, err)

	_, err = miniostorage.New(context.Background(), miniostorage.Config{Endpoint: "localhost:9000"})
	assert.Error(t, err)
}
