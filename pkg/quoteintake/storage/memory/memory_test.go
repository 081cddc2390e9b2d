package memory_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/quote-intake/pkg/quoteintake"
	memorystorage "github.com/tendant/quote-intake/pkg/quoteintake/storage/memory"
)

func TestMemoryBackend(t *testing.T) {
	backend := memorystorage.New()
	ctx := context.Background()
	testKey := "quotes/2024-05-01/ab12cd34_roof.jpg"
	testData := "not really a jpeg"

	t.Run("Put", func(t *testing.T) {
		err := backend.Put(ctx, testKey, strings.NewReader(testData), int64(len(testData)), "image/jpeg")
		assert.NoError(t, err)
	})

	t.Run("Get", func(t *testing.T) {
		obj, err := backend.Get(ctx, testKey)
		require.NoError(t, err)
		defer obj.Body.Close()

		assert.Equal(t, testKey, obj.Key)
		assert.Equal(t, "image/jpeg", obj.ContentType)
		assert.Equal(t, int64(len(testData)), obj.Size)

		data, err := io.ReadAll(obj.Body)
		assert.NoError(t, err)
		assert.Equal(t, testData, string(data))
	})

	t.Run("Overwrite", func(t *testing.T) {
		err := backend.Put(ctx, testKey, strings.NewReader("v2"), 2, "image/png")
		require.NoError(t, err)

		obj, err := backend.Get(ctx, testKey)
		require.NoError(t, err)
		assert.Equal(t, "image/png", obj.ContentType)
		assert.Equal(t, int64(2), obj.Size)
	})

	t.Run("NotFound", func(t *testing.T) {
		obj, err := backend.Get(ctx, "quotes/missing.jpg")
		assert.ErrorIs(t, err, quoteintake.ErrObjectNotFound)
		assert.Nil(t, obj)
	})

	assert.ElementsMatch(t, []string{testKey}, backend.Keys())
}

func TestMemoryBackendConcurrency(t *testing.T) {
	backend := memorystorage.New()
	ctx := context.Background()

	const numGoroutines = 10
	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("quotes/concurrent/%d.jpg", i)
			data := fmt.Sprintf("data-%d", i)
			assert.NoError(t, backend.Put(ctx, key, strings.NewReader(data), int64(len(data)), "image/jpeg"))

			obj, err := backend.Get(ctx, key)
			if assert.NoError(t, err) {
				got, _ := io.ReadAll(obj.Body)
				assert.Equal(t, data, string(got))
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, backend.Keys(), numGoroutines)
}
