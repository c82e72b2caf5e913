package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	store := NewDiskStore(t.TempDir())
	ctx := context.Background()

	err := store.Put(ctx, "spec-1/photo.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)

	ok, err := store.Exists(ctx, "spec-1/photo.png")
	require.NoError(t, err)
	assert.True(t, ok)

	data, contentType, err := store.Get(ctx, "spec-1/photo.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, "image/png", contentType)
}

func TestDiskStoreGetMissing(t *testing.T) {
	store := NewDiskStore(t.TempDir())

	_, _, err := store.Get(context.Background(), "nobody/gone.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := store.Exists(context.Background(), "nobody/gone.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDiskStoreRejectsTraversal(t *testing.T) {
	store := NewDiskStore(t.TempDir())
	ctx := context.Background()

	for _, path := range []string{
		"../outside.txt",
		"a/../../outside.txt",
		"/etc/passwd",
		"..",
		".",
		"",
	} {
		err := store.Put(ctx, path, "", []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidPath, "put %q", path)

		_, _, err = store.Get(ctx, path)
		assert.ErrorIs(t, err, ErrInvalidPath, "get %q", path)

		_, err = store.Exists(ctx, path)
		assert.ErrorIs(t, err, ErrInvalidPath, "exists %q", path)
	}
}

func TestDiskStoreContentTypeFallback(t *testing.T) {
	store := NewDiskStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "spec-1/blob", "", []byte("raw")))

	_, contentType, err := store.Get(ctx, "spec-1/blob")
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", contentType)
}

func TestDiskStoreOverwrite(t *testing.T) {
	store := NewDiskStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a/f.txt", "", []byte("one")))
	require.NoError(t, store.Put(ctx, "a/f.txt", "", []byte("two")))

	data, contentType, err := store.Get(ctx, "a/f.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), data)
	assert.True(t, strings.HasPrefix(contentType, "text/plain"))
}
