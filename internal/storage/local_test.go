package storage

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalStorage(t *testing.T) *LocalStorage {
	t.Helper()

	s, err := NewLocalStorage(LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func TestLocalStorage_PutGet(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx := context.Background()

	content := "fake jpeg bytes"
	err := s.Put(ctx, "photos/abc123.jpg", strings.NewReader(content), PutOptions{
		ContentType: "image/jpeg",
	})
	require.NoError(t, err)

	rc, info, err := s.Get(ctx, "photos/abc123.jpg")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
	assert.Equal(t, int64(len(content)), info.Size)
	assert.Equal(t, "image/jpeg", info.ContentType)
}

func TestLocalStorage_PutNoOverwrite(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "photos/dup.jpg", strings.NewReader("one"), PutOptions{}))

	err := s.Put(ctx, "photos/dup.jpg", strings.NewReader("two"), PutOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKeyExists)

	// Overwrite enabled replaces the content
	require.NoError(t, s.Put(ctx, "photos/dup.jpg", strings.NewReader("two"), PutOptions{Overwrite: true}))

	rc, _, err := s.Get(ctx, "photos/dup.jpg")
	require.NoError(t, err)
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	assert.Equal(t, "two", string(got))
}

func TestLocalStorage_PutMaxSize(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx := context.Background()

	err := s.Put(ctx, "photos/big.jpg", strings.NewReader("0123456789"), PutOptions{MaxSize: 5})
	require.Error(t, err)
	assert.True(t, IsTooLarge(err))

	// Rejected upload must not leave a partial file behind
	exists, err := s.Exists(ctx, "photos/big.jpg")
	require.NoError(t, err)
	assert.False(t, exists)

	// Exactly at the limit is accepted
	err = s.Put(ctx, "photos/ok.jpg", strings.NewReader("01234"), PutOptions{MaxSize: 5})
	require.NoError(t, err)
}

func TestLocalStorage_GetNotFound(t *testing.T) {
	s := newTestLocalStorage(t)

	_, _, err := s.Get(context.Background(), "photos/missing.jpg")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "Get", storageErr.Op)
	assert.Equal(t, "photos/missing.jpg", storageErr.Key)
}

func TestLocalStorage_DeleteIdempotent(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "photos/gone.jpg", strings.NewReader("x"), PutOptions{}))
	require.NoError(t, s.Delete(ctx, "photos/gone.jpg"))

	exists, err := s.Exists(ctx, "photos/gone.jpg")
	require.NoError(t, err)
	assert.False(t, exists)

	// Second delete of the same key is not an error
	require.NoError(t, s.Delete(ctx, "photos/gone.jpg"))
}

func TestLocalStorage_URL(t *testing.T) {
	s := newTestLocalStorage(t)

	url, err := s.URL(context.Background(), "photos/abc.jpg", 0)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/photos/abc.jpg", url)

	// Expiry is ignored for local storage
	url2, err := s.URL(context.Background(), "photos/abc.jpg", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, url, url2)
}

func TestLocalStorage_PathTraversal(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx := context.Background()

	keys := []string{
		"",
		"../etc/passwd",
		"photos/../../secret",
		"/etc/passwd",
	}

	for _, key := range keys {
		err := s.Put(ctx, key, strings.NewReader("x"), PutOptions{})
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q should be rejected", key)
	}
}
