package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccsmith33/GroupProject2-sub001/pkg/config"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestLocalStore_UploadDownload(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	content := []byte("lecture notes")
	require.NoError(t, store.Upload(ctx, "user-1/notes.txt", content, "text/plain"))

	got, err := store.Download(ctx, "user-1/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLocalStore_DownloadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Download(context.Background(), "missing.txt")
	require.Error(t, err)
}

func TestLocalStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "a.txt", []byte("x"), "text/plain"))
	require.NoError(t, store.Delete(ctx, "a.txt"))

	_, err := store.Download(ctx, "a.txt")
	require.Error(t, err)
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	keys := []string{
		"../outside.txt",
		"../../etc/passwd",
		"nested/../../outside.txt",
	}
	for _, key := range keys {
		assert.Error(t, store.Upload(ctx, key, []byte("x"), ""), "key %q", key)

		_, err := store.Download(ctx, key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestLocalStore_RejectsEmptyKey(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Download(context.Background(), "")
	require.Error(t, err)
}

func TestLocalStore_Localize(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "doc.txt", []byte("body"), "text/plain"))

	path, cleanup, err := store.Localize(ctx, "doc.txt")
	require.NoError(t, err)
	defer cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("body"), data)
}

func TestLocalStore_LocalizeMissing(t *testing.T) {
	store := newTestStore(t)

	_, cleanup, err := store.Localize(context.Background(), "nope.txt")
	require.Error(t, err)
	require.NotNil(t, cleanup)
	cleanup()
}

func TestNewStore_Backends(t *testing.T) {
	local, err := NewStore(config.StorageConfig{
		Backend: config.StorageBackendLocal,
		Path:    filepath.Join(t.TempDir(), "uploads"),
	})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, local)

	_, err = NewStore(config.StorageConfig{Backend: "ftp"})
	require.Error(t, err)
}

func TestNewLocalStore_EmptyPath(t *testing.T) {
	_, err := NewLocalStore("")
	require.Error(t, err)
}
