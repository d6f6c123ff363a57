package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	data := "hello world, this is a test blob"
	require.NoError(t, store.Put(ctx, "tables/a.blob", strings.NewReader(data), int64(len(data))))

	// Nested names become directories.
	_, err := os.Stat(filepath.Join(tmpDir, "tables", "a.blob"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(tmpDir, "tables", "a.blob"), store.Path("tables/a.blob"))

	rc, err := store.Get(ctx, "tables/a.blob")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, data, string(got))

	require.NoError(t, store.Put(ctx, "tables/b.blob", strings.NewReader("b"), 1))
	require.NoError(t, store.Put(ctx, "other.blob", strings.NewReader("c"), 1))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{"other.blob", "tables/a.blob", "tables/b.blob"}, names)

	names, err = store.List(ctx, "tables/")
	require.NoError(t, err)
	require.Equal(t, []string{"tables/a.blob", "tables/b.blob"}, names)

	require.NoError(t, store.Delete(ctx, "tables/a.blob"))
	require.NoError(t, store.Delete(ctx, "tables/a.blob"), "deleting twice")

	_, err = store.Get(ctx, "tables/a.blob")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_PutReplaces(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "x", strings.NewReader("first version"), -1))
	require.NoError(t, store.Put(ctx, "x", strings.NewReader("second"), -1))

	got, err := os.ReadFile(store.Path("x"))
	require.NoError(t, err)
	require.Equal(t, "second", string(got))
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "missing"))
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestLocalStore_CanceledContext(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, store.Put(ctx, "x", strings.NewReader("x"), 1), context.Canceled)
	_, err := store.Get(ctx, "x")
	require.ErrorIs(t, err, context.Canceled)
}
