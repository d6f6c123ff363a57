package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamirms/blobhash/blobstore"
)

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NotFound"}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("connection refused")))
}

func TestStoreKeys(t *testing.T) {
	s := NewStore(nil, "b", "/tables/")
	assert.Equal(t, "tables/x.blob", s.key("x.blob"))
	assert.Equal(t, "x.blob", NewStore(nil, "b", "").key("x.blob"))

	err := s.wrap("get", "x.blob", minio.ErrorResponse{Code: "NoSuchKey"})
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := "localhost:9000"
	bucket := "test-blobhash"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewStore(client, bucket, "test-prefix/")

	data := "hello minio world"
	require.NoError(t, store.Put(ctx, "known.blob", strings.NewReader(data), int64(len(data))))
	require.NoError(t, store.Put(ctx, "streamed.blob", strings.NewReader(data), -1))

	for _, name := range []string{"known.blob", "streamed.blob"} {
		rc, err := store.Get(ctx, name)
		require.NoError(t, err, name)
		got, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, data, string(got), name)
	}

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Subset(t, names, []string{"known.blob", "streamed.blob"})

	for _, name := range names {
		require.NoError(t, store.Delete(ctx, name), fmt.Sprint("delete ", name))
	}
	_, err = store.Get(ctx, "known.blob")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
