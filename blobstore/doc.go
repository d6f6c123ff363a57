// Package blobstore publishes frozen blobhash blobs to storage and fetches
// them back.
//
// A blob file is self-describing and relocatable, so any store that can hold
// bytes can hold a table: fetching one is a read followed by blobhash.OpenBytes
// (or a memory map for local files), with no rebuild step.
//
// # Built-in Implementations
//
//   - LocalStore: local file system with atomic writes and mmap on fetch
//   - MemoryStore: in-process map, for tests and caches
//   - s3.Store: Amazon S3 with multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// # Usage
//
//	store := blobstore.NewLocalStore("/var/lib/tables")
//	if err := blobstore.Publish(ctx, store, "users.blob", blob,
//	    blobhash.WithCompression(blobhash.CompressionZstd)); err != nil {
//	    return err
//	}
//	blob, err := blobstore.Fetch(ctx, store, "users.blob")
package blobstore
