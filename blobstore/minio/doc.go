// Package minio provides a blobstore.Store for MinIO and other
// S3-compatible object stores, built on minio-go.
//
// # Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds: credentials.NewStaticV4(accessKey, secretKey, ""),
//	})
//	store := blobminio.NewStore(client, "tables", "prod/")
package minio
