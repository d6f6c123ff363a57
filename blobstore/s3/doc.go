// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", s3.WithPrefix("tables/"))
//	if err != nil {
//	    return err
//	}
//	err = blobstore.Publish(ctx, store, "users.blob", blob)
//
// # Features
//
//   - Streaming multipart uploads through the SDK upload manager
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
