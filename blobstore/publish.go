package blobstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/tamirms/blobhash"
)

// Publish encodes b as a blob file and stores it under name.
func Publish(ctx context.Context, s Store, name string, b *blobhash.Blob, opts ...blobhash.WriteOption) error {
	var buf bytes.Buffer
	if _, err := b.Encode(&buf, opts...); err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}
	if err := s.Put(ctx, name, &buf, int64(buf.Len())); err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}
	return nil
}

// Fetch loads the blob file stored under name. Files of a Pather store are
// opened with blobhash.Open, so uncompressed blobs are memory-mapped; other
// stores are read into memory.
func Fetch(ctx context.Context, s Store, name string, opts ...blobhash.BlobOption) (*blobhash.Blob, error) {
	if p, ok := s.(Pather); ok {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := blobhash.Open(p.Path(name), opts...)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", name, err)
		}
		return b, nil
	}

	rc, err := s.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	b, err := blobhash.ReadBlob(rc, opts...)
	if cerr := rc.Close(); cerr != nil && err == nil {
		b.Close()
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	return b, nil
}
