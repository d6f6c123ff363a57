package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations return an error that satisfies errors.Is(err, ErrNotFound).
// It is os.ErrNotExist so that file system errors match without wrapping.
var ErrNotFound = os.ErrNotExist

// Store holds named, immutable blob files.
type Store interface {
	// Put stores the contents of r under name, replacing any previous
	// object. size is the number of bytes r yields, or -1 if unknown.
	Put(ctx context.Context, name string, r io.Reader, size int64) error

	// Get opens the named object for reading.
	Get(ctx context.Context, name string) (io.ReadCloser, error)

	// Delete removes the named object. Deleting a missing object is not
	// an error.
	Delete(ctx context.Context, name string) error

	// List returns the names starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Pather is implemented by stores whose objects are local files.
// Fetch memory-maps such files instead of reading them.
type Pather interface {
	Path(name string) string
}
