// Package errors defines all exported error sentinels for the blobhash library.
//
// This is the single source of truth for error values. The top-level
// blobhash package, the arena and the blob stores all import from here,
// ensuring errors.Is checks work across package boundaries.
package errors

import "errors"

// Build errors
var (
	ErrInvalidConfiguration = errors.New("blobhash: invalid configuration")
	ErrCapacityExceeded     = errors.New("blobhash: table capacity exceeded")
	ErrDuplicateKey         = errors.New("blobhash: an item with the same key already exists")
	ErrBuilderClosed        = errors.New("blobhash: builder is closed")
	ErrUnencodable          = errors.New("blobhash: value cannot be encoded by codec")
)

// Arena errors
var (
	ErrArenaFrozen      = errors.New("blobhash: arena is frozen")
	ErrInvalidAlloc     = errors.New("blobhash: allocation size must be greater than zero")
	ErrRegionOutOfRange = errors.New("blobhash: region lies outside the arena")
)

// Blob errors
var (
	ErrInvalidMagic       = errors.New("blobhash: invalid magic number")
	ErrInvalidVersion     = errors.New("blobhash: unsupported version")
	ErrTruncatedBlob      = errors.New("blobhash: blob is truncated")
	ErrCorruptedBlob      = errors.New("blobhash: blob data is corrupted")
	ErrChecksumFailed     = errors.New("blobhash: blob checksum verification failed")
	ErrUnknownCompression = errors.New("blobhash: unknown compression")
	ErrBlobClosed         = errors.New("blobhash: blob is closed")
)

// Query errors
var (
	ErrKeyNotFound   = errors.New("blobhash: key not found")
	ErrCodecMismatch = errors.New("blobhash: codec does not match stored element size")
	ErrKindMismatch  = errors.New("blobhash: table kind does not match")
)
