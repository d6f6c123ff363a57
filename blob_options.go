package blobhash

import (
	"log/slog"

	"github.com/tamirms/blobhash/internal/compress"
)

// Compression selects how a blob payload is stored in a file.
type Compression uint8

const (
	CompressionNone = Compression(compress.None)
	CompressionZstd = Compression(compress.Zstd)
	CompressionLZ4  = Compression(compress.LZ4)
)

// String returns the compression name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// ParseCompression returns the compression with the given name.
func ParseCompression(name string) (Compression, bool) {
	switch name {
	case "none", "":
		return CompressionNone, true
	case "zstd":
		return CompressionZstd, true
	case "lz4":
		return CompressionLZ4, true
	default:
		return 0, false
	}
}

// BlobOption is a functional option for creating or opening blobs.
type BlobOption func(*blobConfig)

type blobConfig struct {
	root     Ref
	logger   *slog.Logger
	prefault bool
}

func defaultBlobConfig() *blobConfig {
	return &blobConfig{logger: nopLogger()}
}

// WithRoot sets the root table of a blob created with Freeze or WrapBytes.
// Files record their root in the header, so Open ignores this option.
// Default is 0: the first table built in the arena.
func WithRoot(ref Ref) BlobOption {
	return func(c *blobConfig) {
		c.root = ref
	}
}

// WithBlobLogger sets the logger for blob events. A nil logger discards.
func WithBlobLogger(l *slog.Logger) BlobOption {
	return func(c *blobConfig) {
		if l == nil {
			l = nopLogger()
		}
		c.logger = l
	}
}

// WithPrefault asks the kernel to populate a memory-mapped blob up front, so
// first lookups do not page fault. Only Linux honors it.
func WithPrefault() BlobOption {
	return func(c *blobConfig) {
		c.prefault = true
	}
}

// WriteOption is a functional option for writing blob files.
type WriteOption func(*writeConfig)

type writeConfig struct {
	compression Compression
}

func defaultWriteConfig() *writeConfig {
	return &writeConfig{compression: CompressionNone}
}

// WithCompression compresses the payload. A payload that does not compress
// well is stored uncompressed, so the file can still be memory-mapped.
func WithCompression(c Compression) WriteOption {
	return func(cfg *writeConfig) {
		cfg.compression = c
	}
}
