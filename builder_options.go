package blobhash

import "log/slog"

// DefaultBucketRatio is the bucket-to-capacity ratio used when none is given.
const DefaultBucketRatio = 2

// BuildOption is a functional option for configuring table builders.
type BuildOption func(*buildConfig)

type buildConfig struct {
	bucketRatio int
	hash        HashAlgorithm
	seed        uint64
	logger      *slog.Logger
}

func defaultBuildConfig() *buildConfig {
	return &buildConfig{
		bucketRatio: DefaultBucketRatio,
		hash:        HashXXH64,
		logger:      nopLogger(),
	}
}

// WithBucketRatio sets the number of buckets reserved per unit of capacity.
// The bucket count is rounded up to a power of two. Typical values are 2-4.
func WithBucketRatio(r int) BuildOption {
	return func(c *buildConfig) {
		c.bucketRatio = r
	}
}

// WithHashAlgorithm selects the key hash function.
// Default is HashXXH64.
func WithHashAlgorithm(algo HashAlgorithm) BuildOption {
	return func(c *buildConfig) {
		c.hash = algo
	}
}

// WithSeed sets the hash seed. The seed is stored in the table, so readers
// need not be told about it.
func WithSeed(seed uint64) BuildOption {
	return func(c *buildConfig) {
		c.seed = seed
	}
}

// WithLogger sets the logger for build events. A nil logger discards.
func WithLogger(l *slog.Logger) BuildOption {
	return func(c *buildConfig) {
		if l == nil {
			l = nopLogger()
		}
		c.logger = l
	}
}
