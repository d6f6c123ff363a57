package blobhash

import (
	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"

	intbits "github.com/tamirms/blobhash/internal/bits"
)

// HashAlgorithm identifies the function used to hash encoded keys.
// It is stored in the table descriptor, so a reader always hashes with the
// function the table was built with.
type HashAlgorithm uint8

const (
	// HashXXH64 is xxHash64 (the default).
	HashXXH64 HashAlgorithm = 0

	// HashXXH3 is the 64-bit variant of xxHash3.
	HashXXH3 HashAlgorithm = 1

	// HashMurmur3 is the 64-bit half of MurmurHash3 x64_128.
	HashMurmur3 HashAlgorithm = 2
)

// String returns the algorithm name.
func (h HashAlgorithm) String() string {
	switch h {
	case HashXXH64:
		return "xxh64"
	case HashXXH3:
		return "xxh3"
	case HashMurmur3:
		return "murmur3"
	default:
		return "unknown"
	}
}

// ParseHashAlgorithm returns the algorithm with the given name.
func ParseHashAlgorithm(name string) (HashAlgorithm, bool) {
	switch name {
	case "xxh64", "":
		return HashXXH64, true
	case "xxh3":
		return HashXXH3, true
	case "murmur3":
		return HashMurmur3, true
	default:
		return 0, false
	}
}

func (h HashAlgorithm) valid() bool {
	return h <= HashMurmur3
}

// hashFunc hashes an encoded key.
type hashFunc func(key []byte) uint64

// newHashFunc returns the seeded hash function for algo.
// Precondition: algo.valid().
func newHashFunc(algo HashAlgorithm, seed uint64) hashFunc {
	switch algo {
	case HashXXH3:
		if seed == 0 {
			return xxh3.Hash
		}
		return func(key []byte) uint64 { return xxh3.HashSeed(key, seed) }
	case HashMurmur3:
		s := uint32(seed) ^ uint32(seed>>32)
		return func(key []byte) uint64 {
			h1, _ := murmur3.Sum128WithSeed(key, s)
			return h1
		}
	default:
		if seed == 0 {
			return xxhash.Sum64
		}
		return func(key []byte) uint64 { return intbits.MixSeed(xxhash.Sum64(key), seed) }
	}
}
