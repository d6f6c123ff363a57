// Package bits provides low-level bit manipulation primitives.
package bits

import "math/bits"

// NextPow2 returns the smallest power of two >= n. NextPow2(0) is 1.
// Returns 0 if the result does not fit in a uint64.
func NextPow2(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	shift := bits.Len64(n - 1)
	if shift >= 64 {
		return 0
	}
	return uint64(1) << shift
}

// IsPow2 reports whether n is a power of two.
func IsPow2(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

// Wymix performs a 128-bit multiply and XOR fold.
// This is the core mixing primitive from WyHash v4.
func Wymix(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return hi ^ lo
}

// wyp0 and wyp1 are the WyHash secret constants.
const (
	wyp0 = 0xa0761d6478bd642f
	wyp1 = 0xe7037ed1a0b428db
)

// MixSeed folds a seed into a 64-bit hash. A zero seed returns h unchanged
// so unseeded tables hash exactly like the underlying function.
func MixSeed(h, seed uint64) uint64 {
	if seed == 0 {
		return h
	}
	return Wymix(h^wyp0, seed^wyp1)
}
