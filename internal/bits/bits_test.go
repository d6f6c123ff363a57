package bits

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

func TestNextPow2(t *testing.T) {
	tests := []struct {
		in, want uint64
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{84, 128},
		{128, 128},
		{129, 256},
		{1 << 40, 1 << 40},
		{1<<40 + 1, 1 << 41},
		{1<<63 + 1, 0},
	}
	for _, tc := range tests {
		if got := NextPow2(tc.in); got != tc.want {
			t.Errorf("NextPow2(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

// TestNextPow2Property checks that the result is a power of two, is >= n and
// that half of it is < n.
func TestNextPow2Property(t *testing.T) {
	rng := newTestRNG(t)
	for i := 0; i < 10000; i++ {
		n := rng.Uint64N(1<<62) + 2
		p := NextPow2(n)
		if !IsPow2(p) {
			t.Fatalf("NextPow2(%d) = %d is not a power of two", n, p)
		}
		if p < n || p/2 >= n {
			t.Fatalf("NextPow2(%d) = %d is not the smallest power of two >= n", n, p)
		}
	}
}

func TestIsPow2(t *testing.T) {
	for _, n := range []uint64{1, 2, 4, 1 << 31, 1 << 63} {
		if !IsPow2(n) {
			t.Errorf("IsPow2(%d) = false", n)
		}
	}
	for _, n := range []uint64{0, 3, 6, 1<<31 + 1} {
		if IsPow2(n) {
			t.Errorf("IsPow2(%d) = true", n)
		}
	}
}

func TestMixSeedZeroIsIdentity(t *testing.T) {
	rng := newTestRNG(t)
	for i := 0; i < 1000; i++ {
		h := rng.Uint64()
		if got := MixSeed(h, 0); got != h {
			t.Fatalf("MixSeed(%#x, 0) = %#x, want identity", h, got)
		}
	}
}

func TestMixSeedDependsOnSeed(t *testing.T) {
	rng := newTestRNG(t)
	same := 0
	for i := 0; i < 1000; i++ {
		h := rng.Uint64()
		if MixSeed(h, 1) == MixSeed(h, 2) {
			same++
		}
	}
	if same > 0 {
		t.Errorf("%d/1000 hashes unchanged across seeds", same)
	}
}
