package blobhash

import (
	"bytes"
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/tamirms/blobhash/arena"
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

// generateDistinctKeys returns n distinct pseudo-random uint64 keys.
func generateDistinctKeys(rng *rand.Rand, n int) []uint64 {
	seen := make(map[uint64]struct{}, n)
	keys := make([]uint64, 0, n)
	for len(keys) < n {
		k := rng.Uint64()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

// freezeMap freezes a and opens its root table as a map. The map is closed
// when the test ends.
func freezeMap[K, V any](t testing.TB, a *arena.Arena, keys Codec[K], values Codec[V]) *Map[K, V] {
	t.Helper()
	blob := Freeze(a)
	m, err := OpenMap(blob, keys, values)
	if cerr := blob.Close(); cerr != nil {
		t.Fatal(cerr)
	}
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

// freezeMultiMap is freezeMap for multimaps.
func freezeMultiMap[K, V any](t testing.TB, a *arena.Arena, keys Codec[K], values Codec[V]) *MultiMap[K, V] {
	t.Helper()
	blob := Freeze(a)
	m, err := OpenMultiMap(blob, keys, values)
	if cerr := blob.Close(); cerr != nil {
		t.Fatal(cerr)
	}
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

// buildIdentityMap builds an int32 map of capacity holding i -> i for i < n.
func buildIdentityMap(t testing.TB, capacity, n int, opts ...BuildOption) *Map[int32, int32] {
	t.Helper()
	a := arena.New(0)
	b, err := NewMapBuilder(a, capacity, Int32, Int32, opts...)
	if err != nil {
		t.Fatal(err)
	}
	for i := range int32(n) {
		if err := b.Add(i, i); err != nil {
			t.Fatalf("Add(%d): %v", i, err)
		}
	}
	if _, err := b.Finish(); err != nil {
		t.Fatal(err)
	}
	return freezeMap(t, a, Int32, Int32)
}

// buildTestBlob builds a uint64 map of n random entries and returns the
// frozen blob along with the entries.
func buildTestBlob(t testing.TB, n int, opts ...BuildOption) (*Blob, map[uint64]uint64) {
	t.Helper()
	rng := newTestRNG(t)
	src := make(map[uint64]uint64, n)
	for _, k := range generateDistinctKeys(rng, n) {
		src[k] = rng.Uint64()
	}
	a := arena.New(0)
	if _, err := BuildMap(a, src, Uint64, Uint64, opts...); err != nil {
		t.Fatal(err)
	}
	blob := Freeze(a)
	t.Cleanup(func() { blob.Close() })
	return blob, src
}

// writeTestFile writes blob to a temp file and returns its path.
func writeTestFile(t testing.TB, blob *Blob, opts ...WriteOption) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.blob")
	if err := blob.WriteFile(path, opts...); err != nil {
		t.Fatal(err)
	}
	return path
}

// encodeTestFile returns the blob file bytes of blob.
func encodeTestFile(t testing.TB, blob *Blob, opts ...WriteOption) []byte {
	t.Helper()
	var buf bytes.Buffer
	if _, err := blob.Encode(&buf, opts...); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// corruptFile XORs the byte at off with mask.
func corruptFile(t testing.TB, path string, off int64, mask byte) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[off] ^= mask
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// checkMapContents asserts m holds exactly src.
func checkMapContents(t testing.TB, m *Map[uint64, uint64], src map[uint64]uint64) {
	t.Helper()
	if m.Count() != len(src) {
		t.Fatalf("Count() = %d, want %d", m.Count(), len(src))
	}
	for k, want := range src {
		got, ok := m.Get(k)
		if !ok {
			t.Fatalf("key %d not found", k)
		}
		if got != want {
			t.Fatalf("key %d: got %d, want %d", k, got, want)
		}
	}
}

// identityInt64s returns i -> i for i < n. Its table compresses well.
func identityInt64s(n int) map[int64]int64 {
	src := make(map[int64]int64, n)
	for i := range int64(n) {
		src[i] = i
	}
	return src
}
