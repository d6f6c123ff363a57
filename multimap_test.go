package blobhash

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tamirms/blobhash/arena"
)

func TestMultiMapDuplicateSum(t *testing.T) {
	const n = 100

	a := arena.New(0)
	b, err := NewMultiMapBuilder(a, n, Int32, Int32)
	if err != nil {
		t.Fatal(err)
	}
	for i := range int32(n) {
		if err := b.Add(i/5, i); err != nil {
			t.Fatalf("Add(%d, %d): %v", i/5, i, err)
		}
	}
	if !b.ContainsKey(3) || b.ContainsKey(n/5) {
		t.Error("builder ContainsKey does not reflect the added keys")
	}
	m := freezeMultiMap(t, a, Int32, Int32)

	total := 0
	for k := range int32(n / 5) {
		var got []int32
		v, c, ok := m.TryGetFirst(k)
		for ok {
			got = append(got, v)
			v, ok = m.TryGetNext(&c)
		}
		// Reverse insertion order.
		want := []int32{k*5 + 4, k*5 + 3, k*5 + 2, k*5 + 1, k * 5}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("key %d values mismatch (-want +got):\n%s", k, diff)
		}
		total += len(got)
	}
	if total != n {
		t.Errorf("enumerated %d values, want %d", total, n)
	}
	if m.Count() != n {
		t.Errorf("Count() = %d, want %d", m.Count(), n)
	}
	if _, _, ok := m.TryGetFirst(n / 5); ok {
		t.Error("found a key that was never added")
	}
}

func TestMultiMapSharedBuckets(t *testing.T) {
	// 32 keys in 64 buckets: chains almost surely mix keys.
	a := arena.New(0)
	b, err := NewMultiMapBuilder(a, 64, Uint64, Uint32, WithBucketRatio(1))
	if err != nil {
		t.Fatal(err)
	}
	want := map[uint64][]uint32{}
	for i := range uint32(64) {
		k := uint64(i % 32)
		if err := b.Add(k, i); err != nil {
			t.Fatal(err)
		}
		want[k] = append([]uint32{i}, want[k]...)
	}
	m := freezeMultiMap(t, a, Uint64, Uint32)

	for k, vs := range want {
		got := slices.Collect(m.GetAll(k))
		if diff := cmp.Diff(vs, got); diff != "" {
			t.Errorf("GetAll(%d) mismatch (-want +got):\n%s", k, diff)
		}
		if m.CountKey(k) != len(vs) {
			t.Errorf("CountKey(%d) = %d, want %d", k, m.CountKey(k), len(vs))
		}
	}
	if err := m.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestMultiMapCursorCopies(t *testing.T) {
	a := arena.New(0)
	if _, err := BuildMultiMap(a, map[int32][]int32{1: {10, 20, 30}}, Int32, Int32); err != nil {
		t.Fatal(err)
	}
	m := freezeMultiMap(t, a, Int32, Int32)

	v, c, ok := m.TryGetFirst(1)
	if !ok || v != 30 {
		t.Fatalf("TryGetFirst = %d, %v", v, ok)
	}
	saved := c
	if v, _ := m.TryGetNext(&c); v != 20 {
		t.Fatalf("TryGetNext = %d, want 20", v)
	}
	// The copy continues independently from where it was taken.
	if v, _ := m.TryGetNext(&saved); v != 20 {
		t.Errorf("TryGetNext(copy) = %d, want 20", v)
	}
	if v, _ := m.TryGetNext(&c); v != 10 {
		t.Errorf("TryGetNext = %d, want 10", v)
	}
	if _, ok := m.TryGetNext(&c); ok || !c.Done() {
		t.Error("cursor not exhausted after the last value")
	}
}

func TestMultiMapKeysValuesParity(t *testing.T) {
	const size = 30
	a := arena.New(0)
	b, err := NewMultiMapBuilder(a, size*2, Int32, Int64)
	if err != nil {
		t.Fatal(err)
	}
	var wantKeys []int32
	var wantValues []int64
	for i := range size {
		k, v := int32(i%4), int64(i*i)
		if err := b.Add(k, v); err != nil {
			t.Fatal(err)
		}
		wantKeys = append(wantKeys, k)
		wantValues = append(wantValues, v)
	}
	m := freezeMultiMap(t, a, Int32, Int64)

	if diff := cmp.Diff(wantKeys, m.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantValues, m.Values()); diff != "" {
		t.Errorf("Values() mismatch (-want +got):\n%s", diff)
	}
}

func TestMultiMapGetAllStopsEarly(t *testing.T) {
	a := arena.New(0)
	if _, err := BuildMultiMap(a, map[int32][]int32{5: {1, 2, 3, 4}}, Int32, Int32); err != nil {
		t.Fatal(err)
	}
	m := freezeMultiMap(t, a, Int32, Int32)

	var got []int32
	for v := range m.GetAll(5) {
		got = append(got, v)
		if len(got) == 2 {
			break
		}
	}
	if diff := cmp.Diff([]int32{4, 3}, got); diff != "" {
		t.Errorf("GetAll mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildMultiMap(t *testing.T) {
	src := map[string][]float32{
		"a": {1, 2},
		"b": {3},
		"c": {4, 5, 6},
	}
	a := arena.New(0)
	if _, err := BuildMultiMap(a, src, FixedString(4), Float32); err != nil {
		t.Fatal(err)
	}
	m := freezeMultiMap(t, a, FixedString(4), Float32)

	if m.Count() != 6 || m.Capacity() != 6 {
		t.Errorf("Count() = %d, Capacity() = %d, want 6", m.Count(), m.Capacity())
	}
	for k, vs := range src {
		want := slices.Clone(vs)
		slices.Reverse(want)
		if diff := cmp.Diff(want, slices.Collect(m.GetAll(k))); diff != "" {
			t.Errorf("GetAll(%q) mismatch (-want +got):\n%s", k, diff)
		}
	}
	if s := m.Stats(); s.Kind != "multimap" || s.DistinctKeys != 3 {
		t.Errorf("Stats = %+v, want multimap with 3 distinct keys", s)
	}
}
