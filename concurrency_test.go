package blobhash

import (
	"fmt"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/tamirms/blobhash/arena"
)

func TestConcurrentReaders(t *testing.T) {
	const (
		entries = 1000
		readers = 8
	)
	m := buildIdentityMap(t, entries, entries)

	sums := make([]int64, readers)
	var g errgroup.Group
	for r := range readers {
		g.Go(func() error {
			var sum int64
			for i := range int32(entries) {
				v, ok := m.Get(i)
				if !ok {
					return fmt.Errorf("reader %d: key %d not found", r, i)
				}
				sum += int64(v)
			}
			sums[r] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	const want = int64(entries * (entries - 1) / 2)
	for r, sum := range sums {
		if sum != want {
			t.Errorf("reader %d: sum = %d, want %d", r, sum, want)
		}
	}
}

func TestConcurrentMultiMapReaders(t *testing.T) {
	src := map[uint32][]uint32{}
	for i := range uint32(2000) {
		src[i%100] = append(src[i%100], i)
	}
	a := arena.New(0)
	if _, err := BuildMultiMap(a, src, Uint32, Uint32); err != nil {
		t.Fatal(err)
	}
	m := freezeMultiMap(t, a, Uint32, Uint32)

	var g errgroup.Group
	for r := range 8 {
		g.Go(func() error {
			for k, vs := range src {
				if n := m.CountKey(k); n != len(vs) {
					return fmt.Errorf("reader %d: key %d has %d values, want %d", r, k, n, len(vs))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
