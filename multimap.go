package blobhash

import (
	"fmt"
	"iter"

	"github.com/tamirms/blobhash/arena"
	bherrors "github.com/tamirms/blobhash/errors"
)

// MultiMapBuilder adds possibly repeated keys to a multimap table.
// A MultiMapBuilder is not safe for concurrent use.
type MultiMapBuilder[K, V any] struct {
	tb  *tableBuilder
	enc *entryCodec[K, V]
}

// NewMultiMapBuilder reserves a multimap table of the given capacity in a.
// Capacity counts values, not distinct keys.
func NewMultiMapBuilder[K, V any](a *arena.Arena, capacity int, keys Codec[K], values Codec[V], opts ...BuildOption) (*MultiMapBuilder[K, V], error) {
	enc, err := newEntryCodec(keys, values)
	if err != nil {
		return nil, err
	}
	tb, err := newTableBuilder(a, kindMultiMap, capacity, keys.Size(), values.Size(), opts)
	if err != nil {
		return nil, err
	}
	return &MultiMapBuilder[K, V]{tb: tb, enc: enc}, nil
}

// Add appends another value for key. When the table is full it returns
// ErrCapacityExceeded, or does nothing with StrictChecking disabled.
func (b *MultiMapBuilder[K, V]) Add(key K, value V) error {
	kb, vb, err := b.enc.encode(key, value)
	if err != nil {
		return err
	}
	_, err = b.tb.tryAdd(kb, vb, true)
	return err
}

// ContainsKey reports whether key has been added at least once.
func (b *MultiMapBuilder[K, V]) ContainsKey(key K) bool {
	kb, err := b.enc.encodeKey(key)
	return err == nil && b.tb.contains(kb)
}

// Count returns the number of values added so far.
func (b *MultiMapBuilder[K, V]) Count() int {
	return int(b.tb.count)
}

// Capacity returns the maximum number of values.
func (b *MultiMapBuilder[K, V]) Capacity() int {
	return int(b.tb.capacity)
}

// Ref returns the table's descriptor offset.
func (b *MultiMapBuilder[K, V]) Ref() Ref {
	return Ref(b.tb.desc.Offset)
}

// Finish ends the build and returns the table reference.
func (b *MultiMapBuilder[K, V]) Finish() (Ref, error) {
	return b.tb.finish()
}

// MultiMap is a read-only view of a frozen multimap table.
// Values of a key are enumerated most recently added first.
type MultiMap[K, V any] struct {
	reader[K, V]
}

// OpenMultiMap opens the blob's root table as a multimap.
func OpenMultiMap[K, V any](b *Blob, keys Codec[K], values Codec[V]) (*MultiMap[K, V], error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil blob", bherrors.ErrInvalidConfiguration)
	}
	return OpenMultiMapAt(b, b.Root(), keys, values)
}

// OpenMultiMapAt opens the multimap table whose descriptor is at ref.
func OpenMultiMapAt[K, V any](b *Blob, ref Ref, keys Codec[K], values Codec[V]) (*MultiMap[K, V], error) {
	m := &MultiMap[K, V]{}
	if err := m.open(b, ref, kindMultiMap, keys, values); err != nil {
		return nil, err
	}
	return m, nil
}

// GetAll iterates over every value stored under key.
func (m *MultiMap[K, V]) GetAll(key K) iter.Seq[V] {
	return func(yield func(V) bool) {
		v, c, ok := m.TryGetFirst(key)
		for ok {
			if !yield(v) {
				return
			}
			v, ok = m.TryGetNext(&c)
		}
	}
}

// CountKey returns the number of values stored under key.
func (m *MultiMap[K, V]) CountKey(key K) int {
	n := 0
	for range m.GetAll(key) {
		n++
	}
	return n
}

// Stats computes bucket occupancy and chain length statistics.
func (m *MultiMap[K, V]) Stats() Stats {
	return computeStats(m.t)
}
