package blobhash

import (
	"fmt"

	"github.com/tamirms/blobhash/arena"
	bherrors "github.com/tamirms/blobhash/errors"
)

// MapBuilder adds unique keys to a map table inside an arena.
//
// Usage:
//
//	a := arena.New(0)
//	b, err := blobhash.NewMapBuilder(a, 42, blobhash.Int32, blobhash.Int32)
//	if err != nil { return err }
//	for i := range int32(42) {
//	    if err := b.Add(i, i); err != nil { return err }
//	}
//	if _, err := b.Finish(); err != nil { return err }
//	blob := blobhash.Freeze(a)
//	m, err := blobhash.OpenMap(blob, blobhash.Int32, blobhash.Int32)
//
// A MapBuilder is not safe for concurrent use.
type MapBuilder[K, V any] struct {
	tb  *tableBuilder
	enc *entryCodec[K, V]
}

// NewMapBuilder reserves a map table of the given capacity in a.
// Capacity is fixed; the table never grows.
func NewMapBuilder[K, V any](a *arena.Arena, capacity int, keys Codec[K], values Codec[V], opts ...BuildOption) (*MapBuilder[K, V], error) {
	enc, err := newEntryCodec(keys, values)
	if err != nil {
		return nil, err
	}
	tb, err := newTableBuilder(a, kindMap, capacity, keys.Size(), values.Size(), opts)
	if err != nil {
		return nil, err
	}
	return &MapBuilder[K, V]{tb: tb, enc: enc}, nil
}

// TryAdd adds key unless it is already present, in which case it returns
// false. When the map is full it returns ErrCapacityExceeded, or false with
// StrictChecking disabled. A failed add changes nothing.
func (b *MapBuilder[K, V]) TryAdd(key K, value V) (bool, error) {
	kb, vb, err := b.enc.encode(key, value)
	if err != nil {
		return false, err
	}
	return b.tb.tryAdd(kb, vb, false)
}

// Add adds key. Adding a key twice returns ErrDuplicateKey, or is ignored
// with StrictChecking disabled.
func (b *MapBuilder[K, V]) Add(key K, value V) error {
	ok, err := b.TryAdd(key, value)
	if err != nil {
		return err
	}
	if !ok && StrictChecking {
		return fmt.Errorf("%w: %v", bherrors.ErrDuplicateKey, key)
	}
	return nil
}

// ContainsKey reports whether key has been added.
func (b *MapBuilder[K, V]) ContainsKey(key K) bool {
	kb, err := b.enc.encodeKey(key)
	return err == nil && b.tb.contains(kb)
}

// Count returns the number of keys added so far.
func (b *MapBuilder[K, V]) Count() int {
	return int(b.tb.count)
}

// Capacity returns the maximum number of keys.
func (b *MapBuilder[K, V]) Capacity() int {
	return int(b.tb.capacity)
}

// Ref returns the table's descriptor offset.
func (b *MapBuilder[K, V]) Ref() Ref {
	return Ref(b.tb.desc.Offset)
}

// Finish ends the build and returns the table reference. Further adds fail
// with ErrBuilderClosed. The arena still has to be frozen before the table
// can be read.
func (b *MapBuilder[K, V]) Finish() (Ref, error) {
	return b.tb.finish()
}

// Map is a read-only view of a frozen map table.
// All methods are safe for concurrent use.
type Map[K, V any] struct {
	reader[K, V]
}

// OpenMap opens the blob's root table as a map.
func OpenMap[K, V any](b *Blob, keys Codec[K], values Codec[V]) (*Map[K, V], error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil blob", bherrors.ErrInvalidConfiguration)
	}
	return OpenMapAt(b, b.Root(), keys, values)
}

// OpenMapAt opens the map table whose descriptor is at ref.
// The map retains the blob until Close.
func OpenMapAt[K, V any](b *Blob, ref Ref, keys Codec[K], values Codec[V]) (*Map[K, V], error) {
	m := &Map[K, V]{}
	if err := m.open(b, ref, kindMap, keys, values); err != nil {
		return nil, err
	}
	return m, nil
}

// Get returns the value stored under key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	v, _, ok := m.TryGetFirst(key)
	return v, ok
}

// Lookup is indexed access: it returns ErrKeyNotFound for a missing key, or
// the zero value with StrictChecking disabled.
func (m *Map[K, V]) Lookup(key K) (V, error) {
	v, ok := m.Get(key)
	if !ok && StrictChecking {
		return v, fmt.Errorf("%w: %v", bherrors.ErrKeyNotFound, key)
	}
	return v, nil
}

// Stats computes bucket occupancy and chain length statistics.
func (m *Map[K, V]) Stats() Stats {
	return computeStats(m.t)
}
