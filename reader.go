package blobhash

import (
	"fmt"
	"iter"
	"sync/atomic"

	bherrors "github.com/tamirms/blobhash/errors"
	"github.com/tamirms/blobhash/internal/encoding"
)

// Cursor is the continuation state of a lookup, produced by TryGetFirst and
// advanced by TryGetNext. It is a plain value: copies continue independently.
type Cursor[K any] struct {
	key  K
	enc  []byte
	next int32
}

// Key returns the key the cursor was created for.
func (c Cursor[K]) Key() K {
	return c.key
}

// Done reports whether the cursor is exhausted.
func (c Cursor[K]) Done() bool {
	return c.enc == nil || c.next < 0
}

// reader is the typed, read-only view shared by Map and MultiMap.
// All methods are safe for concurrent use.
type reader[K, V any] struct {
	t      *table
	blob   *Blob
	ref    Ref
	keys   Codec[K]
	values Codec[V]
	kchk   func(K) error
	kput   func([]byte, K)
	closed atomic.Bool
}

func (r *reader[K, V]) open(b *Blob, ref Ref, kind tableKind, keys Codec[K], values Codec[V]) error {
	if b == nil || keys == nil || values == nil {
		return fmt.Errorf("%w: nil blob or codec", bherrors.ErrInvalidConfiguration)
	}
	if err := b.Retain(); err != nil {
		return err
	}
	t, err := openTable(b.Bytes(), ref, kind, keys.Size(), values.Size())
	if err != nil {
		b.Release()
		return fmt.Errorf("open %s at %d: %w", kind, ref, err)
	}
	r.t = t
	r.blob = b
	r.ref = ref
	r.keys = keys
	r.values = values
	r.kchk, r.kput = keyFuncs(keys)
	return nil
}

// encodeKey returns the encoding of k, or false if the codec cannot
// represent k (in which case it cannot be stored either).
func (r *reader[K, V]) encodeKey(k K) ([]byte, bool) {
	if r.kchk != nil && r.kchk(k) != nil {
		return nil, false
	}
	buf := make([]byte, r.t.keySize)
	r.kput(buf, k)
	return buf, true
}

// TryGetFirst looks up key and returns its most recently added value along
// with a cursor positioned after it.
func (r *reader[K, V]) TryGetFirst(key K) (V, Cursor[K], bool) {
	c := Cursor[K]{key: key, next: encoding.NoIndex}
	enc, ok := r.encodeKey(key)
	if !ok {
		var zero V
		return zero, c, false
	}
	c.enc = enc
	c.next = r.t.head(enc)
	v, found := r.TryGetNext(&c)
	return v, c, found
}

// TryGetNext returns the next value stored under the cursor's key and
// advances the cursor past it. Values of other keys sharing the bucket are
// skipped.
func (r *reader[K, V]) TryGetNext(c *Cursor[K]) (V, bool) {
	var zero V
	if c.Done() {
		return zero, false
	}
	idx := r.t.seek(c.enc, c.next)
	if idx < 0 {
		c.next = encoding.NoIndex
		return zero, false
	}
	c.next = r.t.next(idx)
	return r.values.Get(r.t.valueAt(idx)), true
}

// ContainsKey reports whether key is present.
func (r *reader[K, V]) ContainsKey(key K) bool {
	enc, ok := r.encodeKey(key)
	return ok && r.t.seek(enc, r.t.head(enc)) >= 0
}

// Count returns the number of stored entries.
func (r *reader[K, V]) Count() int {
	return int(r.t.count)
}

// Capacity returns the capacity the table was built with.
func (r *reader[K, V]) Capacity() int {
	return int(r.t.desc.Capacity)
}

// BucketCapacity returns the number of buckets.
func (r *reader[K, V]) BucketCapacity() int {
	return r.t.desc.bucketCapacity()
}

// HashAlgorithm returns the hash function the table was built with.
func (r *reader[K, V]) HashAlgorithm() HashAlgorithm {
	return r.t.desc.Hash
}

// Ref returns the descriptor offset of the table inside its blob.
func (r *reader[K, V]) Ref() Ref {
	return r.ref
}

// Keys returns every stored key in insertion order. A key added n times to a
// multimap appears n times.
func (r *reader[K, V]) Keys() []K {
	out := make([]K, r.t.count)
	for i := range out {
		out[i] = r.keys.Get(r.t.keyAt(int32(i)))
	}
	return out
}

// Values returns every stored value in insertion order, index-aligned with
// Keys.
func (r *reader[K, V]) Values() []V {
	out := make([]V, r.t.count)
	for i := range out {
		out[i] = r.values.Get(r.t.valueAt(int32(i)))
	}
	return out
}

// All iterates over every entry in insertion order.
func (r *reader[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i := range r.t.count {
			if !yield(r.keys.Get(r.t.keyAt(i)), r.values.Get(r.t.valueAt(i))) {
				return
			}
		}
	}
}

// Verify checks the table's chain structure. It does not check blob
// checksums; see Blob.Verify.
func (r *reader[K, V]) Verify() error {
	return r.t.verify()
}

// Close releases the reader's hold on its blob. Calling Close more than once
// is safe. No other method may be called after Close.
func (r *reader[K, V]) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	return r.blob.Release()
}
