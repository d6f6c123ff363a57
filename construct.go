package blobhash

import (
	"bytes"
	"slices"

	"github.com/tamirms/blobhash/arena"
)

// BuildMap builds a map table holding every entry of src and returns its
// reference. Entries are added in encoded-key order, so equal inputs give
// byte-identical tables.
func BuildMap[K comparable, V any](a *arena.Arena, src map[K]V, keys Codec[K], values Codec[V], opts ...BuildOption) (Ref, error) {
	b, err := NewMapBuilder(a, max(len(src), 1), keys, values, opts...)
	if err != nil {
		return 0, err
	}
	for _, k := range sortedKeys(src, keys) {
		if err := b.Add(k, src[k]); err != nil {
			return 0, err
		}
	}
	return b.Finish()
}

// BuildMultiMap builds a multimap table holding every value of src. Values of
// a key are added in slice order, so they enumerate last to first.
func BuildMultiMap[K comparable, V any](a *arena.Arena, src map[K][]V, keys Codec[K], values Codec[V], opts ...BuildOption) (Ref, error) {
	total := 0
	for _, vs := range src {
		total += len(vs)
	}
	b, err := NewMultiMapBuilder(a, max(total, 1), keys, values, opts...)
	if err != nil {
		return 0, err
	}
	for _, k := range sortedKeys(src, keys) {
		for _, v := range src[k] {
			if err := b.Add(k, v); err != nil {
				return 0, err
			}
		}
	}
	return b.Finish()
}

// sortedKeys returns the keys of m ordered by their encoding.
func sortedKeys[K comparable, V any](m map[K]V, codec Codec[K]) []K {
	if codec == nil {
		return nil
	}
	type entry struct {
		key K
		enc []byte
	}
	_, put := keyFuncs(codec)
	entries := make([]entry, 0, len(m))
	for k := range m {
		enc := make([]byte, codec.Size())
		put(enc, k)
		entries = append(entries, entry{k, enc})
	}
	slices.SortFunc(entries, func(x, y entry) int {
		return bytes.Compare(x.enc, y.enc)
	})
	out := make([]K, len(entries))
	for i, e := range entries {
		out[i] = e.key
	}
	return out
}
