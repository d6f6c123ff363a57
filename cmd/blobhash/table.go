package main

import (
	"errors"
	"fmt"
	"iter"

	"github.com/tamirms/blobhash"
	bherrors "github.com/tamirms/blobhash/errors"
)

// table is a uint64 map or multimap opened from a blob file. The CLI only
// reads tables with uint64 keys and values.
type table struct {
	blob  *blobhash.Blob
	m     *blobhash.Map[uint64, uint64]
	multi *blobhash.MultiMap[uint64, uint64]
}

func (a *app) openTable(path string) (*table, error) {
	blob, err := blobhash.Open(path, blobhash.WithBlobLogger(a.log))
	if err != nil {
		return nil, err
	}
	t, err := newTable(blob)
	if err != nil {
		blob.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// newTable opens the root table of blob, taking ownership of blob.
func newTable(blob *blobhash.Blob) (*table, error) {
	t := &table{blob: blob}
	m, err := blobhash.OpenMap(blob, blobhash.Uint64, blobhash.Uint64)
	switch {
	case err == nil:
		t.m = m
	case errors.Is(err, bherrors.ErrKindMismatch):
		t.multi, err = blobhash.OpenMultiMap(blob, blobhash.Uint64, blobhash.Uint64)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	return t, nil
}

func (t *table) Close() error {
	var err error
	if t.m != nil {
		err = t.m.Close()
	}
	if t.multi != nil {
		err = t.multi.Close()
	}
	return errors.Join(err, t.blob.Close())
}

func (t *table) stats() blobhash.Stats {
	if t.m != nil {
		return t.m.Stats()
	}
	return t.multi.Stats()
}

func (t *table) verify() error {
	if err := t.blob.Verify(); err != nil {
		return err
	}
	if t.m != nil {
		return t.m.Verify()
	}
	return t.multi.Verify()
}

// values yields every value stored under key, newest first for multimaps.
func (t *table) values(key uint64) iter.Seq[uint64] {
	if t.multi != nil {
		return t.multi.GetAll(key)
	}
	return func(yield func(uint64) bool) {
		if v, ok := t.m.Get(key); ok {
			yield(v)
		}
	}
}

func (t *table) count() int {
	if t.m != nil {
		return t.m.Count()
	}
	return t.multi.Count()
}
