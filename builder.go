package blobhash

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	"github.com/tamirms/blobhash/arena"
	bherrors "github.com/tamirms/blobhash/errors"
	intbits "github.com/tamirms/blobhash/internal/bits"
	"github.com/tamirms/blobhash/internal/encoding"
)

// tableBuilder populates one table inside an arena in a single forward pass.
// It is the untyped core shared by MapBuilder and MultiMapBuilder.
//
// All state lives in the arena; the builder only holds region handles, so
// other allocations may grow the arena between adds.
type tableBuilder struct {
	a   *arena.Arena
	log *slog.Logger

	desc   arena.Region
	values arena.Region
	keys   arena.Region
	link   arena.Region
	heads  arena.Region

	kind     tableKind
	capacity int32
	count    int32
	mask     uint32
	hash     hashFunc
	closed   bool
}

// newTableBuilder validates the configuration and reserves the descriptor and
// all table arrays at their final sizes. Nothing is allocated when the
// configuration is invalid.
func newTableBuilder(a *arena.Arena, kind tableKind, capacity, keySize, valueSize int, opts []BuildOption) (*tableBuilder, error) {
	cfg := defaultBuildConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if a == nil {
		return nil, fmt.Errorf("%w: nil arena", bherrors.ErrInvalidConfiguration)
	}
	if capacity <= 0 || capacity > MaxCapacity {
		return nil, fmt.Errorf("%w: capacity %d must be in [1, %d]", bherrors.ErrInvalidConfiguration, capacity, MaxCapacity)
	}
	if cfg.bucketRatio <= 0 || cfg.bucketRatio > maxBucketCapacity {
		return nil, fmt.Errorf("%w: bucket ratio %d must be positive", bherrors.ErrInvalidConfiguration, cfg.bucketRatio)
	}
	if !cfg.hash.valid() {
		return nil, fmt.Errorf("%w: unknown hash algorithm %d", bherrors.ErrInvalidConfiguration, cfg.hash)
	}
	if keySize <= 0 || keySize > math.MaxUint16 || valueSize <= 0 || valueSize > math.MaxUint16 {
		return nil, fmt.Errorf("%w: codec sizes %d/%d must be in [1, %d]",
			bherrors.ErrInvalidConfiguration, keySize, valueSize, math.MaxUint16)
	}
	buckets := intbits.NextPow2(uint64(capacity) * uint64(cfg.bucketRatio))
	if buckets == 0 || buckets > maxBucketCapacity {
		return nil, fmt.Errorf("%w: %d x %d buckets exceeds %d",
			bherrors.ErrInvalidConfiguration, capacity, cfg.bucketRatio, maxBucketCapacity)
	}
	if a.Frozen() {
		return nil, bherrors.ErrArenaFrozen
	}

	b := &tableBuilder{
		a:        a,
		log:      cfg.logger,
		kind:     kind,
		capacity: int32(capacity),
		mask:     uint32(buckets - 1),
		hash:     newHashFunc(cfg.hash, cfg.seed),
	}

	var err error
	if b.desc, err = a.Alloc(1, descriptorSize); err != nil {
		return nil, fmt.Errorf("allocate descriptor: %w", err)
	}
	if b.values, err = a.Alloc(capacity, valueSize); err != nil {
		return nil, fmt.Errorf("allocate values: %w", err)
	}
	if b.keys, err = a.Alloc(capacity, keySize); err != nil {
		return nil, fmt.Errorf("allocate keys: %w", err)
	}
	if b.link, err = a.Alloc(capacity, encoding.IndexSize); err != nil {
		return nil, fmt.Errorf("allocate links: %w", err)
	}
	if b.heads, err = a.Alloc(int(buckets), encoding.IndexSize); err != nil {
		return nil, fmt.Errorf("allocate bucket heads: %w", err)
	}

	// Every chain starts empty.
	linkBuf, _ := a.Bytes(b.link)
	encoding.FillIndex(linkBuf, encoding.NoIndex)
	headBuf, _ := a.Bytes(b.heads)
	encoding.FillIndex(headBuf, encoding.NoIndex)

	d := descriptor{
		Kind:         kind,
		Hash:         cfg.hash,
		KeySize:      uint16(keySize),
		ValueSize:    uint16(valueSize),
		Capacity:     uint32(capacity),
		BucketMask:   b.mask,
		Seed:         cfg.seed,
		ValuesOffset: b.values.Offset,
		KeysOffset:   b.keys.Offset,
		LinkOffset:   b.link.Offset,
		HeadsOffset:  b.heads.Offset,
	}
	d.encodeTo(a.Elem(b.desc, 0))

	b.log.Debug("table builder created",
		"kind", kind,
		"ref", b.desc.Offset,
		"capacity", capacity,
		"buckets", buckets,
		"hash", cfg.hash)
	return b, nil
}

// tryAdd appends (key, value) unless the table is full or, when allowDup is
// false, key is already present. A failed add leaves the table untouched.
func (b *tableBuilder) tryAdd(key, value []byte, allowDup bool) (bool, error) {
	if b.closed {
		return false, bherrors.ErrBuilderClosed
	}
	if b.a.Frozen() {
		return false, bherrors.ErrArenaFrozen
	}
	if b.count >= b.capacity {
		if StrictChecking {
			return false, fmt.Errorf("%w: capacity %d", bherrors.ErrCapacityExceeded, b.capacity)
		}
		return false, nil
	}

	bucket := b.bucket(key)
	head := encoding.Index(b.a.Elem(b.heads, bucket), 0)
	if !allowDup && b.seek(key, head) >= 0 {
		return false, nil
	}

	idx := b.count
	copy(b.a.Elem(b.keys, int(idx)), key)
	copy(b.a.Elem(b.values, int(idx)), value)
	encoding.PutIndex(b.a.Elem(b.link, int(idx)), 0, head)
	encoding.PutIndex(b.a.Elem(b.heads, bucket), 0, idx)

	b.count++
	binary.LittleEndian.PutUint32(b.a.Elem(b.desc, 0)[countOffset:], uint32(b.count))
	return true, nil
}

func (b *tableBuilder) bucket(key []byte) int {
	return int(uint32(b.hash(key)) & b.mask)
}

// seek walks the chain from idx and returns the first slot holding key.
func (b *tableBuilder) seek(key []byte, idx int32) int32 {
	for idx >= 0 {
		if bytes.Equal(b.a.Elem(b.keys, int(idx)), key) {
			return idx
		}
		idx = encoding.Index(b.a.Elem(b.link, int(idx)), 0)
	}
	return encoding.NoIndex
}

func (b *tableBuilder) contains(key []byte) bool {
	head := encoding.Index(b.a.Elem(b.heads, b.bucket(key)), 0)
	return b.seek(key, head) >= 0
}

// finish closes the builder and returns the table's reference.
func (b *tableBuilder) finish() (Ref, error) {
	if b.closed {
		return 0, bherrors.ErrBuilderClosed
	}
	b.closed = true
	b.log.Debug("table builder finished",
		"kind", b.kind,
		"ref", b.desc.Offset,
		"count", b.count,
		"capacity", b.capacity)
	return Ref(b.desc.Offset), nil
}

// entryCodec encodes keys and values into reusable scratch buffers.
type entryCodec[K, V any] struct {
	keys   Codec[K]
	values Codec[V]
	kchk   func(K) error
	kput   func([]byte, K)
	vchk   checker[V]
	kbuf   []byte
	vbuf   []byte
}

func newEntryCodec[K, V any](keys Codec[K], values Codec[V]) (*entryCodec[K, V], error) {
	if keys == nil || values == nil {
		return nil, fmt.Errorf("%w: nil codec", bherrors.ErrInvalidConfiguration)
	}
	e := &entryCodec[K, V]{keys: keys, values: values}
	e.kchk, e.kput = keyFuncs(keys)
	e.vchk, _ = values.(checker[V])
	if n := keys.Size(); n > 0 {
		e.kbuf = make([]byte, n)
	}
	if n := values.Size(); n > 0 {
		e.vbuf = make([]byte, n)
	}
	return e, nil
}

// encodeKey encodes k into the scratch buffer.
func (e *entryCodec[K, V]) encodeKey(k K) ([]byte, error) {
	if e.kchk != nil {
		if err := e.kchk(k); err != nil {
			return nil, fmt.Errorf("key: %w", err)
		}
	}
	e.kput(e.kbuf, k)
	return e.kbuf, nil
}

// encode encodes both k and v into the scratch buffers.
func (e *entryCodec[K, V]) encode(k K, v V) ([]byte, []byte, error) {
	kb, err := e.encodeKey(k)
	if err != nil {
		return nil, nil, err
	}
	if e.vchk != nil {
		if err := e.vchk.Check(v); err != nil {
			return nil, nil, fmt.Errorf("value: %w", err)
		}
	}
	e.values.Put(e.vbuf, v)
	return kb, e.vbuf, nil
}
