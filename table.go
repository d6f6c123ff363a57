package blobhash

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bherrors "github.com/tamirms/blobhash/errors"
	intbits "github.com/tamirms/blobhash/internal/bits"
	"github.com/tamirms/blobhash/internal/encoding"
)

const (
	// tableMagic identifies a table descriptor: "BHTB" in little-endian.
	tableMagic = uint32(0x42544842)

	// descriptorSize is the exact size of a serialized table descriptor.
	descriptorSize = 64

	// MaxCapacity is the largest capacity a table can be built with.
	// Slot indices are stored as int32.
	MaxCapacity = 1<<31 - 1

	// maxBucketCapacity bounds the bucket array so the mask fits in 32 bits.
	maxBucketCapacity = 1 << 31
)

// Ref is the offset of a table descriptor inside a blob.
type Ref uint64

// tableKind distinguishes single-value maps from multimaps.
type tableKind uint8

const (
	kindMap      tableKind = 1
	kindMultiMap tableKind = 2
)

func (k tableKind) String() string {
	switch k {
	case kindMap:
		return "map"
	case kindMultiMap:
		return "multimap"
	default:
		return "unknown"
	}
}

// descriptor is the 64-byte table descriptor stored in the arena ahead of
// the table arrays.
//
// Layout:
//
//	Offset  Size  Field          Type
//	0       4     Magic          0x42544842 ("BHTB")
//	4       1     Kind           uint8 (1=map, 2=multimap)
//	5       1     HashAlgorithm  uint8
//	6       2     KeySize        uint16_le
//	8       2     ValueSize      uint16_le
//	10      2     Reserved       zero
//	12      4     Capacity       uint32_le
//	16      4     Count          uint32_le
//	20      4     BucketMask     uint32_le
//	24      8     Seed           uint64_le
//	32      8     ValuesOffset   uint64_le
//	40      8     KeysOffset     uint64_le
//	48      8     LinkOffset     uint64_le
//	56      8     HeadsOffset    uint64_le
//
// Count is rewritten in place on every successful add; every other field is
// fixed when the builder is created.
type descriptor struct {
	Kind         tableKind
	Hash         HashAlgorithm
	KeySize      uint16
	ValueSize    uint16
	Capacity     uint32
	Count        uint32
	BucketMask   uint32
	Seed         uint64
	ValuesOffset uint64
	KeysOffset   uint64
	LinkOffset   uint64
	HeadsOffset  uint64
}

// countOffset is the byte offset of Count inside the descriptor.
const countOffset = 16

// encodeTo serializes the descriptor to an existing buffer.
func (d *descriptor) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], tableMagic)
	buf[4] = byte(d.Kind)
	buf[5] = byte(d.Hash)
	binary.LittleEndian.PutUint16(buf[6:8], d.KeySize)
	binary.LittleEndian.PutUint16(buf[8:10], d.ValueSize)
	buf[10], buf[11] = 0, 0
	binary.LittleEndian.PutUint32(buf[12:16], d.Capacity)
	binary.LittleEndian.PutUint32(buf[16:20], d.Count)
	binary.LittleEndian.PutUint32(buf[20:24], d.BucketMask)
	binary.LittleEndian.PutUint64(buf[24:32], d.Seed)
	binary.LittleEndian.PutUint64(buf[32:40], d.ValuesOffset)
	binary.LittleEndian.PutUint64(buf[40:48], d.KeysOffset)
	binary.LittleEndian.PutUint64(buf[48:56], d.LinkOffset)
	binary.LittleEndian.PutUint64(buf[56:64], d.HeadsOffset)
}

// decodeDescriptor parses a 64-byte descriptor.
func decodeDescriptor(buf []byte) (*descriptor, error) {
	if len(buf) < descriptorSize {
		return nil, bherrors.ErrTruncatedBlob
	}
	if binary.LittleEndian.Uint32(buf[0:4]) != tableMagic {
		return nil, bherrors.ErrInvalidMagic
	}

	d := &descriptor{
		Kind:         tableKind(buf[4]),
		Hash:         HashAlgorithm(buf[5]),
		KeySize:      binary.LittleEndian.Uint16(buf[6:8]),
		ValueSize:    binary.LittleEndian.Uint16(buf[8:10]),
		Capacity:     binary.LittleEndian.Uint32(buf[12:16]),
		Count:        binary.LittleEndian.Uint32(buf[16:20]),
		BucketMask:   binary.LittleEndian.Uint32(buf[20:24]),
		Seed:         binary.LittleEndian.Uint64(buf[24:32]),
		ValuesOffset: binary.LittleEndian.Uint64(buf[32:40]),
		KeysOffset:   binary.LittleEndian.Uint64(buf[40:48]),
		LinkOffset:   binary.LittleEndian.Uint64(buf[48:56]),
		HeadsOffset:  binary.LittleEndian.Uint64(buf[56:64]),
	}

	if d.Kind != kindMap && d.Kind != kindMultiMap {
		return nil, bherrors.ErrCorruptedBlob
	}
	if !d.Hash.valid() {
		return nil, bherrors.ErrCorruptedBlob
	}
	if d.KeySize == 0 || d.ValueSize == 0 {
		return nil, bherrors.ErrCorruptedBlob
	}
	if d.Capacity == 0 || d.Capacity > MaxCapacity || d.Count > d.Capacity {
		return nil, bherrors.ErrCorruptedBlob
	}
	if !intbits.IsPow2(uint64(d.BucketMask) + 1) {
		return nil, bherrors.ErrCorruptedBlob
	}
	return d, nil
}

// bucketCapacity returns the number of buckets.
func (d *descriptor) bucketCapacity() int {
	return int(d.BucketMask) + 1
}

// table is the read side of a frozen table: a stateless view over the
// descriptor and arrays inside a blob.
type table struct {
	desc *descriptor

	values []byte
	keys   []byte
	link   []byte
	heads  []byte

	keySize   int
	valueSize int
	count     int32
	mask      uint32
	hash      hashFunc
}

// openTable parses and bounds-checks the table at ref inside data.
func openTable(data []byte, ref Ref, kind tableKind, keySize, valueSize int) (*table, error) {
	size := uint64(len(data))
	if uint64(ref) > size || size-uint64(ref) < descriptorSize {
		return nil, bherrors.ErrTruncatedBlob
	}
	d, err := decodeDescriptor(data[ref : uint64(ref)+descriptorSize])
	if err != nil {
		return nil, err
	}
	if d.Kind != kind {
		return nil, fmt.Errorf("%w: stored %s, opened as %s", bherrors.ErrKindMismatch, d.Kind, kind)
	}
	if int(d.KeySize) != keySize || int(d.ValueSize) != valueSize {
		return nil, fmt.Errorf("%w: stored key/value sizes %d/%d, codecs %d/%d",
			bherrors.ErrCodecMismatch, d.KeySize, d.ValueSize, keySize, valueSize)
	}

	capacity := uint64(d.Capacity)
	region := func(off, n, stride uint64) ([]byte, error) {
		end := off + n*stride
		if off > size || end > size || end < off {
			return nil, bherrors.ErrCorruptedBlob
		}
		return data[off:end], nil
	}

	t := &table{
		desc:      d,
		keySize:   keySize,
		valueSize: valueSize,
		count:     int32(d.Count),
		mask:      d.BucketMask,
		hash:      newHashFunc(d.Hash, d.Seed),
	}
	if t.values, err = region(d.ValuesOffset, capacity, uint64(valueSize)); err != nil {
		return nil, err
	}
	if t.keys, err = region(d.KeysOffset, capacity, uint64(keySize)); err != nil {
		return nil, err
	}
	if t.link, err = region(d.LinkOffset, capacity, encoding.IndexSize); err != nil {
		return nil, err
	}
	if t.heads, err = region(d.HeadsOffset, uint64(d.bucketCapacity()), encoding.IndexSize); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *table) keyAt(i int32) []byte {
	off := int(i) * t.keySize
	return t.keys[off : off+t.keySize]
}

func (t *table) valueAt(i int32) []byte {
	off := int(i) * t.valueSize
	return t.values[off : off+t.valueSize]
}

// head returns the most recently inserted slot of key's bucket.
func (t *table) head(key []byte) int32 {
	bucket := int(uint32(t.hash(key)) & t.mask)
	return encoding.Index(t.heads, bucket)
}

// seek walks the chain starting at idx and returns the first slot holding
// key, or NoIndex.
//
// Chains only ever link to strictly smaller slot indices, so the walk stops
// at anything else. This keeps lookups bounded on a corrupted blob.
func (t *table) seek(key []byte, idx int32) int32 {
	limit := t.count
	for idx >= 0 && idx < limit {
		if bytes.Equal(t.keyAt(idx), key) {
			return idx
		}
		limit = idx
		idx = encoding.Index(t.link, int(idx))
	}
	return encoding.NoIndex
}

// next returns the chain successor of slot idx.
func (t *table) next(idx int32) int32 {
	return encoding.Index(t.link, int(idx))
}

// verify checks the structural invariants of the table: every head and link
// is in range, links only point backwards, and every slot is reachable from
// its key's bucket.
func (t *table) verify() error {
	n := t.count
	reached := make([]bool, n)
	for b := 0; b < len(t.heads)/encoding.IndexSize; b++ {
		idx := encoding.Index(t.heads, b)
		if idx < encoding.NoIndex || idx >= n {
			return fmt.Errorf("%w: bucket %d head %d out of range", bherrors.ErrCorruptedBlob, b, idx)
		}
		for idx >= 0 {
			if reached[idx] {
				return fmt.Errorf("%w: slot %d reached twice", bherrors.ErrCorruptedBlob, idx)
			}
			reached[idx] = true
			if got := int(uint32(t.hash(t.keyAt(idx))) & t.mask); got != b {
				return fmt.Errorf("%w: slot %d chained in bucket %d, hashes to %d", bherrors.ErrCorruptedBlob, idx, b, got)
			}
			nxt := t.next(idx)
			if nxt < encoding.NoIndex || nxt >= idx {
				return fmt.Errorf("%w: slot %d links forward to %d", bherrors.ErrCorruptedBlob, idx, nxt)
			}
			idx = nxt
		}
	}
	for i, ok := range reached {
		if !ok {
			return fmt.Errorf("%w: slot %d unreachable", bherrors.ErrCorruptedBlob, i)
		}
	}
	return nil
}
