package blobhash

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	bherrors "github.com/tamirms/blobhash/errors"
)

// Codec converts a key or value type to and from a fixed-size little-endian
// encoding stored inside a blob.
//
// Two keys are equal iff their encodings are equal, and the hash of a key is
// the hash of its encoding. Float32 and Float64 keys follow ==: -0 and +0
// are the same key and NaN keys are rejected with ErrUnencodable. As values
// they are stored bit for bit. Codecs must therefore be deterministic: encoding
// the same value twice must produce the same bytes.
type Codec[T any] interface {
	// Size returns the encoded size in bytes. It must be constant and > 0.
	Size() int
	// Put encodes v into dst. len(dst) == Size().
	Put(dst []byte, v T)
	// Get decodes a value from src. len(src) == Size().
	Get(src []byte) T
}

// checker is implemented by codecs that cannot represent every value of T.
type checker[T any] interface {
	Check(v T) error
}

// keyEncoder is implemented by codecs whose key equality differs from
// equality of their value encoding. Keys are checked and encoded with it;
// values keep using Put.
type keyEncoder[T any] interface {
	CheckKey(v T) error
	PutKey(dst []byte, v T)
}

// keyFuncs returns how keys of c are validated and encoded. check is nil
// when every value is a valid key.
func keyFuncs[T any](c Codec[T]) (check func(T) error, put func([]byte, T)) {
	if ke, ok := c.(keyEncoder[T]); ok {
		return ke.CheckKey, ke.PutKey
	}
	if chk, ok := c.(checker[T]); ok {
		return chk.Check, c.Put
	}
	return nil, c.Put
}

// Int2 is a two-component integer vector key.
type Int2 [2]int32

// Int3 is a three-component integer vector key.
type Int3 [3]int32

// Built-in codecs.
var (
	Int32   Codec[int32]   = int32Codec{}
	Int64   Codec[int64]   = int64Codec{}
	Uint32  Codec[uint32]  = uint32Codec{}
	Uint64  Codec[uint64]  = uint64Codec{}
	Int     Codec[int]     = intCodec{}
	Float32 Codec[float32] = float32Codec{}
	Float64 Codec[float64] = float64Codec{}
	Int2s   Codec[Int2]    = int2Codec{}
	Int3s   Codec[Int3]    = int3Codec{}
)

type int32Codec struct{}

func (int32Codec) Size() int { return 4 }
func (int32Codec) Put(dst []byte, v int32) { binary.LittleEndian.PutUint32(dst, uint32(v)) }
func (int32Codec) Get(src []byte) int32 { return int32(binary.LittleEndian.Uint32(src)) }

type int64Codec struct{}

func (int64Codec) Size() int { return 8 }
func (int64Codec) Put(dst []byte, v int64) { binary.LittleEndian.PutUint64(dst, uint64(v)) }
func (int64Codec) Get(src []byte) int64 { return int64(binary.LittleEndian.Uint64(src)) }

type uint32Codec struct{}

func (uint32Codec) Size() int { return 4 }
func (uint32Codec) Put(dst []byte, v uint32) { binary.LittleEndian.PutUint32(dst, v) }
func (uint32Codec) Get(src []byte) uint32 { return binary.LittleEndian.Uint32(src) }

type uint64Codec struct{}

func (uint64Codec) Size() int { return 8 }
func (uint64Codec) Put(dst []byte, v uint64) { binary.LittleEndian.PutUint64(dst, v) }
func (uint64Codec) Get(src []byte) uint64 { return binary.LittleEndian.Uint64(src) }

// intCodec stores int as 64 bits regardless of platform word size.
type intCodec struct{}

func (intCodec) Size() int { return 8 }
func (intCodec) Put(dst []byte, v int) { binary.LittleEndian.PutUint64(dst, uint64(v)) }
func (intCodec) Get(src []byte) int { return int(int64(binary.LittleEndian.Uint64(src))) }

type float32Codec struct{}

func (float32Codec) Size() int { return 4 }
func (float32Codec) Put(dst []byte, v float32) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
}
func (float32Codec) Get(src []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(src))
}
func (float32Codec) CheckKey(v float32) error {
	if math.IsNaN(float64(v)) {
		return fmt.Errorf("%w: NaN key", bherrors.ErrUnencodable)
	}
	return nil
}
func (c float32Codec) PutKey(dst []byte, v float32) {
	if v == 0 {
		v = 0 // drops the sign of -0
	}
	c.Put(dst, v)
}

type float64Codec struct{}

func (float64Codec) Size() int { return 8 }
func (float64Codec) Put(dst []byte, v float64) {
	binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
}
func (float64Codec) Get(src []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(src))
}
func (float64Codec) CheckKey(v float64) error {
	if math.IsNaN(v) {
		return fmt.Errorf("%w: NaN key", bherrors.ErrUnencodable)
	}
	return nil
}
func (c float64Codec) PutKey(dst []byte, v float64) {
	if v == 0 {
		v = 0 // drops the sign of -0
	}
	c.Put(dst, v)
}

type int2Codec struct{}

func (int2Codec) Size() int { return 8 }
func (int2Codec) Put(dst []byte, v Int2) {
	binary.LittleEndian.PutUint32(dst[0:4], uint32(v[0]))
	binary.LittleEndian.PutUint32(dst[4:8], uint32(v[1]))
}
func (int2Codec) Get(src []byte) Int2 {
	return Int2{
		int32(binary.LittleEndian.Uint32(src[0:4])),
		int32(binary.LittleEndian.Uint32(src[4:8])),
	}
}

type int3Codec struct{}

func (int3Codec) Size() int { return 12 }
func (int3Codec) Put(dst []byte, v Int3) {
	binary.LittleEndian.PutUint32(dst[0:4], uint32(v[0]))
	binary.LittleEndian.PutUint32(dst[4:8], uint32(v[1]))
	binary.LittleEndian.PutUint32(dst[8:12], uint32(v[2]))
}
func (int3Codec) Get(src []byte) Int3 {
	return Int3{
		int32(binary.LittleEndian.Uint32(src[0:4])),
		int32(binary.LittleEndian.Uint32(src[4:8])),
		int32(binary.LittleEndian.Uint32(src[8:12])),
	}
}

// FixedString returns a codec storing strings in n bytes, zero padded.
// Strings longer than n bytes, or ending in a NUL byte, are rejected at add
// time with ErrUnencodable since the padding would make them ambiguous.
func FixedString(n int) Codec[string] {
	return fixedStringCodec{n: n}
}

type fixedStringCodec struct{ n int }

func (c fixedStringCodec) Size() int { return c.n }

func (c fixedStringCodec) Put(dst []byte, v string) {
	k := copy(dst, v)
	clear(dst[k:])
}

func (c fixedStringCodec) Get(src []byte) string {
	return string(bytes.TrimRight(src, "\x00"))
}

func (c fixedStringCodec) Check(v string) error {
	if len(v) > c.n {
		return fmt.Errorf("%w: string of %d bytes exceeds fixed size %d", bherrors.ErrUnencodable, len(v), c.n)
	}
	if len(v) > 0 && v[len(v)-1] == 0 {
		return fmt.Errorf("%w: string ends in NUL", bherrors.ErrUnencodable)
	}
	return nil
}

// FixedBytes returns a codec for byte slices of exactly n bytes.
// Get returns a copy, so results stay valid after the blob is closed.
func FixedBytes(n int) Codec[[]byte] {
	return fixedBytesCodec{n: n}
}

type fixedBytesCodec struct{ n int }

func (c fixedBytesCodec) Size() int { return c.n }
func (c fixedBytesCodec) Put(dst []byte, v []byte) { copy(dst, v) }
func (c fixedBytesCodec) Get(src []byte) []byte { return bytes.Clone(src) }

func (c fixedBytesCodec) Check(v []byte) error {
	if len(v) != c.n {
		return fmt.Errorf("%w: %d bytes, codec expects %d", bherrors.ErrUnencodable, len(v), c.n)
	}
	return nil
}
