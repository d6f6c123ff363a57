// Package arena provides the append-only byte arena that frozen tables are
// built in.
//
// An Arena hands out fixed-size element regions inside one contiguous byte
// slice. Regions are addressed by offset, never by pointer, so the arena may
// grow (and move) freely while it is being built. Freeze seals the arena and
// returns the final bytes; from then on the arena refuses allocations and
// writes, and the returned bytes can be copied, written to disk or mapped
// back in without any fix-up.
//
// An Arena is not safe for concurrent use.
package arena

import (
	"fmt"
	"math"

	bherrors "github.com/tamirms/blobhash/errors"
)

// Alignment is the byte alignment of every region start.
const Alignment = 8

// Region is a reserved run of Len elements of Stride bytes each, starting at
// Offset bytes from the arena start.
type Region struct {
	Offset uint64
	Len    int
	Stride int
}

// Size returns the region size in bytes.
func (r Region) Size() int {
	return r.Len * r.Stride
}

// End returns the offset one past the last byte of the region.
func (r Region) End() uint64 {
	return r.Offset + uint64(r.Size())
}

// Arena is a bump allocator over a single growable byte slice.
type Arena struct {
	buf    []byte
	frozen bool
}

// New creates an arena. sizeHint pre-reserves capacity and may be zero.
func New(sizeHint int) *Arena {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Arena{buf: make([]byte, 0, sizeHint)}
}

// Alloc reserves n zero-initialized elements of stride bytes each.
// Both n and stride must be greater than zero.
func (a *Arena) Alloc(n, stride int) (Region, error) {
	if a.frozen {
		return Region{}, bherrors.ErrArenaFrozen
	}
	if n <= 0 || stride <= 0 {
		return Region{}, bherrors.ErrInvalidAlloc
	}
	if n > math.MaxInt/stride {
		return Region{}, fmt.Errorf("%w: %d elements of %d bytes", bherrors.ErrInvalidAlloc, n, stride)
	}
	size := n * stride

	start := alignUp(len(a.buf))
	end := start + size
	if end > cap(a.buf) {
		grown := make([]byte, len(a.buf), growCap(cap(a.buf), end))
		copy(grown, a.buf)
		a.buf = grown
	}
	oldLen := len(a.buf)
	a.buf = a.buf[:end]
	clear(a.buf[oldLen:end])

	return Region{Offset: uint64(start), Len: n, Stride: stride}, nil
}

// Bytes returns a writable view of r.
// The view is only valid until the next Alloc, which may move the arena.
func (a *Arena) Bytes(r Region) ([]byte, error) {
	if a.frozen {
		return nil, bherrors.ErrArenaFrozen
	}
	if r.End() > uint64(len(a.buf)) {
		return nil, bherrors.ErrRegionOutOfRange
	}
	return a.buf[r.Offset:r.End()], nil
}

// Elem returns a writable view of element i of r.
// Callers are expected to bounds-check i against r.Len.
func (a *Arena) Elem(r Region, i int) []byte {
	off := r.Offset + uint64(i*r.Stride)
	return a.buf[off : off+uint64(r.Stride)]
}

// Len returns the number of bytes in use.
func (a *Arena) Len() int {
	return len(a.buf)
}

// Frozen reports whether Freeze has been called.
func (a *Arena) Frozen() bool {
	return a.frozen
}

// Freeze seals the arena and returns its contents. The returned slice has no
// spare capacity; it must be treated as read-only.
// Calling Freeze again returns the same bytes.
func (a *Arena) Freeze() []byte {
	a.frozen = true
	return a.buf[:len(a.buf):len(a.buf)]
}

func alignUp(n int) int {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

// growCap doubles capacity until need fits.
func growCap(cur, need int) int {
	c := cur
	if c < 256 {
		c = 256
	}
	for c < need {
		if c > math.MaxInt/2 {
			return need
		}
		c *= 2
	}
	return c
}
