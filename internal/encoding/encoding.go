// Package encoding provides the little-endian encodings of the index arrays
// (bucket heads and chain links) stored inside a frozen table.
package encoding

import "encoding/binary"

// IndexSize is the encoded size of a slot index.
const IndexSize = 4

// NoIndex marks the end of a chain or an empty bucket.
const NoIndex int32 = -1

// PutIndex writes slot index v at position pos of an index array.
func PutIndex(buf []byte, pos int, v int32) {
	binary.LittleEndian.PutUint32(buf[pos*IndexSize:], uint32(v))
}

// Index reads the slot index at position pos of an index array.
func Index(buf []byte, pos int) int32 {
	return int32(binary.LittleEndian.Uint32(buf[pos*IndexSize:]))
}

// FillIndex sets every entry of an index array to v.
func FillIndex(buf []byte, v int32) {
	n := len(buf) / IndexSize
	if n == 0 {
		return
	}
	PutIndex(buf, 0, v)
	// Double the initialized prefix each round.
	for filled := IndexSize; filled < n*IndexSize; filled *= 2 {
		copy(buf[filled:n*IndexSize], buf[:filled])
	}
}
