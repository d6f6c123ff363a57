package blobhash

import (
	"encoding/binary"

	bherrors "github.com/tamirms/blobhash/errors"
	"github.com/tamirms/blobhash/internal/compress"
)

const (
	// magic number for blob files: "BLBH" in little-endian
	magic = uint32(0x48424C42)

	// version is the current file format version
	version = uint16(0x0001)

	// headerSize is the exact size of the serialized header (64 bytes)
	headerSize = 64

	// footerSize is the exact size of the serialized footer (32 bytes)
	footerSize = 32
)

// header is the 64-byte blob file header.
//
// Layout:
//
//	Offset  Size  Field        Type
//	0       4     Magic        0x48424C42 ("BLBH")
//	4       2     Version      0x0001
//	6       1     Compression  uint8 (0=none, 1=zstd, 2=lz4)
//	7       1     Reserved     zero
//	8       8     PayloadSize  uint64_le (uncompressed arena bytes)
//	16      8     StoredSize   uint64_le (payload bytes in the file)
//	24      8     Root         uint64_le (descriptor offset of the root table)
//	32      32    Reserved     [32]byte (zero)
//
// The payload starts at offset 64, so an uncompressed payload keeps the
// 8-byte alignment of the arena when the file is memory-mapped.
type header struct {
	Magic       uint32
	Version     uint16
	Compression compress.Kind
	PayloadSize uint64
	StoredSize  uint64
	Root        Ref
	Reserved    [32]byte
}

// encodeTo serializes the header to an existing buffer.
func (h *header) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	buf[6] = byte(h.Compression)
	buf[7] = 0
	binary.LittleEndian.PutUint64(buf[8:16], h.PayloadSize)
	binary.LittleEndian.PutUint64(buf[16:24], h.StoredSize)
	binary.LittleEndian.PutUint64(buf[24:32], uint64(h.Root))
	copy(buf[32:64], h.Reserved[:])
}

// decodeHeader parses a 64-byte header.
func decodeHeader(buf []byte) (*header, error) {
	if len(buf) < headerSize {
		return nil, bherrors.ErrTruncatedBlob
	}

	h := &header{
		Magic:       binary.LittleEndian.Uint32(buf[0:4]),
		Version:     binary.LittleEndian.Uint16(buf[4:6]),
		Compression: compress.Kind(buf[6]),
		PayloadSize: binary.LittleEndian.Uint64(buf[8:16]),
		StoredSize:  binary.LittleEndian.Uint64(buf[16:24]),
		Root:        Ref(binary.LittleEndian.Uint64(buf[24:32])),
	}
	copy(h.Reserved[:], buf[32:64])

	if h.Magic != magic {
		return nil, bherrors.ErrInvalidMagic
	}
	if h.Version != version {
		return nil, bherrors.ErrInvalidVersion
	}
	switch h.Compression {
	case compress.None:
		if h.StoredSize != h.PayloadSize {
			return nil, bherrors.ErrCorruptedBlob
		}
	case compress.Zstd, compress.LZ4:
	default:
		return nil, bherrors.ErrUnknownCompression
	}
	if h.PayloadSize > 0 && uint64(h.Root) >= h.PayloadSize {
		return nil, bherrors.ErrCorruptedBlob
	}

	return h, nil
}

// footer is the 32-byte file footer.
//
// Layout:
//
//	Offset  Size  Field        Type
//	0       8     PayloadHash  uint64_le (xxHash64 of the uncompressed payload)
//	8       8     StoredHash   uint64_le (xxHash64 of the payload as stored)
//	16      16    Reserved     [16]byte (zero)
type footer struct {
	PayloadHash uint64
	StoredHash  uint64
	Reserved    [16]byte
}

// encodeTo serializes the footer into an existing buffer.
func (f *footer) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], f.PayloadHash)
	binary.LittleEndian.PutUint64(buf[8:16], f.StoredHash)
	copy(buf[16:32], f.Reserved[:])
}

// decodeFooter parses a 32-byte footer.
func decodeFooter(buf []byte) (*footer, error) {
	if len(buf) < footerSize {
		return nil, bherrors.ErrTruncatedBlob
	}

	f := &footer{
		PayloadHash: binary.LittleEndian.Uint64(buf[0:8]),
		StoredHash:  binary.LittleEndian.Uint64(buf[8:16]),
	}
	copy(f.Reserved[:], buf[16:32])

	return f, nil
}
