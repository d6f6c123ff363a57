// Package compress implements the payload compression of blob files.
package compress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Kind identifies a compression algorithm. The values are stored in blob
// file headers and must not change.
type Kind uint8

const (
	None Kind = 0
	Zstd Kind = 1
	LZ4  Kind = 2
)

// ErrUnknownKind is returned for a Kind outside the known set.
var ErrUnknownKind = errors.New("unknown compression kind")

// minSaving is the fraction a compressed payload must save to be kept.
const minSaving = 0.1

// maxPrealloc caps the output buffer reserved from an untrusted size before
// decoding starts.
const maxPrealloc = 64 << 20

// lz4MaxRatio bounds how far an lz4 block can expand: one token byte plus
// 255-byte length extensions per match.
const lz4MaxRatio = 255

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	return enc, nil
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return dec, nil
}

// Compress compresses data with kind. It returns the kind actually used:
// payloads that do not shrink by at least minSaving are returned unchanged
// with kind None.
func Compress(kind Kind, data []byte) ([]byte, Kind, error) {
	if kind == None || len(data) == 0 {
		return data, None, nil
	}

	var out []byte
	switch kind {
	case Zstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, None, err
		}
		out = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, None, fmt.Errorf("lz4 compress: %w", err)
		}
		out = buf[:n] // n == 0 means incompressible
	default:
		return nil, None, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}

	if len(out) == 0 || float64(len(out)) > float64(len(data))*(1-minSaving) {
		return data, None, nil
	}
	return out, kind, nil
}

// Decompress expands src, which must decode to exactly size bytes.
func Decompress(kind Kind, src []byte, size uint64) ([]byte, error) {
	switch kind {
	case None:
		if uint64(len(src)) != size {
			return nil, fmt.Errorf("stored size %d, expected %d", len(src), size)
		}
		return src, nil
	case Zstd:
		var fh zstd.Header
		if err := fh.Decode(src); err != nil {
			return nil, fmt.Errorf("zstd frame header: %w", err)
		}
		if fh.HasFCS && fh.FrameContentSize != size {
			return nil, fmt.Errorf("zstd frame holds %d bytes, expected %d", fh.FrameContentSize, size)
		}
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(src, make([]byte, 0, min(size, maxPrealloc)))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if uint64(len(out)) != size {
			return nil, fmt.Errorf("zstd decompressed %d bytes, expected %d", len(out), size)
		}
		return out, nil
	case LZ4:
		if size > lz4MaxRatio*uint64(len(src))+16 {
			return nil, fmt.Errorf("lz4 block of %d bytes cannot expand to %d", len(src), size)
		}
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(src, out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if uint64(n) != size {
			return nil, fmt.Errorf("lz4 decompressed %d bytes, expected %d", n, size)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
}
