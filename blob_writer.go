package blobhash

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/natefinch/atomic"

	bherrors "github.com/tamirms/blobhash/errors"
	"github.com/tamirms/blobhash/internal/compress"
)

// WriteTo writes the blob as an uncompressed blob file. It implements
// io.WriterTo.
func (b *Blob) WriteTo(w io.Writer) (int64, error) {
	return b.Encode(w)
}

// Encode writes the blob file format: [Header 64B][Payload][Footer 32B].
func (b *Blob) Encode(w io.Writer, opts ...WriteOption) (int64, error) {
	cfg, err := b.writeConfig(opts)
	if err != nil {
		return 0, err
	}

	stored, kind, err := compress.Compress(compress.Kind(cfg.compression), b.data)
	if err != nil {
		return 0, fmt.Errorf("compress blob: %w", err)
	}

	hdr := header{
		Magic:       magic,
		Version:     version,
		Compression: kind,
		PayloadSize: uint64(len(b.data)),
		StoredSize:  uint64(len(stored)),
		Root:        b.root,
	}
	ft := footer{
		PayloadHash: b.payloadHash,
		StoredHash:  b.payloadHash,
	}
	if kind != compress.None {
		ft.StoredHash = xxhash.Sum64(stored)
	}

	var hb [headerSize]byte
	hdr.encodeTo(hb[:])
	var fb [footerSize]byte
	ft.encodeTo(fb[:])

	var total int64
	for _, part := range [][]byte{hb[:], stored, fb[:]} {
		n, err := w.Write(part)
		total += int64(n)
		if err != nil {
			return total, fmt.Errorf("write blob: %w", err)
		}
	}

	b.log.Debug("blob written",
		"payload", len(b.data),
		"stored", len(stored),
		"compression", Compression(kind))
	return total, nil
}

// WriteFile writes the blob to path atomically: readers of path see either
// the previous file or the complete new one.
func (b *Blob) WriteFile(path string, opts ...WriteOption) error {
	// Fail before creating a temp file; errors from inside the copy lose
	// their identity.
	if _, err := b.writeConfig(opts); err != nil {
		return err
	}

	pr, pw := io.Pipe()
	go func() {
		_, err := b.Encode(pw, opts...)
		pw.CloseWithError(err)
	}()

	err := atomic.WriteFile(path, pr)
	// Unblocks the encoder if WriteFile gave up early.
	pr.CloseWithError(io.ErrClosedPipe)
	if err != nil {
		return fmt.Errorf("write blob file: %w", err)
	}
	return nil
}

// writeConfig applies opts and checks the blob can be written with them.
func (b *Blob) writeConfig(opts []WriteOption) (*writeConfig, error) {
	cfg := defaultWriteConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if b.refs.Load() <= 0 {
		return nil, bherrors.ErrBlobClosed
	}
	switch cfg.compression {
	case CompressionNone, CompressionZstd, CompressionLZ4:
	default:
		return nil, fmt.Errorf("%w: %d", bherrors.ErrUnknownCompression, cfg.compression)
	}
	return cfg, nil
}
