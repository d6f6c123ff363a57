package blobhash

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"

	"github.com/tamirms/blobhash/arena"
	bherrors "github.com/tamirms/blobhash/errors"
	"github.com/tamirms/blobhash/internal/compress"
)

// Blob is a frozen, relocatable region holding one or more tables.
//
// A Blob is reference counted. It starts with one reference owned by the
// caller that created it and dropped by Close; OpenMap and OpenMultiMap take
// another that the returned reader drops on its own Close. The memory is
// released (unmapped for file-backed blobs) when the last reference is
// dropped.
//
// Thread Safety:
// - All methods are safe for concurrent use
// - Tables opened on the blob stay readable until they are closed, even if
// the creator's reference is dropped first
type Blob struct {
	data []byte
	mmap mmap.MMap // nil unless the blob maps a file
	root Ref

	payloadHash uint64
	compression Compression

	refs        atomic.Int64
	ownerClosed atomic.Bool
	log         *slog.Logger
}

func newBlob(data []byte, root Ref, payloadHash uint64, cfg *blobConfig) *Blob {
	b := &Blob{
		data:        data,
		root:        root,
		payloadHash: payloadHash,
		log:         cfg.logger,
	}
	b.refs.Store(1)
	return b
}

// Freeze seals a and wraps its contents in a Blob. The arena can no longer be
// allocated from or written to.
func Freeze(a *arena.Arena, opts ...BlobOption) *Blob {
	cfg := defaultBlobConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	data := a.Freeze()
	b := newBlob(data, cfg.root, xxhash.Sum64(data), cfg)
	b.log.Debug("arena frozen", "size", len(data), "root", cfg.root)
	return b
}

// WrapBytes wraps raw frozen arena bytes, such as a copy of another blob's
// Bytes, in a Blob. The caller must not modify data afterwards.
func WrapBytes(data []byte, opts ...BlobOption) *Blob {
	cfg := defaultBlobConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return newBlob(data, cfg.root, xxhash.Sum64(data), cfg)
}

// Open opens a blob file. Uncompressed files are memory-mapped read-only and
// the file descriptor is closed before returning.
func Open(path string, opts ...BlobOption) (*Blob, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open blob file: %w", err)
	}
	defer file.Close()
	return OpenFile(file, opts...)
}

// OpenFile opens a blob from f. The caller is responsible for closing f,
// which may be closed as soon as OpenFile returns.
func OpenFile(f *os.File, opts ...BlobOption) (*Blob, error) {
	cfg := defaultBlobConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat blob file: %w", err)
	}
	fileSize := stat.Size()
	if fileSize < headerSize+footerSize {
		return nil, bherrors.ErrTruncatedBlob
	}

	var hb [headerSize]byte
	if _, err := f.ReadAt(hb[:], 0); err != nil {
		return nil, fmt.Errorf("read blob header: %w", err)
	}
	hdr, err := decodeHeader(hb[:])
	if err != nil {
		return nil, err
	}

	if hdr.Compression != compress.None {
		// Decoded into the heap anyway, so a plain read beats a mapping.
		fadviseSequential(int(f.Fd()), 0, fileSize)
		buf := make([]byte, fileSize)
		if _, err := io.ReadFull(io.NewSectionReader(f, 0, fileSize), buf); err != nil {
			return nil, fmt.Errorf("read blob file: %w", err)
		}
		b, err := decodeFile(buf, cfg)
		if err != nil {
			return nil, err
		}
		b.log.Debug("blob opened", "path", f.Name(), "size", len(b.data), "compression", b.compression)
		return b, nil
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap blob file: %w", err)
	}
	adviseRandom(mm)

	b, err := decodeFile([]byte(mm), cfg)
	if err != nil {
		return nil, errors.Join(err, mm.Unmap())
	}
	b.mmap = mm
	if cfg.prefault {
		prefaultRegion(b.data)
	}
	b.log.Debug("blob mapped", "path", f.Name(), "size", len(b.data))
	return b, nil
}

// OpenBytes opens a blob from the bytes of a blob file. An uncompressed
// payload is used in place; the caller must not modify data while the blob
// is in use.
func OpenBytes(data []byte, opts ...BlobOption) (*Blob, error) {
	cfg := defaultBlobConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return decodeFile(data, cfg)
}

// ReadBlob reads a whole blob file from r.
func ReadBlob(r io.Reader, opts ...BlobOption) (*Blob, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return OpenBytes(data, opts...)
}

// decodeFile parses [Header][Payload][Footer] and returns the payload blob.
// The stored checksum of a compressed payload is checked before decoding;
// the payload checksum is left to Verify.
func decodeFile(buf []byte, cfg *blobConfig) (*Blob, error) {
	if len(buf) < headerSize+footerSize {
		return nil, bherrors.ErrTruncatedBlob
	}
	hdr, err := decodeHeader(buf[:headerSize])
	if err != nil {
		return nil, err
	}

	avail := uint64(len(buf) - headerSize - footerSize)
	if hdr.StoredSize > avail {
		return nil, bherrors.ErrTruncatedBlob
	}
	if hdr.StoredSize < avail {
		return nil, fmt.Errorf("%w: %d trailing bytes", bherrors.ErrCorruptedBlob, avail-hdr.StoredSize)
	}

	end := headerSize + hdr.StoredSize
	ft, err := decodeFooter(buf[end : end+footerSize])
	if err != nil {
		return nil, err
	}
	stored := buf[headerSize:end:end]

	payload := stored
	if hdr.Compression != compress.None {
		if got := xxhash.Sum64(stored); got != ft.StoredHash {
			return nil, fmt.Errorf("%w: stored payload hash %016x, want %016x", bherrors.ErrChecksumFailed, got, ft.StoredHash)
		}
		payload, err = compress.Decompress(hdr.Compression, stored, hdr.PayloadSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", bherrors.ErrCorruptedBlob, err)
		}
	}

	b := newBlob(payload, hdr.Root, ft.PayloadHash, cfg)
	b.compression = Compression(hdr.Compression)
	return b, nil
}

// Bytes returns the frozen payload. It must be treated as read-only.
func (b *Blob) Bytes() []byte {
	return b.data
}

// Size returns the payload size in bytes.
func (b *Blob) Size() int {
	return len(b.data)
}

// Root returns the reference of the blob's root table.
func (b *Blob) Root() Ref {
	return b.root
}

// Compression returns the compression the blob was stored with, if it was
// opened from a file.
func (b *Blob) Compression() Compression {
	return b.compression
}

// Mapped reports whether the blob is backed by a memory-mapped file.
func (b *Blob) Mapped() bool {
	return b.mmap != nil
}

// Retain takes another reference, to be dropped with Release. It fails with
// ErrBlobClosed once the last reference has been dropped.
func (b *Blob) Retain() error {
	for {
		n := b.refs.Load()
		if n <= 0 {
			return bherrors.ErrBlobClosed
		}
		if b.refs.CompareAndSwap(n, n+1) {
			return nil
		}
	}
}

// Release drops a reference taken with Retain and releases the blob when it
// was the last one.
func (b *Blob) Release() error {
	n := b.refs.Add(-1)
	if n > 0 {
		return nil
	}
	if n < 0 {
		b.refs.Add(1)
		return bherrors.ErrBlobClosed
	}
	b.log.Debug("blob released", "size", len(b.data), "mapped", b.mmap != nil)
	if b.mmap != nil {
		return b.mmap.Unmap()
	}
	return nil
}

// Close drops the creator's reference. Extra calls are no-ops, so they never
// take a reference held by an open Map or MultiMap.
func (b *Blob) Close() error {
	if !b.ownerClosed.CompareAndSwap(false, true) {
		return nil
	}
	return b.Release()
}

// Verify recomputes the payload checksum and compares it with the one
// recorded when the blob was frozen or written.
func (b *Blob) Verify() error {
	if b.refs.Load() <= 0 {
		return bherrors.ErrBlobClosed
	}
	if got := xxhash.Sum64(b.data); got != b.payloadHash {
		b.log.Warn("blob checksum mismatch", "got", got, "want", b.payloadHash)
		return fmt.Errorf("%w: payload hash %016x, want %016x", bherrors.ErrChecksumFailed, got, b.payloadHash)
	}
	return nil
}
