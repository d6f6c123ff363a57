// Package blobhash implements read-only hash maps and multimaps stored in a
// single pointer-free, relocatable byte region (a blob).
//
// Every link inside a table is an array index relative to the blob start, so
// a frozen blob can be copied byte-for-byte, written to disk and
// memory-mapped back, or fetched from object storage, and then read with no
// fix-up step. Tables are built in one append-only pass with a fixed
// capacity; once the arena is frozen any number of goroutines may read them
// without locking.
//
// # Basic Usage
//
// Building a map:
//
//	a := arena.New(0)
//	b, err := blobhash.NewMapBuilder(a, len(src), blobhash.Uint64, blobhash.Uint64)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for k, v := range src {
//	    if err := b.Add(k, v); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//	if _, err := b.Finish(); err != nil {
//	    log.Fatal(err)
//	}
//	blob := blobhash.Freeze(a)
//	defer blob.Close()
//	if err := blob.WriteFile("table.blob"); err != nil {
//	    log.Fatal(err)
//	}
//
// Querying:
//
//	blob, err := blobhash.Open("table.blob")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	m, err := blobhash.OpenMap(blob, blobhash.Uint64, blobhash.Uint64)
//	blob.Close() // m holds its own reference
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Close()
//	v, ok := m.Get(42)
//
// A multimap keeps every value added under a key and enumerates them most
// recently added first:
//
//	for v := range mm.GetAll(key) {
//	    ...
//	}
//
// # Checking Modes
//
// By default capacity overflow, duplicate keys in Add and missing keys in
// Map.Lookup are reported as errors. Building with -tags blobhash_unchecked
// turns them into no-ops and zero values; see StrictChecking.
//
// # Package Structure
//
//   - Public API: map.go, multimap.go (builders and readers), construct.go (BuildMap)
//   - Configuration: builder_options.go, blob_options.go (functional options)
//   - Table layout: table.go (descriptor, chain walk), builder.go (append path)
//   - Keys: codec.go (fixed-size encodings), hash.go (hash algorithms)
//   - Blobs: blob.go (Freeze, Open, reference counting), header.go, blob_writer.go
//   - Allocation: arena/ (offset-based bump allocator)
//   - Storage: blobstore/ (local, memory, S3, MinIO)
//   - Platform: prefault_*.go, fadvise_*.go (OS-specific hints)
package blobhash
