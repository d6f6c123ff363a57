// Bench is a benchmarking tool for measuring blobhash build performance,
// lookup throughput, blob size and memory usage.
//
// Usage:
//
//	go run ./cmd/bench --keys 10000000 --ratio 2 --open mmap
//
// Flags:
//
//	--keys        Number of keys to insert (default: 10,000,000)
//	--ratio       Buckets per unit of capacity (default: 2)
//	--hash        Key hash: xxh64, xxh3 or murmur3 (default: xxh64)
//	--multi       Build a multimap with --dups values per key
//	--open        How to reopen the table: mmap, heap, zstd or lz4 (default: mmap)
//	--readers     Goroutines for the parallel lookup phase (default: GOMAXPROCS)
package main

import (
	"context"
	"fmt"
	mrand "math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"runtime/metrics"
	"runtime/pprof"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spaolacci/murmur3"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/tamirms/blobhash"
	"github.com/tamirms/blobhash/arena"
)

// getMaxRSS returns the maximum resident set size in bytes.
// Uses getrusage(RUSAGE_SELF) which tracks peak RSS since process start.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

// peakSampler records peak heap and RSS every 10ms. It uses runtime/metrics
// instead of ReadMemStats to avoid stop-the-world pauses.
type peakSampler struct {
	heap, rss atomic.Uint64
	done      chan struct{}
}

func startPeakSampler() *peakSampler {
	runtime.GC()
	var baseline runtime.MemStats
	runtime.ReadMemStats(&baseline)
	s := &peakSampler{done: make(chan struct{})}
	s.heap.Store(baseline.Alloc)
	s.rss.Store(getMaxRSS())

	go func() {
		samples := []metrics.Sample{{Name: "/memory/classes/heap/objects:bytes"}}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				metrics.Read(samples)
				storeMax(&s.heap, samples[0].Value.Uint64())
				storeMax(&s.rss, getMaxRSS())
			}
		}
	}()
	return s
}

func (s *peakSampler) stop() (heap, rss uint64) {
	close(s.done)
	var final runtime.MemStats
	runtime.ReadMemStats(&final)
	storeMax(&s.heap, final.Alloc)
	storeMax(&s.rss, getMaxRSS())
	return s.heap.Load(), s.rss.Load()
}

func storeMax(v *atomic.Uint64, n uint64) {
	for {
		old := v.Load()
		if n <= old || v.CompareAndSwap(old, n) {
			return
		}
	}
}

// mixKey spreads sequential ids over the key space.
func mixKey(i uint64, seed uint32) uint64 {
	var b [8]byte
	for j := range b {
		b[j] = byte(i >> (8 * j))
	}
	return murmur3.Sum64WithSeed(b[:], seed)
}

type result struct {
	build, reopen, serial, parallel time.Duration
	fileSize                        int64
	queries                         int
	heap, rss                       uint64
	stats                           blobhash.Stats
}

func main() {
	numKeys := flag.IntP("keys", "n", 10_000_000, "number of keys")
	ratio := flag.Int("ratio", blobhash.DefaultBucketRatio, "buckets per unit of capacity")
	hashName := flag.String("hash", "xxh64", "key hash: xxh64, xxh3 or murmur3")
	multi := flag.Bool("multi", false, "build a multimap")
	dups := flag.Int("dups", 4, "values per key in multimap mode")
	openMode := flag.String("open", "mmap", "reopen mode: mmap, heap, zstd or lz4")
	readers := flag.Int("readers", runtime.GOMAXPROCS(0), "goroutines for parallel lookups")
	queries := flag.Int("queries", 1_000_000, "lookups per phase")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file (build phase only)")
	memprofile := flag.String("memprofile", "", "write memory profile to file (build phase only)")
	flag.Parse()

	hash, ok := blobhash.ParseHashAlgorithm(*hashName)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown hash %q\n", *hashName)
		os.Exit(2)
	}
	if *numKeys < 1 || *dups < 1 || *readers < 1 || *queries < 1 {
		fmt.Fprintln(os.Stderr, "--keys, --dups, --readers and --queries must be positive")
		os.Exit(2)
	}

	tmpDir, err := os.MkdirTemp("", "bench-")
	if err != nil {
		fmt.Fprintf(os.Stderr, "create temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(tmpDir)

	cfg := benchConfig{
		keys:     *numKeys,
		opts:     []blobhash.BuildOption{blobhash.WithBucketRatio(*ratio), blobhash.WithHashAlgorithm(hash)},
		multi:    *multi,
		dups:     *dups,
		openMode: *openMode,
		readers:  *readers,
		queries:  *queries,
		path:     filepath.Join(tmpDir, "bench.blob"),
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		cfg.afterBuild = append(cfg.afterBuild, pprof.StopCPUProfile)
	}
	if *memprofile != "" {
		cfg.afterBuild = append(cfg.afterBuild, func() {
			f, err := os.Create(*memprofile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not create memory profile: %v\n", err)
				return
			}
			defer f.Close()
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Fprintf(os.Stderr, "could not write memory profile: %v\n", err)
			}
		})
	}

	res, err := run(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bench: %v\n", err)
		os.Exit(1)
	}
	printResult(cfg, res)
}

type benchConfig struct {
	keys       int
	opts       []blobhash.BuildOption
	multi      bool
	dups       int
	openMode   string
	readers    int
	queries    int
	path       string
	afterBuild []func()
}

func (c benchConfig) entries() int {
	if c.multi {
		return c.keys * c.dups
	}
	return c.keys
}

func run(ctx context.Context, cfg benchConfig) (*result, error) {
	var res result
	const seed = 0x1234

	fmt.Println("Building table...")
	sampler := startPeakSampler()
	start := time.Now()
	a := arena.New(0)
	if err := build(a, cfg, seed); err != nil {
		return nil, err
	}
	blob := blobhash.Freeze(a)
	res.build = time.Since(start)
	for _, f := range cfg.afterBuild {
		f()
	}
	res.heap, res.rss = sampler.stop()

	compression := blobhash.CompressionNone
	switch cfg.openMode {
	case "mmap", "heap":
	case "zstd":
		compression = blobhash.CompressionZstd
	case "lz4":
		compression = blobhash.CompressionLZ4
	default:
		blob.Close()
		return nil, fmt.Errorf("unknown open mode %q", cfg.openMode)
	}
	err := blob.WriteFile(cfg.path, blobhash.WithCompression(compression))
	blob.Close()
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(cfg.path)
	if err != nil {
		return nil, err
	}
	res.fileSize = info.Size()

	fmt.Println("Reopening table...")
	start = time.Now()
	blob, err = reopen(cfg)
	if err != nil {
		return nil, err
	}
	defer blob.Close()
	res.reopen = time.Since(start)

	lookup, stats, closeFn, err := openLookup(blob, cfg.multi)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	res.stats = stats

	queryOrder := make([]uint64, cfg.queries)
	rng := mrand.New(mrand.NewPCG(seed, seed))
	for i := range queryOrder {
		queryOrder[i] = mixKey(uint64(rng.IntN(cfg.keys)), seed)
	}

	fmt.Println("Benchmarking lookups...")
	start = time.Now()
	for _, k := range queryOrder {
		if !lookup(k) {
			return nil, fmt.Errorf("key %d missing", k)
		}
	}
	res.serial = time.Since(start)

	g, _ := errgroup.WithContext(ctx)
	per := (len(queryOrder) + cfg.readers - 1) / cfg.readers
	start = time.Now()
	for r := range cfg.readers {
		lo := min(r*per, len(queryOrder))
		hi := min(lo+per, len(queryOrder))
		g.Go(func() error {
			for _, k := range queryOrder[lo:hi] {
				if !lookup(k) {
					return fmt.Errorf("key %d missing", k)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res.parallel = time.Since(start)
	res.queries = len(queryOrder)
	return &res, nil
}

// reopen loads the written table: "heap" reads the file into memory, the
// other modes go through Open, which maps uncompressed files.
func reopen(cfg benchConfig) (*blobhash.Blob, error) {
	if cfg.openMode != "heap" {
		return blobhash.Open(cfg.path)
	}
	data, err := os.ReadFile(cfg.path)
	if err != nil {
		return nil, err
	}
	return blobhash.OpenBytes(data)
}

func build(a *arena.Arena, cfg benchConfig, seed uint32) error {
	if cfg.multi {
		b, err := blobhash.NewMultiMapBuilder(a, cfg.entries(), blobhash.Uint64, blobhash.Uint64, cfg.opts...)
		if err != nil {
			return err
		}
		for d := range cfg.dups {
			for i := range uint64(cfg.keys) {
				if err := b.Add(mixKey(i, seed), i*uint64(cfg.dups)+uint64(d)); err != nil {
					return err
				}
			}
		}
		_, err = b.Finish()
		return err
	}

	b, err := blobhash.NewMapBuilder(a, cfg.keys, blobhash.Uint64, blobhash.Uint64, cfg.opts...)
	if err != nil {
		return err
	}
	for i := range uint64(cfg.keys) {
		// Mixed keys collide with negligible probability; TryAdd skips them.
		if _, err := b.TryAdd(mixKey(i, seed), i); err != nil {
			return err
		}
	}
	_, err = b.Finish()
	return err
}

func openLookup(blob *blobhash.Blob, multi bool) (func(uint64) bool, blobhash.Stats, func(), error) {
	if multi {
		m, err := blobhash.OpenMultiMap(blob, blobhash.Uint64, blobhash.Uint64)
		if err != nil {
			return nil, blobhash.Stats{}, nil, err
		}
		return func(k uint64) bool {
			n := 0
			for range m.GetAll(k) {
				n++
			}
			return n > 0
		}, m.Stats(), func() { m.Close() }, nil
	}
	m, err := blobhash.OpenMap(blob, blobhash.Uint64, blobhash.Uint64)
	if err != nil {
		return nil, blobhash.Stats{}, nil, err
	}
	return func(k uint64) bool {
		_, ok := m.Get(k)
		return ok
	}, m.Stats(), func() { m.Close() }, nil
}

func printResult(cfg benchConfig, r *result) {
	n := float64(cfg.entries())
	kind := "map"
	if cfg.multi {
		kind = "multimap"
	}
	serialNs := float64(r.serial.Nanoseconds()) / float64(r.queries)
	parallelQPS := float64(r.queries) / r.parallel.Seconds() / 1_000_000

	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦══════════════════╗\n")
	fmt.Printf("║ Kind: %-14s║ Open: %-10s ║\n", kind, cfg.openMode)
	fmt.Printf("╠═════════════════════╬══════════════════╣\n")
	fmt.Printf("║ Entries             ║ %12d     ║\n", cfg.entries())
	fmt.Printf("║ Bytes per entry     ║ %12.2f     ║\n", float64(r.fileSize)/n)
	fmt.Printf("║ File size           ║ %9.1f MB     ║\n", float64(r.fileSize)/1_000_000)
	fmt.Printf("║ Load factor         ║ %12.3f     ║\n", r.stats.LoadFactor)
	fmt.Printf("║ Max chain           ║ %12d     ║\n", r.stats.MaxChain)
	fmt.Printf("║ Mean chain          ║ %12.3f     ║\n", r.stats.MeanChain)
	fmt.Printf("║ Build time          ║ %9.2f sec    ║\n", r.build.Seconds())
	fmt.Printf("║ Build throughput    ║ %9.2f M/sec  ║\n", n/r.build.Seconds()/1_000_000)
	fmt.Printf("║ Reopen time         ║ %9.2f ms     ║\n", float64(r.reopen.Microseconds())/1000)
	fmt.Printf("║ Lookup latency      ║ %9.1f ns     ║\n", serialNs)
	fmt.Printf("║ Parallel (%3d)      ║ %9.2f M/sec  ║\n", cfg.readers, parallelQPS)
	fmt.Printf("║ Peak heap memory    ║ %9.1f MB     ║\n", float64(r.heap)/1_000_000)
	fmt.Printf("║ Peak RSS memory     ║ %9.1f MB     ║\n", float64(r.rss)/1_000_000)
	fmt.Printf("╚═════════════════════╩══════════════════╝\n")
}
