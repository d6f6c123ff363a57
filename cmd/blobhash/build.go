package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tamirms/blobhash"
	"github.com/tamirms/blobhash/arena"
)

type buildFlags struct {
	in    string
	out   string
	multi bool
}

func newBuildCmd(a *app) *cobra.Command {
	var f buildFlags
	cmd := &cobra.Command{
		Use:   "build --in pairs.csv --out table.blob",
		Short: "Build a table from key,value CSV lines",
		Long: `The build command reads unsigned 64-bit key,value pairs, one per line,
and writes a blob file holding a map (or a multimap with --multi).
Lines starting with # are ignored. A map rejects repeated keys.

Example:
  blobhash build --in pairs.csv --out table.blob
  blobhash build --in pairs.csv --out table.blob --multi --config blobhash.jsonc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBuild(cmd.OutOrStdout(), f)
		},
	}
	cmd.Flags().StringVar(&f.in, "in", "", "CSV input file (- for stdin)")
	cmd.Flags().StringVar(&f.out, "out", "", "Blob file to write")
	cmd.Flags().BoolVar(&f.multi, "multi", false, "Build a multimap that keeps repeated keys")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

type pair struct {
	line       int
	key, value uint64
}

func (a *app) runBuild(w io.Writer, f buildFlags) error {
	start := time.Now()
	pairs, err := readPairs(f.in)
	if err != nil {
		return err
	}

	ar := arena.New(0)
	opts := a.cfg.buildOptions(a.log)
	capacity := max(len(pairs), 1)
	if f.multi {
		err = buildMultiMap(ar, capacity, pairs, opts)
	} else {
		err = buildMap(ar, capacity, pairs, opts)
	}
	if err != nil {
		return err
	}

	blob := blobhash.Freeze(ar, blobhash.WithBlobLogger(a.log))
	defer blob.Close()
	if err := blob.WriteFile(f.out, blobhash.WithCompression(a.cfg.compression())); err != nil {
		return err
	}

	if a.jsonOut {
		return printJSON(w, map[string]any{
			"out":      f.out,
			"entries":  len(pairs),
			"bytes":    blob.Size(),
			"duration": time.Since(start).String(),
		})
	}
	fmt.Fprintf(w, "wrote %s: %d entries, %d payload bytes in %v\n",
		f.out, len(pairs), blob.Size(), time.Since(start).Round(time.Millisecond))
	return nil
}

func buildMap(ar *arena.Arena, capacity int, pairs []pair, opts []blobhash.BuildOption) error {
	b, err := blobhash.NewMapBuilder(ar, capacity, blobhash.Uint64, blobhash.Uint64, opts...)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		ok, err := b.TryAdd(p.key, p.value)
		if err != nil {
			return fmt.Errorf("line %d: %w", p.line, err)
		}
		if !ok {
			return fmt.Errorf("line %d: key %d repeated (use --multi to keep every value)", p.line, p.key)
		}
	}
	_, err = b.Finish()
	return err
}

func buildMultiMap(ar *arena.Arena, capacity int, pairs []pair, opts []blobhash.BuildOption) error {
	b, err := blobhash.NewMultiMapBuilder(ar, capacity, blobhash.Uint64, blobhash.Uint64, opts...)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		if err := b.Add(p.key, p.value); err != nil {
			return fmt.Errorf("line %d: %w", p.line, err)
		}
	}
	_, err = b.Finish()
	return err
}

// readPairs parses path as two-column CSV.
func readPairs(path string) ([]pair, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	var pairs []pair
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return pairs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		line, _ := cr.FieldPos(0)
		k, err := strconv.ParseUint(strings.TrimSpace(rec[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: key: %w", path, line, err)
		}
		v, err := strconv.ParseUint(strings.TrimSpace(rec[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: value: %w", path, line, err)
		}
		pairs = append(pairs, pair{line: line, key: k, value: v})
	}
}
