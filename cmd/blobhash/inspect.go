package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

var errKeysMissing = errors.New("some keys were not found")

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <file>",
		Short: "Show table and blob statistics",
		Long: `The stats command shows the shape of the root table in a blob file:
entry count, capacity, bucket occupancy and chain lengths.

Example:
  blobhash stats table.blob
  blobhash stats table.blob --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStats(cmd.OutOrStdout(), args[0])
		},
	}
}

type statsOutput struct {
	File            string  `json:"file"`
	Kind            string  `json:"kind"`
	Hash            string  `json:"hash"`
	Compression     string  `json:"compression"`
	Mapped          bool    `json:"mapped"`
	PayloadBytes    int     `json:"payload_bytes"`
	Count           int     `json:"count"`
	Capacity        int     `json:"capacity"`
	BucketCapacity  int     `json:"bucket_capacity"`
	OccupiedBuckets int     `json:"occupied_buckets"`
	DistinctKeys    int     `json:"distinct_keys"`
	MaxChain        int     `json:"max_chain"`
	MeanChain       float64 `json:"mean_chain"`
	LoadFactor      float64 `json:"load_factor"`
}

func (a *app) runStats(w io.Writer, path string) error {
	t, err := a.openTable(path)
	if err != nil {
		return err
	}
	defer t.Close()

	s := t.stats()
	out := statsOutput{
		File:            path,
		Kind:            s.Kind,
		Hash:            s.Hash.String(),
		Compression:     t.blob.Compression().String(),
		Mapped:          t.blob.Mapped(),
		PayloadBytes:    t.blob.Size(),
		Count:           s.Count,
		Capacity:        s.Capacity,
		BucketCapacity:  s.BucketCapacity,
		OccupiedBuckets: s.OccupiedBuckets,
		DistinctKeys:    s.DistinctKeys,
		MaxChain:        s.MaxChain,
		MeanChain:       s.MeanChain,
		LoadFactor:      s.LoadFactor,
	}
	if a.jsonOut {
		return printJSON(w, out)
	}

	fmt.Fprintf(w, "File:          %s\n", out.File)
	fmt.Fprintf(w, "Kind:          %s\n", out.Kind)
	fmt.Fprintf(w, "Hash:          %s\n", out.Hash)
	fmt.Fprintf(w, "Compression:   %s (mapped: %v)\n", out.Compression, out.Mapped)
	fmt.Fprintf(w, "Payload:       %d bytes\n", out.PayloadBytes)
	fmt.Fprintf(w, "Entries:       %d / %d\n", out.Count, out.Capacity)
	fmt.Fprintf(w, "Distinct keys: %d\n", out.DistinctKeys)
	fmt.Fprintf(w, "Buckets:       %d (%d occupied)\n", out.BucketCapacity, out.OccupiedBuckets)
	fmt.Fprintf(w, "Chains:        max %d, mean %.2f\n", out.MaxChain, out.MeanChain)
	fmt.Fprintf(w, "Load factor:   %.3f\n", out.LoadFactor)
	return nil
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Check blob checksums and table structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runVerify(cmd.OutOrStdout(), args[0])
		},
	}
}

func (a *app) runVerify(w io.Writer, path string) error {
	t, err := a.openTable(path)
	if err != nil {
		return err
	}
	defer t.Close()

	if err := t.verify(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(w, "%s: ok (%d entries)\n", path, t.count())
	return nil
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <file> <key>...",
		Short: "Look up keys",
		Long: `The get command prints the values stored under each key. Multimap keys
print every value, most recently added first.

Example:
  blobhash get table.blob 42 43`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGet(cmd.OutOrStdout(), args[0], args[1:])
		},
	}
}

func (a *app) runGet(w io.Writer, path string, keys []string) error {
	t, err := a.openTable(path)
	if err != nil {
		return err
	}
	defer t.Close()

	results := make(map[string][]uint64, len(keys))
	missing := false
	for _, s := range keys {
		k, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("key %q: %w", s, err)
		}
		var vs []uint64
		for v := range t.values(k) {
			vs = append(vs, v)
		}
		results[s] = vs
		if len(vs) == 0 {
			missing = true
		}
		if !a.jsonOut {
			printValues(w, s, vs)
		}
	}
	if a.jsonOut {
		if err := printJSON(w, results); err != nil {
			return err
		}
	}
	if missing {
		return errKeysMissing
	}
	return nil
}

func printValues(w io.Writer, key string, vs []uint64) {
	if len(vs) == 0 {
		fmt.Fprintf(w, "%s: not found\n", key)
		return
	}
	fmt.Fprintf(w, "%s:", key)
	for _, v := range vs {
		fmt.Fprintf(w, " %d", v)
	}
	fmt.Fprintln(w)
}
