package blobhash

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/tamirms/blobhash/internal/encoding"
)

// Stats describes the shape of a frozen table.
type Stats struct {
	Kind            string
	Hash            HashAlgorithm
	Count           int
	Capacity        int
	BucketCapacity  int
	OccupiedBuckets int
	MaxChain        int
	MeanChain       float64 // over occupied buckets
	LoadFactor      float64 // Count / BucketCapacity
	DistinctKeys    int     // equals Count for maps
}

func computeStats(t *table) Stats {
	s := Stats{
		Kind:           t.desc.Kind.String(),
		Hash:           t.desc.Hash,
		Count:          int(t.count),
		Capacity:       int(t.desc.Capacity),
		BucketCapacity: t.desc.bucketCapacity(),
	}
	if t.count == 0 {
		return s
	}
	s.LoadFactor = float64(s.Count) / float64(s.BucketCapacity)

	occupied := roaring.New()
	for b := range s.BucketCapacity {
		if encoding.Index(t.heads, b) >= 0 {
			occupied.Add(uint32(b))
		}
	}
	s.OccupiedBuckets = int(occupied.GetCardinality())

	// A multimap key is counted at its newest slot: the one with no earlier
	// slot of the same key further down the chain.
	total := 0
	it := occupied.Iterator()
	for it.HasNext() {
		idx := encoding.Index(t.heads, int(it.Next()))
		n := 0
		for idx >= 0 && idx < t.count {
			n++
			if t.desc.Kind == kindMap || t.seek(t.keyAt(idx), t.next(idx)) < 0 {
				s.DistinctKeys++
			}
			idx = t.next(idx)
		}
		total += n
		s.MaxChain = max(s.MaxChain, n)
	}
	s.MeanChain = float64(total) / float64(s.OccupiedBuckets)
	return s
}
