package arena

import (
	"errors"
	"testing"

	bherrors "github.com/tamirms/blobhash/errors"
)

func TestAllocAlignmentAndZeroing(t *testing.T) {
	a := New(0)

	r1, err := a.Alloc(3, 1)
	if err != nil {
		t.Fatal(err)
	}
	if r1.Offset != 0 || r1.Size() != 3 {
		t.Fatalf("r1 = %+v, want offset 0 size 3", r1)
	}

	r2, err := a.Alloc(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if r2.Offset%Alignment != 0 {
		t.Errorf("r2 offset %d not aligned to %d", r2.Offset, Alignment)
	}
	if r2.Offset < r1.End() {
		t.Errorf("r2 overlaps r1: %+v %+v", r1, r2)
	}

	buf, err := a.Bytes(r2)
	if err != nil {
		t.Fatal(err)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d = %d, want zero", i, b)
		}
	}
}

func TestAllocSurvivesGrowth(t *testing.T) {
	a := New(8)

	r, err := a.Alloc(2, 8)
	if err != nil {
		t.Fatal(err)
	}
	copy(a.Elem(r, 1), []byte{1, 2, 3, 4, 5, 6, 7, 8})

	// Force several reallocations.
	for range 10 {
		if _, err := a.Alloc(1000, 8); err != nil {
			t.Fatal(err)
		}
	}

	got := a.Elem(r, 1)
	if got[0] != 1 || got[7] != 8 {
		t.Errorf("element lost after growth: %v", got)
	}
}

func TestAllocRejectsNonPositive(t *testing.T) {
	a := New(0)
	for _, tc := range []struct{ n, stride int }{{0, 4}, {-1, 4}, {4, 0}} {
		if _, err := a.Alloc(tc.n, tc.stride); !errors.Is(err, bherrors.ErrInvalidAlloc) {
			t.Errorf("Alloc(%d, %d): expected ErrInvalidAlloc, got %v", tc.n, tc.stride, err)
		}
	}
	if a.Len() != 0 {
		t.Errorf("failed allocations consumed %d bytes", a.Len())
	}
}

func TestFreeze(t *testing.T) {
	a := New(0)
	r, err := a.Alloc(4, 4)
	if err != nil {
		t.Fatal(err)
	}

	data := a.Freeze()
	if len(data) != 16 || cap(data) != 16 {
		t.Errorf("frozen len/cap = %d/%d, want 16/16", len(data), cap(data))
	}
	if !a.Frozen() {
		t.Error("Frozen() = false after Freeze")
	}

	if _, err := a.Alloc(1, 1); !errors.Is(err, bherrors.ErrArenaFrozen) {
		t.Errorf("Alloc after Freeze: expected ErrArenaFrozen, got %v", err)
	}
	if _, err := a.Bytes(r); !errors.Is(err, bherrors.ErrArenaFrozen) {
		t.Errorf("Bytes after Freeze: expected ErrArenaFrozen, got %v", err)
	}
}

func TestBytesOutOfRange(t *testing.T) {
	a := New(0)
	if _, err := a.Bytes(Region{Offset: 8, Len: 1, Stride: 8}); !errors.Is(err, bherrors.ErrRegionOutOfRange) {
		t.Errorf("expected ErrRegionOutOfRange, got %v", err)
	}
}
