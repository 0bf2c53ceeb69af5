// Package heap implements the per-allocation arena from spec §3/§4.10: a
// mapping from allocation base to a fixed-length array of runtime values,
// addressed by (base, offset) keys whose comparison is only meaningful
// within one allocation.
package heap

import (
	"bril/internal/errors"
	"bril/internal/rt"
)

// Heap is a mapping from allocation base to its backing storage.
type Heap struct {
	storage map[int][]*rt.Value
	nextBase int
}

// New returns an empty heap.
func New() *Heap {
	return &Heap{storage: make(map[int][]*rt.Value), nextBase: 1}
}

// Alloc allocates a fresh array of length n and returns a key to its
// first element. n must be positive.
func (h *Heap) Alloc(n int64, loc errors.Location) (rt.Key, error) {
	if n <= 0 {
		return rt.Key{}, errors.Fatal(errors.ErrInvalidAllocSize,
			"alloc requires a positive size", loc)
	}
	base := h.nextBase
	h.nextBase++
	h.storage[base] = make([]*rt.Value, n)
	return rt.Key{Base: base, Offset: 0}, nil
}

// Free releases the allocation rooted at k.Base. k.Offset must be 0 and
// the base must currently be live.
func (h *Heap) Free(k rt.Key, loc errors.Location) error {
	if k.Offset != 0 {
		return errors.Fatal(errors.ErrFreeInvalidOffset,
			"free requires a zero-offset pointer", loc)
	}
	if _, live := h.storage[k.Base]; !live {
		return errors.Fatal(errors.ErrFreeUnallocated,
			"free of an unallocated or already-freed pointer", loc)
	}
	delete(h.storage, k.Base)
	return nil
}

// Read returns the value stored at k, failing if k is out of bounds or
// the slot was never written.
func (h *Heap) Read(k rt.Key, loc errors.Location) (rt.Value, error) {
	slab, err := h.bounds(k, loc)
	if err != nil {
		return nil, err
	}
	v := slab[k.Offset]
	if v == nil {
		return nil, errors.Fatal(errors.ErrUninitializedLoad,
			"load from an uninitialized heap slot", loc)
	}
	return *v, nil
}

// Write stores val at k, failing if k is out of bounds.
func (h *Heap) Write(k rt.Key, val rt.Value, loc errors.Location) error {
	slab, err := h.bounds(k, loc)
	if err != nil {
		return err
	}
	slab[k.Offset] = &val
	return nil
}

func (h *Heap) bounds(k rt.Key, loc errors.Location) ([]*rt.Value, error) {
	slab, live := h.storage[k.Base]
	if !live {
		return nil, errors.Fatal(errors.ErrOutOfBounds,
			"access through an unallocated or already-freed pointer", loc)
	}
	if k.Offset < 0 || k.Offset >= len(slab) {
		return nil, errors.Fatal(errors.ErrOutOfBounds,
			"heap access out of bounds", loc)
	}
	return slab, nil
}

// PtrAdd shifts k's offset by delta without validating bounds; validation
// happens on the next Read/Write/Free.
func (h *Heap) PtrAdd(k rt.Key, delta int64) rt.Key {
	return k.Add(delta)
}

// IsEmpty reports whether every allocation has been freed.
func (h *Heap) IsEmpty() bool {
	return len(h.storage) == 0
}

// CompareKeys compares two keys, which must share a Base; comparing
// across allocations is a programming error (spec §7 kind 6).
func CompareKeys(a, b rt.Key, loc errors.Location) (int, error) {
	if a.Base != b.Base {
		return 0, errors.Fatal(errors.ErrCrossAllocationCompare,
			"pointer comparison across distinct allocations", loc)
	}
	switch {
	case a.Offset < b.Offset:
		return -1, nil
	case a.Offset > b.Offset:
		return 1, nil
	default:
		return 0, nil
	}
}
