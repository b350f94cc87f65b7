// Package fixedarena implements a fixed-capacity, first-fit allocator over
// a single pre-allocated byte arena.
//
// # Overview
//
// An Allocator owns three fixed-size structures, all created once by New:
//
//   - Arena: the byte buffer every returned address points into
//   - Table: one slot per simultaneous live allocation
//   - History: a journal of requested sizes, kept for diagnostics
//
// Nothing grows. Running out of bytes, running out of contiguous bytes and
// running out of table slots are three different errors.
//
// # Basic Usage
//
//	a, err := fixedarena.New(fixedarena.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer a.Close()
//
//	buf, err := a.AllocBytes(1024, 8)
//	if err != nil {
//		return err // *fixedarena.AllocError
//	}
//	defer a.FreeBytes(buf)
//
//	// Typed values
//	p, err := fixedarena.Alloc[Point](a)
//
// # Placement
//
// Live blocks are kept in insertion order. On every allocation the table is
// sorted by offset and the gaps before, between and after the live blocks
// are scanned in ascending address order; the first gap that can hold the
// request wins. Gaps are derived from the live blocks, so freed space needs
// no coalescing.
//
// # Alignment
//
// Offsets are rounded up so that the returned address is a multiple of the
// requested alignment, which must be a power of two. The padding stays part
// of the gap; only the requested size is recorded as the block.
//
// # Errors
//
// Allocation failures are *AllocError and deallocation failures are
// *ReleaseError. Both carry the free-byte counter and table occupancy and
// unwrap to one of:
//
//	ErrInsufficientTotal, ErrFragmentation, ErrTableExhausted  (ErrOutOfMemory)
//	ErrUnknownAddress, ErrNoMatchingBlock                      (ErrInvalidRelease)
//
// There is no fallback allocator and no retry; MustAllocate panics instead
// of returning the error.
//
// # Thread Safety
//
// Allocate, Deallocate and Stats are safe for concurrent use. Gap search,
// table mutation and the free-byte counter update happen under one table
// lock. The history journal has its own lock.
package fixedarena
