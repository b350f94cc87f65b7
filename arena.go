package fixedarena

import (
	"sync/atomic"
	"unsafe"
)

// DefaultCapacity is the default arena size in bytes.
const DefaultCapacity = 30000

// Arena is a fixed-size byte buffer. It is never resized and its base
// address is stable until Close. All pointer arithmetic on allocator
// addresses happens here.
type Arena struct {
	buf     []byte
	base    uintptr
	backing Backing
	closed  atomic.Bool
}

// NewArena creates a zeroed arena of capacity bytes on the given backing.
func NewArena(capacity int, backing Backing) (*Arena, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if backing == "" {
		backing = BackingHeap
	}

	var (
		buf []byte
		err error
	)
	switch backing {
	case BackingHeap:
		buf = make([]byte, capacity)
	case BackingMmap:
		buf, err = mapAnonymous(capacity)
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrInvalidBacking
	}

	return &Arena{
		buf:     buf,
		base:    uintptr(unsafe.Pointer(unsafe.SliceData(buf))),
		backing: backing,
	}, nil
}

// Base returns the address of the first arena byte.
func (a *Arena) Base() uintptr { return a.base }

// Cap returns the arena size in bytes.
func (a *Arena) Cap() int { return len(a.buf) }

// Backing reports where the arena memory came from.
func (a *Arena) Backing() Backing { return a.backing }

// Offset translates p into an arena offset. It reports false for any
// address outside [base, base+cap), and for every address once the arena
// is closed.
func (a *Arena) Offset(p unsafe.Pointer) (int, bool) {
	if a.closed.Load() || p == nil {
		return 0, false
	}
	addr := uintptr(p)
	if addr < a.base {
		return 0, false
	}
	off := addr - a.base
	if off >= uintptr(len(a.buf)) {
		return 0, false
	}
	return int(off), true
}

// Pointer returns the address of the byte at off.
// The caller must ensure 0 <= off < Cap().
func (a *Arena) Pointer(off int) unsafe.Pointer {
	return unsafe.Pointer(&a.buf[off])
}

// Slice returns the n bytes starting at off, with capacity clamped to n
// so that appends never spill into a neighbouring block.
func (a *Arena) Slice(off, n int) []byte {
	return a.buf[off : off+n : off+n]
}

// Close releases the backing memory. The arena must not be used after
// Close; Offset reports false for every address.
func (a *Arena) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}
	if a.backing == BackingMmap {
		return unmapAnonymous(a.buf)
	}
	return nil
}

// alignUp rounds addr up to a multiple of align, which must be a power of two.
func alignUp(addr, align uintptr) uintptr {
	mask := align - 1
	return (addr + mask) &^ mask
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// ArenaView is a read-only window on an Allocator's arena. It translates
// addresses but cannot release the memory; only Allocator.Close does that.
type ArenaView struct {
	a *Arena
}

// Base returns the address of the first arena byte.
func (v ArenaView) Base() uintptr { return v.a.Base() }

// Cap returns the arena size in bytes.
func (v ArenaView) Cap() int { return v.a.Cap() }

// Backing reports where the arena memory came from.
func (v ArenaView) Backing() Backing { return v.a.Backing() }

// Offset translates p into an arena offset; see Arena.Offset.
func (v ArenaView) Offset(p unsafe.Pointer) (int, bool) { return v.a.Offset(p) }

// Pointer returns the address of the byte at off; see Arena.Pointer.
func (v ArenaView) Pointer(off int) unsafe.Pointer { return v.a.Pointer(off) }
