package fixedarena

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfMemory is the parent of every allocation rejection.
	ErrOutOfMemory = errors.New("fixedarena: out of memory")

	// ErrInsufficientTotal indicates the request exceeds the free-byte counter.
	ErrInsufficientTotal = fmt.Errorf("%w: insufficient total space", ErrOutOfMemory)

	// ErrFragmentation indicates enough free bytes exist but no single gap fits.
	ErrFragmentation = fmt.Errorf("%w: fragmentation", ErrOutOfMemory)

	// ErrTableExhausted indicates every live-block slot is in use.
	ErrTableExhausted = fmt.Errorf("%w: table exhausted", ErrOutOfMemory)

	// ErrInvalidRelease is the parent of every deallocation rejection.
	ErrInvalidRelease = errors.New("fixedarena: invalid release")

	// ErrUnknownAddress indicates the released address is outside the arena.
	ErrUnknownAddress = fmt.Errorf("%w: address outside arena", ErrInvalidRelease)

	// ErrNoMatchingBlock indicates no live block starts at the released
	// address: a double free or a corrupted pointer.
	ErrNoMatchingBlock = fmt.Errorf("%w: no matching live block", ErrInvalidRelease)

	ErrInvalidSize      = errors.New("fixedarena: size must be positive")
	ErrInvalidAlignment = errors.New("fixedarena: alignment must be a power of two")
	ErrInvalidCapacity  = errors.New("fixedarena: capacity must be positive")
	ErrInvalidBacking   = errors.New("fixedarena: unknown backing")
	ErrClosed           = errors.New("fixedarena: allocator closed")

	// ErrTableFull is returned by Table.Register when no slot is empty.
	ErrTableFull = errors.New("fixedarena: table full")

	// ErrBlockNotFound is returned by Table.Release when no live block has the offset.
	ErrBlockNotFound = errors.New("fixedarena: block not found")

	// ErrNoFit is returned by Locate when no gap can hold the request.
	ErrNoFit = errors.New("fixedarena: no gap fits")
)

// AllocError describes a rejected allocation with enough state to tell
// total exhaustion, fragmentation and table exhaustion apart.
//
// The reason (one of ErrInsufficientTotal, ErrFragmentation,
// ErrTableExhausted, ErrInvalidSize, ErrInvalidAlignment, ErrClosed) can be
// matched with errors.Is.
type AllocError struct {
	Size       int
	Align      int
	FreeBytes  int
	LiveBlocks int
	TableCap   int
	Reason     error
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("%v (size=%d align=%d free=%d live=%d/%d)",
		e.Reason, e.Size, e.Align, e.FreeBytes, e.LiveBlocks, e.TableCap)
}

func (e *AllocError) Unwrap() error { return e.Reason }

// ReleaseError describes a rejected deallocation.
//
// Offset is -1 when the address is outside the arena.
type ReleaseError struct {
	Addr       uintptr
	Offset     int
	Size       int
	FreeBytes  int
	LiveBlocks int
	Reason     error
}

func (e *ReleaseError) Error() string {
	return fmt.Sprintf("%v (addr=%#x offset=%d size=%d free=%d live=%d)",
		e.Reason, e.Addr, e.Offset, e.Size, e.FreeBytes, e.LiveBlocks)
}

func (e *ReleaseError) Unwrap() error { return e.Reason }
