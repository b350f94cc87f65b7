package fixedarena

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"
	"unsafe"
)

// Allocator serves allocations out of a single fixed arena. Live blocks
// are tracked in a fixed-size Table and placed first-fit over the gaps
// between them. It is safe for concurrent use.
//
// A process builds one Allocator at startup, passes it to every call site
// and calls Close at teardown.
type Allocator struct {
	arena   *Arena
	table   *Table
	history *History

	free    atomic.Int64
	calls   atomic.Uint64
	rejects atomic.Uint64

	logger  *Logger
	metrics MetricsCollector
}

// New creates an Allocator with an empty table and a zeroed arena.
func New(cfg Config, opts ...Option) (*Allocator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	arena, err := NewArena(cfg.Capacity, cfg.Backing)
	if err != nil {
		return nil, err
	}

	a := &Allocator{
		arena:   arena,
		table:   NewTable(cfg.TableSlots),
		history: NewHistory(cfg.HistorySlots),
		logger:  o.logger,
		metrics: o.metrics,
	}
	a.free.Store(int64(arena.Cap()))

	a.logger.Info("allocator ready",
		"capacity", arena.Cap(),
		"table_slots", cfg.TableSlots,
		"history_slots", cfg.HistorySlots,
		"backing", string(arena.Backing()),
	)
	return a, nil
}

// Allocate reserves size bytes whose address is a multiple of align and
// returns the address. Every failure is an *AllocError.
func (a *Allocator) Allocate(size, align int) (unsafe.Pointer, error) {
	off, err := a.reserve(size, align)
	if err != nil {
		return nil, err
	}
	return a.arena.Pointer(off), nil
}

// MustAllocate is like Allocate but panics on failure.
func (a *Allocator) MustAllocate(size, align int) unsafe.Pointer {
	p, err := a.Allocate(size, align)
	if err != nil {
		panic(err)
	}
	return p
}

// AllocBytes reserves size bytes and returns them as a slice.
func (a *Allocator) AllocBytes(size, align int) ([]byte, error) {
	off, err := a.reserve(size, align)
	if err != nil {
		return nil, err
	}
	return a.arena.Slice(off, size), nil
}

// reserve wraps allocate with metrics and rejection logging.
func (a *Allocator) reserve(size, align int) (int, error) {
	start := time.Now()
	off, err := a.allocate(size, align)
	a.metrics.RecordAlloc(size, time.Since(start), err)
	if err != nil {
		a.logAllocRejection(err)
		return 0, err
	}
	return off, nil
}

// reject accounts for an allocation refused before it reached the engine,
// exactly as if allocate had refused it.
func (a *Allocator) reject(size, align int, reason error) error {
	a.request(size)
	err := a.allocError(size, align, reason)
	a.metrics.RecordAlloc(size, 0, err)
	a.logAllocRejection(err)
	return err
}

func (a *Allocator) logAllocRejection(err error) {
	a.rejects.Add(1)
	a.logger.LogRejection("allocate", err, a.history.Len())
	if a.logger.Enabled(context.Background(), slog.LevelDebug) {
		a.logger.LogHistory(a.history.Entries())
	}
}

// request counts the call and journals its size.
func (a *Allocator) request(size int) {
	a.calls.Add(1)
	if size > 0 {
		a.history.Record(size)
	}
}

func (a *Allocator) allocate(size, align int) (int, error) {
	a.request(size)

	if size <= 0 {
		return 0, a.allocError(size, align, ErrInvalidSize)
	}
	if !isPowerOfTwo(align) {
		return 0, a.allocError(size, align, ErrInvalidAlignment)
	}
	if a.arena.closed.Load() {
		return 0, a.allocError(size, align, ErrClosed)
	}
	if int64(size) > a.free.Load() {
		return 0, a.allocError(size, align, ErrInsufficientTotal)
	}

	var off int
	err := a.table.Update(func(tx *TableTx) error {
		if a.arena.closed.Load() {
			return ErrClosed
		}
		// Another caller may have taken bytes since the fast check.
		if int64(size) > a.free.Load() {
			return ErrInsufficientTotal
		}
		var err error
		off, err = Locate(size, align, a.arena.Base(), a.arena.Cap(), tx.SnapshotSorted())
		if err != nil {
			return ErrFragmentation
		}
		if err := tx.Register(off, size); err != nil {
			return ErrTableExhausted
		}
		a.free.Add(-int64(size))
		return nil
	})
	if err != nil {
		return 0, a.allocError(size, align, err)
	}

	a.logger.LogAlloc(size, off, int(a.free.Load()))
	return off, nil
}

func (a *Allocator) allocError(size, align int, reason error) error {
	return &AllocError{
		Size:       size,
		Align:      align,
		FreeBytes:  int(a.free.Load()),
		LiveBlocks: a.table.Live(),
		TableCap:   a.table.Cap(),
		Reason:     reason,
	}
}

// Deallocate releases the block that starts at p. size is the caller's
// view of the block length and must be positive; the table's recorded
// length is what gets credited back. Every failure is a *ReleaseError.
func (a *Allocator) Deallocate(p unsafe.Pointer, size int) error {
	start := time.Now()
	n, err := a.deallocate(p, size)
	if err != nil {
		a.metrics.RecordFree(size, time.Since(start), err)
		a.logger.LogRejection("deallocate", err, a.history.Len())
		return err
	}
	a.metrics.RecordFree(n, time.Since(start), nil)
	return nil
}

// FreeBytes releases a slice returned by AllocBytes.
func (a *Allocator) FreeBytes(b []byte) error {
	return a.Deallocate(unsafe.Pointer(unsafe.SliceData(b)), len(b))
}

func (a *Allocator) deallocate(p unsafe.Pointer, size int) (int, error) {
	off, ok := a.arena.Offset(p)
	if !ok {
		reason := ErrUnknownAddress
		if a.arena.closed.Load() {
			reason = ErrClosed
		}
		return 0, a.releaseError(p, -1, size, reason)
	}
	if size <= 0 {
		return 0, a.releaseError(p, off, size, ErrInvalidSize)
	}

	var n int
	err := a.table.Update(func(tx *TableTx) error {
		var err error
		n, err = tx.Release(off)
		if err != nil {
			return ErrNoMatchingBlock
		}
		a.free.Add(int64(n))
		return nil
	})
	if err != nil {
		return 0, a.releaseError(p, off, size, err)
	}

	if size != n {
		a.logger.Warn("deallocate size mismatch",
			"offset", off,
			"size", size,
			"length", n,
		)
	}
	a.logger.LogFree(off, n, int(a.free.Load()))
	return n, nil
}

func (a *Allocator) releaseError(p unsafe.Pointer, off, size int, reason error) error {
	return &ReleaseError{
		Addr:       uintptr(p),
		Offset:     off,
		Size:       size,
		FreeBytes:  int(a.free.Load()),
		LiveBlocks: a.table.Live(),
		Reason:     reason,
	}
}

// Stats returns a consistent snapshot of the allocator counters.
func (a *Allocator) Stats() Stats {
	var (
		sorted []Block
		free   int
	)
	_ = a.table.Update(func(tx *TableTx) error {
		sorted = tx.SnapshotSorted()
		free = int(a.free.Load())
		return nil
	})

	capacity := a.arena.Cap()
	s := Stats{
		CallsServed: a.calls.Load(),
		Rejections:  a.rejects.Load(),
		FreeBytes:   free,
		UsedBytes:   capacity - free,
		Capacity:    capacity,
		LiveBlocks:  len(sorted),
		TableCap:    a.table.Cap(),
		HistoryLen:  a.history.Len(),
		LargestGap:  largestGap(capacity, sorted),
	}
	s.Utilization = float64(s.UsedBytes) / float64(capacity)
	if free > 0 {
		s.Fragmentation = 1 - float64(s.LargestGap)/float64(free)
	}
	return s
}

// DumpHistory returns the requested sizes in request order.
func (a *Allocator) DumpHistory() []int {
	return a.history.Entries()
}

// WriteHistory writes the history report to w.
func (a *Allocator) WriteHistory(w io.Writer) {
	a.history.Report(w)
}

// Arena returns a read-only view of the backing arena.
func (a *Allocator) Arena() ArenaView { return ArenaView{a: a.arena} }

// Blocks returns the live blocks in ascending offset order.
func (a *Allocator) Blocks() []Block { return a.table.SnapshotSorted() }

// Verify checks that live blocks lie inside the arena, never overlap, and
// that the free-byte counter equals capacity minus their total length.
func (a *Allocator) Verify() error {
	return a.table.Update(func(tx *TableTx) error {
		capacity := a.arena.Cap()
		used, prev := 0, 0
		for _, b := range tx.SnapshotSorted() {
			if b.Offset < prev {
				return fmt.Errorf("fixedarena: block [%d,%d) overlaps previous block ending at %d", b.Offset, b.End(), prev)
			}
			if b.End() > capacity {
				return fmt.Errorf("fixedarena: block [%d,%d) exceeds capacity %d", b.Offset, b.End(), capacity)
			}
			used += b.Length
			prev = b.End()
		}
		if free := int(a.free.Load()); free+used != capacity {
			return fmt.Errorf("fixedarena: free %d + used %d != capacity %d", free, used, capacity)
		}
		return nil
	})
}

// Close releases the arena. Allocations fail with ErrClosed afterwards and
// every outstanding address becomes unknown.
func (a *Allocator) Close() error {
	return a.table.Update(func(*TableTx) error {
		return a.arena.Close()
	})
}
