package fixedarena

import (
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// DefaultTableSlots bounds the number of simultaneous live allocations.
const DefaultTableSlots = 100

// Block is a live allocation occupying [Offset, Offset+Length).
// Length == 0 marks an empty table slot.
type Block struct {
	Offset int
	Length int
}

// End returns the first offset past the block.
func (b Block) End() int { return b.Offset + b.Length }

// Table is the fixed-capacity live-allocation table. Slots are kept in
// insertion order; address order is recomputed on every snapshot.
// All operations run under one exclusive lock.
type Table struct {
	mu    sync.Mutex
	slots []Block
	empty *roaring.Bitmap // indices of slots with Length == 0
	live  int
}

// NewTable creates an empty table with the given number of slots.
func NewTable(slots int) *Table {
	t := &Table{
		slots: make([]Block, slots),
		empty: roaring.New(),
	}
	t.empty.AddRange(0, uint64(slots))
	return t
}

// Register stores a new block in the first empty slot.
func (t *Table) Register(off, n int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tx().Register(off, n)
}

// Release clears the live block starting at off and returns its length.
func (t *Table) Release(off int) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tx().Release(off)
}

// SnapshotSorted returns the live blocks in ascending offset order.
func (t *Table) SnapshotSorted() []Block {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tx().SnapshotSorted()
}

// Live returns the number of live blocks.
func (t *Table) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}

// Cap returns the number of slots.
func (t *Table) Cap() int { return len(t.slots) }

// Update runs fn as a single critical section. The TableTx must not be
// retained after fn returns.
func (t *Table) Update(fn func(tx *TableTx) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(t.tx())
}

func (t *Table) tx() *TableTx { return &TableTx{t: t} }

// TableTx gives lock-free access to a Table inside Update.
type TableTx struct {
	t *Table
}

// Register stores a new block in the lowest-index empty slot.
func (tx *TableTx) Register(off, n int) error {
	t := tx.t
	if n <= 0 {
		return ErrInvalidSize
	}
	if t.empty.IsEmpty() {
		return ErrTableFull
	}
	i := t.empty.Minimum()
	t.empty.Remove(i)
	t.slots[i] = Block{Offset: off, Length: n}
	t.live++
	return nil
}

// Release clears the live block whose offset is exactly off.
func (tx *TableTx) Release(off int) (int, error) {
	t := tx.t
	for i, b := range t.slots {
		if b.Length > 0 && b.Offset == off {
			t.slots[i] = Block{}
			t.empty.Add(uint32(i))
			t.live--
			return b.Length, nil
		}
	}
	return 0, ErrBlockNotFound
}

// SnapshotSorted returns the live blocks in ascending offset order.
func (tx *TableTx) SnapshotSorted() []Block {
	t := tx.t
	out := make([]Block, 0, t.live)
	for _, b := range t.slots {
		if b.Length > 0 {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b Block) int { return a.Offset - b.Offset })
	return out
}

// Live returns the number of live blocks.
func (tx *TableTx) Live() int { return tx.t.live }

// Slots returns a copy of the raw slot array in insertion order.
func (tx *TableTx) Slots() []Block { return slices.Clone(tx.t.slots) }
