package fixedarena

import (
	"fmt"
	"io"
	"slices"
	"sync"
)

// DefaultHistorySlots is the default journal capacity.
const DefaultHistorySlots = 400

// History is a fixed-capacity, append-only journal of requested sizes.
// Entries past capacity are dropped. It has its own lock and no ordering
// relationship with the table.
type History struct {
	mu      sync.Mutex
	entries []int
	dropped uint64
}

// NewHistory creates a journal holding at most slots entries.
// A zero-slot journal drops everything.
func NewHistory(slots int) *History {
	if slots < 0 {
		slots = 0
	}
	return &History{entries: make([]int, 0, slots)}
}

// Record appends size and reports whether it was kept.
func (h *History) Record(size int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == cap(h.entries) {
		h.dropped++
		return false
	}
	h.entries = append(h.entries, size)
	return true
}

// Entries returns a copy of the recorded sizes in request order.
func (h *History) Entries() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.entries)
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Cap returns the journal capacity.
func (h *History) Cap() int { return cap(h.entries) }

// Dropped returns how many requests arrived after the journal filled up.
func (h *History) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// Report writes one line per entry. Write errors are ignored; the report
// is diagnostic only.
func (h *History) Report(w io.Writer) {
	for i, size := range h.Entries() {
		fmt.Fprintf(w, "slot %d allocated %d bytes\n", i, size)
	}
}
