package fixedarena

import (
	"sync/atomic"
	"time"
)

// Stats is a point-in-time view of allocator counters.
type Stats struct {
	CallsServed   uint64  `json:"calls_served"`  // Allocate calls, including rejected ones
	Rejections    uint64  `json:"rejections"`    // Allocate calls that returned an error
	FreeBytes     int     `json:"free_bytes"`    // Capacity minus live bytes
	UsedBytes     int     `json:"used_bytes"`    // Sum of live block lengths
	Capacity      int     `json:"capacity"`      // Arena size in bytes
	LiveBlocks    int     `json:"live_blocks"`   // Occupied table slots
	TableCap      int     `json:"table_cap"`     // Table slots
	HistoryLen    int     `json:"history_len"`   // Journal entries kept
	Utilization   float64 `json:"utilization"`   // UsedBytes / Capacity (0.0-1.0)
	LargestGap    int     `json:"largest_gap"`   // Largest contiguous free range
	Fragmentation float64 `json:"fragmentation"` // 1 - LargestGap/FreeBytes
}

// MetricsCollector receives one call per allocate and deallocate.
// Implementations must be safe for concurrent use.
type MetricsCollector interface {
	// RecordAlloc is called after each Allocate. err is nil on success.
	RecordAlloc(size int, duration time.Duration, err error)

	// RecordFree is called after each Deallocate. size is the released
	// block length on success and the caller's size otherwise.
	RecordFree(size int, duration time.Duration, err error)
}

// NoopMetricsCollector discards everything.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAlloc(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordFree(int, time.Duration, error)  {}

// BasicMetricsCollector keeps in-memory counters.
type BasicMetricsCollector struct {
	AllocCount      atomic.Int64
	AllocErrors     atomic.Int64
	AllocBytes      atomic.Int64
	AllocTotalNanos atomic.Int64
	FreeCount       atomic.Int64
	FreeErrors      atomic.Int64
	FreeBytes       atomic.Int64
}

// RecordAlloc implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAlloc(size int, duration time.Duration, err error) {
	b.AllocCount.Add(1)
	b.AllocTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AllocErrors.Add(1)
		return
	}
	b.AllocBytes.Add(int64(size))
}

// RecordFree implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFree(size int, duration time.Duration, err error) {
	b.FreeCount.Add(1)
	if err != nil {
		b.FreeErrors.Add(1)
		return
	}
	b.FreeBytes.Add(int64(size))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	s := BasicMetricsStats{
		AllocCount:  b.AllocCount.Load(),
		AllocErrors: b.AllocErrors.Load(),
		AllocBytes:  b.AllocBytes.Load(),
		FreeCount:   b.FreeCount.Load(),
		FreeErrors:  b.FreeErrors.Load(),
		FreeBytes:   b.FreeBytes.Load(),
	}
	if s.AllocCount > 0 {
		s.AllocAvgNanos = b.AllocTotalNanos.Load() / s.AllocCount
	}
	return s
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AllocCount    int64
	AllocErrors   int64
	AllocBytes    int64
	AllocAvgNanos int64
	FreeCount     int64
	FreeErrors    int64
	FreeBytes     int64
}

// largestGap returns the largest free range between sorted live blocks.
func largestGap(capacity int, sorted []Block) int {
	largest, prev := 0, 0
	for _, b := range sorted {
		largest = max(largest, b.Offset-prev)
		prev = b.End()
	}
	return max(largest, capacity-prev)
}
