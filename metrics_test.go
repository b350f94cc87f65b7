package fixedarena

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatsSnapshot(t *testing.T) {
	a := newTestAllocator(t, 200, 8)

	st := a.Stats()
	assert.Equal(t, 200, st.Capacity)
	assert.Equal(t, 200, st.FreeBytes)
	assert.Zero(t, st.UsedBytes)
	assert.Zero(t, st.Utilization)
	assert.Equal(t, 200, st.LargestGap)
	assert.Zero(t, st.Fragmentation)
	assert.Equal(t, 8, st.TableCap)

	_, err := a.Allocate(50, 1)
	assert.NoError(t, err)
	_, err = a.Allocate(150, 1)
	assert.NoError(t, err)

	st = a.Stats()
	assert.Equal(t, uint64(2), st.CallsServed)
	assert.Zero(t, st.Rejections)
	assert.Zero(t, st.FreeBytes)
	assert.Equal(t, 200, st.UsedBytes)
	assert.Equal(t, 2, st.LiveBlocks)
	assert.Equal(t, 1.0, st.Utilization)
	assert.Zero(t, st.LargestGap)
	assert.Zero(t, st.Fragmentation, "no free bytes means no fragmentation")
}

func TestLargestGap(t *testing.T) {
	tests := []struct {
		name string
		live []Block
		want int
	}{
		{"empty", nil, 100},
		{"leading gap", []Block{{60, 40}}, 60},
		{"middle gap", []Block{{0, 10}, {50, 10}}, 40},
		{"trailing gap", []Block{{0, 10}, {10, 10}}, 80},
		{"full", []Block{{0, 100}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, largestGap(100, tt.live))
		})
	}
}

func TestBasicMetricsCollector(t *testing.T) {
	var m BasicMetricsCollector
	m.RecordAlloc(10, 2*time.Microsecond, nil)
	m.RecordAlloc(20, 4*time.Microsecond, errors.New("boom"))
	m.RecordFree(10, time.Microsecond, nil)

	s := m.GetStats()
	assert.Equal(t, int64(2), s.AllocCount)
	assert.Equal(t, int64(1), s.AllocErrors)
	assert.Equal(t, int64(10), s.AllocBytes)
	assert.Equal(t, int64(3000), s.AllocAvgNanos)
	assert.Equal(t, int64(1), s.FreeCount)
	assert.Equal(t, int64(10), s.FreeBytes)

	assert.Zero(t, (&BasicMetricsCollector{}).GetStats().AllocAvgNanos)
}

func TestNoopMetricsCollector(t *testing.T) {
	var m MetricsCollector = NoopMetricsCollector{}
	assert.NotPanics(t, func() {
		m.RecordAlloc(1, time.Second, nil)
		m.RecordFree(1, time.Second, errors.New("x"))
	})
}
