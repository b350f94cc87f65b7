package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavanmanishd/fixedarena"
)

func defaultSimOptions() simulateOptions {
	return simulateOptions{
		ops:      2000,
		workers:  4,
		seed:     7,
		maxSize:  128,
		maxAlign: 8,
		freePct:  45,
	}
}

func TestSimulateText(t *testing.T) {
	resetGlobals()

	out, err := captureOutput(t, func() error {
		return runSimulate(context.Background(), fixedarena.DefaultConfig(), defaultSimOptions())
	})
	require.NoError(t, err)

	for _, want := range []string{
		"Simulation:",
		"Ops: 2,000 over 4 workers (seed 7)",
		"Allocator called",
		"Arena (heap):",
		"Capacity:      29 KiB (30000 bytes)",
		"Live blocks:",
		"Rejections:",
		"Table exhausted:",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "History of allocations")
}

func TestSimulateJSON(t *testing.T) {
	resetGlobals()
	jsonOut = true

	cfg := fixedarena.DefaultConfig()
	cfg.Capacity = 2048
	cfg.TableSlots = 8
	cfg.HistorySlots = 16

	opts := defaultSimOptions()
	opts.history = true

	out, err := captureOutput(t, func() error {
		return runSimulate(context.Background(), cfg, opts)
	})
	require.NoError(t, err)

	var report simulateReport
	decodeJSON(t, out, &report)

	assert.Equal(t, 2000, report.Ops)
	assert.Equal(t, cfg, report.Config)
	assert.Equal(t, 2048, report.Stats.Capacity)
	assert.Equal(t, report.Stats.Capacity, report.Stats.FreeBytes+report.Stats.UsedBytes)
	assert.LessOrEqual(t, report.Stats.LiveBlocks, 8)
	assert.Len(t, report.History, 16)
	assert.Equal(t, int64(report.Stats.CallsServed), report.Metrics.AllocCount)

	rejected := report.Rejections["insufficient_total"] + report.Rejections["fragmentation"] + report.Rejections["table_exhausted"]
	assert.Equal(t, int64(report.Stats.Rejections), rejected)
	assert.Positive(t, report.Rejections["table_exhausted"], "8 slots across 4 workers must run out")
}

func TestSimulateHistory(t *testing.T) {
	resetGlobals()

	opts := defaultSimOptions()
	opts.ops = 10
	opts.workers = 1
	opts.freePct = 0
	opts.history = true

	out, err := captureOutput(t, func() error {
		return runSimulate(context.Background(), fixedarena.DefaultConfig(), opts)
	})
	require.NoError(t, err)
	assert.Contains(t, out, "History of allocations:")
	assert.Contains(t, out, "slot 0 allocated ")
	assert.Contains(t, out, "slot 9 allocated ")
}

func TestSimulateQuiet(t *testing.T) {
	resetGlobals()
	quiet = true

	out, err := captureOutput(t, func() error {
		return runSimulate(context.Background(), fixedarena.DefaultConfig(), defaultSimOptions())
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSimulateRateLimited(t *testing.T) {
	resetGlobals()
	quiet = true

	opts := defaultSimOptions()
	opts.ops = 20
	opts.rate = 200

	start := time.Now()
	_, err := captureOutput(t, func() error {
		return runSimulate(context.Background(), fixedarena.DefaultConfig(), opts)
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestSimulateCancelled(t *testing.T) {
	resetGlobals()
	quiet = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := defaultSimOptions()
	opts.rate = 1

	_, err := captureOutput(t, func() error {
		return runSimulate(ctx, fixedarena.DefaultConfig(), opts)
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSimulateOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*simulateOptions)
	}{
		{"negative ops", func(o *simulateOptions) { o.ops = -1 }},
		{"no workers", func(o *simulateOptions) { o.workers = 0 }},
		{"zero max size", func(o *simulateOptions) { o.maxSize = 0 }},
		{"odd max align", func(o *simulateOptions) { o.maxAlign = 6 }},
		{"free pct over 100", func(o *simulateOptions) { o.freePct = 101 }},
		{"negative rate", func(o *simulateOptions) { o.rate = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultSimOptions()
			tt.mutate(&opts)
			require.Error(t, opts.validate())
		})
	}
	require.NoError(t, defaultSimOptions().validate())
}

func TestRejectionsAdd(t *testing.T) {
	var r rejections
	assert.True(t, r.add(&fixedarena.AllocError{Reason: fixedarena.ErrFragmentation}))
	assert.True(t, r.add(fixedarena.ErrTableExhausted))
	assert.True(t, r.add(fixedarena.ErrInsufficientTotal))
	assert.False(t, r.add(fixedarena.ErrInvalidAlignment))
	assert.Equal(t, int64(1), r.fragmentation.Load())
	assert.Equal(t, int64(1), r.table.Load())
	assert.Equal(t, int64(1), r.insufficient.Load())
}
