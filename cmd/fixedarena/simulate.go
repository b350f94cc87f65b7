package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/bits"
	"math/rand/v2"
	"os"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pavanmanishd/fixedarena"
)

var (
	simOps      int
	simWorkers  int
	simSeed     uint64
	simMaxSize  int
	simMaxAlign int
	simFreePct  int
	simRate     float64
	simHistory  bool
)

func init() {
	cmd := newSimulateCmd()
	cmd.Flags().IntVar(&simOps, "ops", 10000, "Total allocate/free operations")
	cmd.Flags().IntVar(&simWorkers, "workers", 4, "Concurrent workers")
	cmd.Flags().Uint64Var(&simSeed, "seed", 1, "Random seed")
	cmd.Flags().IntVar(&simMaxSize, "max-size", 256, "Largest requested size in bytes")
	cmd.Flags().IntVar(&simMaxAlign, "max-align", 8, "Largest requested alignment (power of two)")
	cmd.Flags().IntVar(&simFreePct, "free-pct", 45, "Chance in percent that an operation frees a held block")
	cmd.Flags().Float64Var(&simRate, "rate", 0, "Operations per second across all workers (0 = unlimited)")
	cmd.Flags().BoolVar(&simHistory, "history", false, "Print the history of requested sizes")
	rootCmd.AddCommand(cmd)
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a random allocate/free workload",
		Long: `The simulate command builds one allocator, runs a seeded random mix of
allocate and free operations from several workers, checks the allocator's
accounting, and reports its counters. Out-of-memory rejections are counted
by cause; any other failure aborts the run.

Example:
  fixedarena simulate
  fixedarena simulate --ops 50000 --workers 8 --seed 42
  fixedarena simulate --capacity 4096 --slots 16 --history
  fixedarena simulate --backing mmap --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return runSimulate(cmd.Context(), cfg, simulateOptions{
				ops:      simOps,
				workers:  simWorkers,
				seed:     simSeed,
				maxSize:  simMaxSize,
				maxAlign: simMaxAlign,
				freePct:  simFreePct,
				rate:     simRate,
				history:  simHistory,
			})
		},
	}
	return cmd
}

type simulateOptions struct {
	ops      int
	workers  int
	seed     uint64
	maxSize  int
	maxAlign int
	freePct  int
	rate     float64
	history  bool
}

func (o simulateOptions) validate() error {
	switch {
	case o.ops < 0:
		return fmt.Errorf("--ops must not be negative, got %d", o.ops)
	case o.workers < 1:
		return fmt.Errorf("--workers must be at least 1, got %d", o.workers)
	case o.maxSize < 1:
		return fmt.Errorf("--max-size must be at least 1, got %d", o.maxSize)
	case o.maxAlign < 1 || o.maxAlign&(o.maxAlign-1) != 0:
		return fmt.Errorf("--max-align must be a power of two, got %d", o.maxAlign)
	case o.freePct < 0 || o.freePct > 100:
		return fmt.Errorf("--free-pct must be within 0-100, got %d", o.freePct)
	case o.rate < 0:
		return fmt.Errorf("--rate must not be negative, got %g", o.rate)
	}
	return nil
}

// rejections counts out-of-memory failures by cause.
type rejections struct {
	insufficient  atomic.Int64
	fragmentation atomic.Int64
	table         atomic.Int64
}

// add records err and reports whether it was an out-of-memory rejection.
func (r *rejections) add(err error) bool {
	switch {
	case errors.Is(err, fixedarena.ErrInsufficientTotal):
		r.insufficient.Add(1)
	case errors.Is(err, fixedarena.ErrFragmentation):
		r.fragmentation.Add(1)
	case errors.Is(err, fixedarena.ErrTableExhausted):
		r.table.Add(1)
	default:
		return false
	}
	return true
}

type simulateReport struct {
	Config     fixedarena.Config            `json:"config"`
	Ops        int                          `json:"ops"`
	Workers    int                          `json:"workers"`
	Seed       uint64                       `json:"seed"`
	Elapsed    string                       `json:"elapsed"`
	Stats      fixedarena.Stats             `json:"stats"`
	Metrics    fixedarena.BasicMetricsStats `json:"metrics"`
	Rejections map[string]int64             `json:"rejections"`
	History    []int                        `json:"history,omitempty"`
}

func runSimulate(ctx context.Context, cfg fixedarena.Config, opts simulateOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	logger := fixedarena.NoopLogger()
	if verbose {
		logger = fixedarena.NewTextLogger(os.Stderr, slog.LevelDebug)
	}
	metrics := &fixedarena.BasicMetricsCollector{}

	a, err := fixedarena.New(cfg, fixedarena.WithLogger(logger), fixedarena.WithMetrics(metrics))
	if err != nil {
		return fmt.Errorf("failed to create allocator: %w", err)
	}
	defer a.Close()

	printVerbose("Running %d ops on %d workers (seed %d)\n", opts.ops, opts.workers, opts.seed)

	var rej rejections
	start := time.Now()
	held, err := runWorkload(ctx, a, opts, &rej)
	if err != nil {
		return fmt.Errorf("workload failed: %w", err)
	}
	elapsed := time.Since(start)

	if err := a.Verify(); err != nil {
		return fmt.Errorf("invariant violated: %w", err)
	}

	report := simulateReport{
		Config:  cfg,
		Ops:     opts.ops,
		Workers: opts.workers,
		Seed:    opts.seed,
		Elapsed: elapsed.String(),
		Stats:   a.Stats(),
		Metrics: metrics.GetStats(),
		Rejections: map[string]int64{
			"insufficient_total": rej.insufficient.Load(),
			"fragmentation":      rej.fragmentation.Load(),
			"table_exhausted":    rej.table.Load(),
		},
	}
	if opts.history {
		report.History = a.DumpHistory()
	}

	for _, b := range held {
		if err := a.FreeBytes(b); err != nil {
			return fmt.Errorf("failed to release held block: %w", err)
		}
	}
	if err := a.Verify(); err != nil {
		return fmt.Errorf("invariant violated after release: %w", err)
	}
	if live := a.Stats().LiveBlocks; live != 0 {
		return fmt.Errorf("%d blocks still live after release", live)
	}

	if jsonOut {
		return printJSON(report)
	}
	printReport(report)
	if opts.history && !quiet {
		printInfo("\nHistory of allocations:\n")
		a.WriteHistory(os.Stdout)
	}
	return nil
}

// runWorkload splits opts.ops across workers and returns the blocks still
// held when every worker is done.
func runWorkload(ctx context.Context, a *fixedarena.Allocator, opts simulateOptions, rej *rejections) ([][]byte, error) {
	var limiter *rate.Limiter
	if opts.rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.rate), 1)
	}

	g, ctx := errgroup.WithContext(ctx)
	held := make([][][]byte, opts.workers)
	alignShift := bits.Len(uint(opts.maxAlign))

	for w := range opts.workers {
		n := opts.ops / opts.workers
		if w < opts.ops%opts.workers {
			n++
		}
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(opts.seed, uint64(w)))
			var mine [][]byte
			defer func() { held[w] = mine }()

			for range n {
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						return err
					}
				}

				if len(mine) > 0 && rng.IntN(100) < opts.freePct {
					i := rng.IntN(len(mine))
					b := mine[i]
					mine[i] = mine[len(mine)-1]
					mine = mine[:len(mine)-1]
					if err := a.FreeBytes(b); err != nil {
						return fmt.Errorf("worker %d: %w", w, err)
					}
					continue
				}

				size := 1 + rng.IntN(opts.maxSize)
				align := 1 << rng.IntN(alignShift)
				b, err := a.AllocBytes(size, align)
				if err != nil {
					if !rej.add(err) {
						return fmt.Errorf("worker %d: %w", w, err)
					}
					continue
				}
				mine = append(mine, b)
			}
			return nil
		})
	}

	err := g.Wait()
	var all [][]byte
	for _, h := range held {
		all = append(all, h...)
	}
	return all, err
}

func printReport(r simulateReport) {
	s := r.Stats
	printInfo("\nSimulation:\n")
	printInfo("  Ops: %s over %d workers (seed %d) in %s\n", humanize.Comma(int64(r.Ops)), r.Workers, r.Seed, r.Elapsed)
	printInfo("  Allocator called %s times, %s rejected\n", humanize.Comma(int64(s.CallsServed)), humanize.Comma(int64(s.Rejections)))

	printInfo("\nArena (%s):\n", r.Config.Backing)
	printInfo("  Capacity:      %s (%d bytes)\n", humanize.IBytes(uint64(s.Capacity)), s.Capacity)
	printInfo("  Used:          %s (%.1f%%)\n", humanize.IBytes(uint64(s.UsedBytes)), s.Utilization*100)
	printInfo("  Free:          %s\n", humanize.IBytes(uint64(s.FreeBytes)))
	printInfo("  Largest gap:   %s\n", humanize.IBytes(uint64(s.LargestGap)))
	printInfo("  Fragmentation: %.1f%%\n", s.Fragmentation*100)

	printInfo("\nTable:\n")
	printInfo("  Live blocks: %d/%d\n", s.LiveBlocks, s.TableCap)
	printInfo("  History:     %d/%d entries\n", s.HistoryLen, r.Config.HistorySlots)

	printInfo("\nRejections:\n")
	printInfo("  Insufficient total: %s\n", humanize.Comma(r.Rejections["insufficient_total"]))
	printInfo("  Fragmentation:      %s\n", humanize.Comma(r.Rejections["fragmentation"]))
	printInfo("  Table exhausted:    %s\n", humanize.Comma(r.Rejections["table_exhausted"]))

	if r.Metrics.AllocCount > 0 {
		printInfo("\nLatency:\n")
		printInfo("  Avg allocate: %s\n", time.Duration(r.Metrics.AllocAvgNanos))
	}
}
