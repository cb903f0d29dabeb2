// Package extsort sorts a file of fixed-width binary records in place,
// using only a bounded amount of memory regardless of the file's size.
// It sequences the two phases that make this possible: partitioning the
// input into sorted temp runs (internal/rungen), then merging those runs
// back down, in cascades bounded by the memory budget, into the
// original file (internal/cascade).
package extsort

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/chulup/ext-sort/internal/align"
	"github.com/chulup/ext-sort/internal/cascade"
	"github.com/chulup/ext-sort/internal/directio"
	"github.com/chulup/ext-sort/internal/record"
	"github.com/chulup/ext-sort/internal/rungen"
	"github.com/chulup/ext-sort/internal/runfile"
	"github.com/chulup/ext-sort/internal/telemetry"
	"github.com/chulup/ext-sort/internal/tempfile"
)

// Options configures a Sort call. Zero or nil values are replaced with
// the package defaults below.
type Options struct {
	RecordSize int
	FanIn      int
	MinBuffer  int64

	// Reporter receives phase/progress updates as the sort runs. It may
	// be nil, in which case progress is simply not reported.
	Reporter telemetry.Reporter
	// Metrics receives completion counters. It may be nil.
	Metrics *telemetry.Metrics
	// Verify re-reads the output file after the merge and checks that it
	// is sorted and the expected size before returning success.
	Verify bool
}

// DefaultFanIn and DefaultMinBuffer mirror the cascade controller's
// defaults so callers can reference them without importing that package.
const (
	DefaultFanIn     = cascade.DefaultFanIn
	DefaultMinBuffer = cascade.DefaultMinBuffer
)

func (o Options) withDefaults() Options {
	if o.RecordSize <= 0 {
		o.RecordSize = record.DefaultWidth
	}
	if o.FanIn <= 0 {
		o.FanIn = DefaultFanIn
	}
	if o.MinBuffer <= 0 {
		o.MinBuffer = DefaultMinBuffer
	}
	return o
}

// ErrVerifyFailed is returned when --verify finds the output file is not
// sorted or not the expected size.
var ErrVerifyFailed = errors.New("extsort: output failed post-sort verification")

// Sort partitions, sorts, and merges the records in the file at path, in
// place, using no more than an internally probed amount of memory. It
// returns an error wrapped with the name of the phase that failed.
func Sort(ctx context.Context, path string, opts Options) error {
	opts = opts.withDefaults()
	log := telemetry.Logger(ctx)
	reporter := opts.Reporter
	if reporter == nil {
		reporter = telemetry.NewRunProgress()
	}
	defer reporter.Finish()

	alignment, err := align.ProbeAlignment(path)
	if err != nil {
		return fmt.Errorf("probe alignment: %w", err)
	}

	input, direct, err := directio.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	if direct && (opts.RecordSize%alignment.Read != 0 || opts.RecordSize%alignment.Write != 0) {
		// O_DIRECT requires every read/write to be aligned to the
		// device's DMA alignment, not just the record width. A record
		// width that isn't a multiple of that alignment can't satisfy
		// it, so fall back to the page-cache-backed open rather than
		// risk EINVAL on an unaligned read or write later in the run.
		input.Close()
		input, err = os.OpenFile(path, os.O_RDWR, 0600)
		if err != nil {
			return fmt.Errorf("open: %w", err)
		}
		direct = false
	}
	defer input.Close()
	log.Debug("opened input", zap.Bool("direct_io", direct))

	size, err := input.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	if err := record.CheckSize(size, opts.RecordSize); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	pool := align.New()
	budget, err := pool.Probe(ctx)
	if err != nil {
		return fmt.Errorf("probe memory: %w", err)
	}
	log.Info("probed memory budget", zap.Int("bytes", budget))
	blockSize := (int64(budget) / int64(opts.RecordSize)) * int64(opts.RecordSize)
	if blockSize <= 0 {
		blockSize = int64(opts.RecordSize)
	}

	tmp := tempfile.New(path, log)
	defer tmp.CloseAll(true)

	reporter.SetPhase("generating runs")
	gen := rungen.New(pool, tmp, opts.RecordSize, defaultShards(), log)
	runs, err := generateWithFallback(ctx, gen, input, blockSize, opts.RecordSize)
	if err != nil {
		return fmt.Errorf("generate runs: %w", err)
	}
	reporter.SetRunsTotal(int64(len(runs)))
	if opts.Metrics != nil {
		opts.Metrics.RunsGenerated.Add(float64(len(runs)))
	}
	if len(runs) == 0 {
		return nil
	}

	reporter.SetPhase("merging runs")
	ctrl := cascade.New(tmp, opts.RecordSize, int64(budget), alignment.Write, log)
	ctrl.FanIn = opts.FanIn
	ctrl.MinBuffer = opts.MinBuffer
	ctrl.Reporter = reporter
	ctrl.Metrics = opts.Metrics

	if _, err := input.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek output: %w", err)
	}
	start := time.Now()
	sink := newFileSink(input)
	if err := ctrl.Run(ctx, runs, sink); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	mergeElapsed := time.Since(start)
	if opts.Metrics != nil {
		opts.Metrics.MergeDuration.Observe(mergeElapsed.Seconds())
		opts.Metrics.BytesSorted.Add(float64(size))
	}
	reporter.BytesCompleted(size)
	logCompletionSummary(log, opts.Metrics, mergeElapsed)

	if err := input.Sync(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	if opts.Verify {
		reporter.SetPhase("verifying")
		if err := Verify(input, opts.RecordSize); err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		outSize, err := input.Seek(0, io.SeekEnd)
		if err != nil {
			return fmt.Errorf("verify: stat: %w", err)
		}
		if outSize != size {
			return fmt.Errorf("verify: %w: output is %d bytes, input was %d", ErrVerifyFailed, outSize, size)
		}
	}
	return nil
}

// generateWithFallback runs phase A at blockSize, and if a later
// allocation at that size fails (the probe measured a ceiling that's
// since been partially consumed by another process), halves the block
// size and retries once before giving up.
func generateWithFallback(ctx context.Context, gen *rungen.Generator, input *os.File, blockSize int64, width int) ([]*runfile.File, error) {
	runs, err := gen.Generate(ctx, input, blockSize)
	if err == nil {
		return runs, nil
	}
	if !errors.Is(err, align.ErrAllocationFailed) {
		return nil, err
	}
	halved := (blockSize / 2 / int64(width)) * int64(width)
	if halved <= 0 {
		return nil, err
	}
	return gen.Generate(ctx, input, halved)
}

// logCompletionSummary writes a single structured log line summarizing
// the counters Metrics collected over the run, read back with
// testutil.ToFloat64 rather than tracked separately by the orchestrator.
// It is a no-op when metrics weren't requested.
func logCompletionSummary(log *zap.Logger, metrics *telemetry.Metrics, mergeElapsed time.Duration) {
	if metrics == nil {
		return
	}
	log.Info("sort complete",
		zap.Float64("bytes_sorted_total", testutil.ToFloat64(metrics.BytesSorted)),
		zap.Float64("runs_generated_total", testutil.ToFloat64(metrics.RunsGenerated)),
		zap.Float64("cascade_iterations_total", testutil.ToFloat64(metrics.CascadeIterations)),
		zap.Float64("merge_duration_seconds", mergeElapsed.Seconds()),
	)
}

// fileSink writes a merge's output into f starting at its current
// offset, implementing kmerge.Sink. The cascade controller wraps this
// in its own kmerge.WriteBehindSink sized off the merge's per-stream
// budget, so fileSink itself stays a thin, unbuffered adapter rather
// than duplicating that buffering.
type fileSink struct {
	f *os.File
}

func newFileSink(f *os.File) *fileSink {
	return &fileSink{f: f}
}

func (s *fileSink) Write(p []byte) (int, error) { return s.f.Write(p) }
func (s *fileSink) Flush() error                { return nil }
