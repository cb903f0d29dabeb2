// Package cascade implements phase B: iteratively merging the smallest
// runs until the remaining fan-in fits the memory budget, then
// performing the final merge into the original file.
package cascade

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/chulup/ext-sort/internal/kmerge"
	"github.com/chulup/ext-sort/internal/runfile"
	"github.com/chulup/ext-sort/internal/stream"
	"github.com/chulup/ext-sort/internal/telemetry"
	"github.com/chulup/ext-sort/internal/tempfile"
)

// DefaultFanIn bounds how many runs a single merge step may fan in, and
// DefaultMinBuffer is the smallest per-stream buffer the cascade will
// tolerate before it keeps merging down further.
const (
	DefaultFanIn     = 5
	DefaultMinBuffer = 100 << 20 // 100 MiB
)

// Controller drives the cascade loop and the final merge.
type Controller struct {
	TempMgr    *tempfile.Manager
	Width      int
	FanIn      int
	MinBuffer  int64
	MemBudget  int64
	WriteAlign int
	Log        *zap.Logger
	// Reporter, if set, is notified once per cascade iteration. It is
	// not required for correctness; it exists so the orchestrator can
	// drive a live progress line.
	Reporter telemetry.Reporter
	// Metrics, if set, has its CascadeIterations counter incremented
	// once per cascade iteration (the final merge is not counted, since
	// it isn't one of the fan-in-bounded reduction steps).
	Metrics *telemetry.Metrics
}

// New returns a Controller with FanIn/MinBuffer defaulted if zero.
func New(tmp *tempfile.Manager, width int, memBudget int64, writeAlign int, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		TempMgr:    tmp,
		Width:      width,
		FanIn:      DefaultFanIn,
		MinBuffer:  DefaultMinBuffer,
		MemBudget:  memBudget,
		WriteAlign: writeAlign,
		Log:        log,
	}
}

// Run executes the cascade loop over runs until the remaining fan-in
// fits the memory budget, then performs the final merge writing into
// sink (the caller-opened original input file, seeked to 0 by the
// caller beforehand; the output has the same length as the input, so
// no truncation is done).
// Run closes and removes every run it consumes, including the final
// set, but never touches sink's lifecycle.
func (c *Controller) Run(ctx context.Context, runs []*runfile.File, sink kmerge.Sink) error {
	iteration := 0
	for len(runs) > c.FanIn || kmerge.BufferBudget(c.MemBudget, len(runs), c.WriteAlign) < int(c.MinBuffer) {
		if len(runs) <= 1 {
			// A single run can never be reduced further; if it still
			// doesn't satisfy the buffer floor, the final merge will
			// simply run with whatever budget a single stream leaves,
			// which is always enough since there's no fan-in to share
			// the budget across.
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		iteration++
		before := len(runs)

		sort.Sort(runfile.BySize(runs))
		k := c.FanIn
		if k > len(runs) {
			k = len(runs)
		}
		picks := runs[:k]
		rest := runs[k:]

		merged, err := c.mergeInto(ctx, picks)
		if err != nil {
			return err
		}
		for _, p := range picks {
			if err := p.CloseAndRemove(); err != nil {
				return fmt.Errorf("cascade: closing consumed run %s: %w", p.Name, err)
			}
		}

		runs = append(rest, merged)
		c.Log.Info("cascade iteration",
			zap.Int("iteration", iteration),
			zap.Int("runs_before", before),
			zap.Int("runs_after", len(runs)),
			zap.Int64("bytes_merged", merged.Size),
		)
		if c.Reporter != nil {
			c.Reporter.CascadeIterationCompleted()
		}
		if c.Metrics != nil {
			c.Metrics.CascadeIterations.Inc()
		}
	}

	c.Log.Info("final merge", zap.Int("runs", len(runs)))
	streams, err := c.openStreams(runs, len(runs))
	if err != nil {
		return err
	}
	finalSink := kmerge.NewWriteBehindSink(sink, c.perStream(len(runs)))
	if err := kmerge.Merge(ctx, streams, c.Width, finalSink, c.Log); err != nil {
		return err
	}
	var closeErr error
	for _, r := range runs {
		if err := r.CloseAndRemove(); err != nil && closeErr == nil {
			closeErr = err
		}
	}
	return closeErr
}

// mergeInto merges picks into a fresh temp run, writing through a
// kmerge.WriteBehindSink sized to the same per-stream budget the input
// streams use.
func (c *Controller) mergeInto(ctx context.Context, picks []*runfile.File) (*runfile.File, error) {
	streams, err := c.openStreams(picks, len(picks))
	if err != nil {
		return nil, err
	}
	handle, err := c.TempMgr.Create(ctx)
	if err != nil {
		return nil, err
	}
	out := &runfile.File{Handle: handle}
	sink := kmerge.NewWriteBehindSink(handle.File, c.perStream(len(picks)))
	if err := kmerge.Merge(ctx, streams, c.Width, sink, c.Log); err != nil {
		return nil, err
	}
	size, err := out.File.Seek(0, 2)
	if err != nil {
		return nil, fmt.Errorf("cascade: size new run %s: %w", out.Name, err)
	}
	out.Size = size
	return out, nil
}

// perStream is the per-stream buffer size kmerge.BufferBudget computes
// for a fan-in of n against this controller's memory budget, floored at
// one write-alignment unit. Both the input streams opened by
// openStreams and the write-behind sink's buffer (sized 2*perStream,
// per kmerge.NewWriteBehindSink) use the same n so their shares of the
// budget stay consistent with each other.
func (c *Controller) perStream(n int) int {
	perStream := kmerge.BufferBudget(c.MemBudget, n, c.WriteAlign)
	if perStream < c.WriteAlign {
		perStream = c.WriteAlign
	}
	return perStream
}

// openStreams opens a primed stream.Stream over each run, sized per
// kmerge.BufferBudget for the given fan-in n.
func (c *Controller) openStreams(runs []*runfile.File, n int) ([]*stream.Stream, error) {
	perStream := c.perStream(n)
	streams := make([]*stream.Stream, len(runs))
	for i, r := range runs {
		s, err := r.OpenStream(c.Width, perStream)
		if err != nil {
			return nil, fmt.Errorf("cascade: open stream for %s: %w", r.Name, err)
		}
		streams[i] = s
	}
	return streams, nil
}
