// Package kmerge implements the k-way merge: given a set of sorted
// Merge Streams, emit a single sorted sequence to a sink. Selection uses
// a linear scan for small fan-ins and a container/heap min-heap for
// larger ones, mirroring the historical zq k-way merge's FileLineHeap
// and bnyeggen/fileutils's stringPosPairHeap.
package kmerge

import (
	"container/heap"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chulup/ext-sort/internal/record"
	"github.com/chulup/ext-sort/internal/stream"
)

// linearScanThreshold is the fan-in above which selection switches from
// a linear scan to a heap. Below it the O(n) scan's constant factor
// beats heap bookkeeping; above it the heap's O(log n) fix wins.
const linearScanThreshold = 8

// Sink is the destination of a merge: a write-behind-capable writer that
// must be flushed before the merge is considered durable.
type Sink interface {
	io.Writer
	Flush() error
}

// Merge merges every stream in streams (already primed) into sink in
// ascending record order, using width-sized comparisons. It returns once
// every stream has gone empty and sink has been flushed. The caller
// retains ownership of streams and sink; Merge does not close either.
func Merge(ctx context.Context, streams []*stream.Stream, width int, sink Sink, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	active := make([]*stream.Stream, 0, len(streams))
	for _, s := range streams {
		if !s.Empty() {
			active = append(active, s)
		}
	}

	var sel selector
	if len(active) > linearScanThreshold {
		sel = newHeapSelector(active)
	} else {
		sel = newLinearSelector(active)
	}

	var totalBytes int64
	for sel.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		s := sel.Min()
		head := s.Head()

		grp, _ := errgroup.WithContext(ctx)
		grp.Go(func() error {
			n, err := sink.Write(head)
			if err != nil {
				return fmt.Errorf("kmerge: write: %w", err)
			}
			if n != len(head) {
				return fmt.Errorf("kmerge: %w: wrote %d of %d bytes", record.ErrShortWrite, n, len(head))
			}
			return nil
		})
		grp.Go(func() error {
			return s.Advance()
		})
		if err := grp.Wait(); err != nil {
			return err
		}
		totalBytes += int64(width)

		if s.Empty() {
			sel.Remove()
		} else {
			sel.Fix()
		}
	}

	if err := sink.Flush(); err != nil {
		return fmt.Errorf("kmerge: flush: %w", err)
	}
	log.Debug("merge complete", zap.Int("streams", len(streams)), zap.Int64("bytes", totalBytes))
	return nil
}

// BufferBudget computes the per-stream input buffer size given a total
// memory budget m and n input streams, reserving c=2 buffer-equivalents
// for the output sink (the sink buffer is twice a stream's share, to
// give the write-behind path room to run ahead of the next selection),
// and rounds down to a multiple of writeAlign. It returns 0 if the
// result would be smaller than one alignment unit — the caller must
// then reduce n by cascading.
func BufferBudget(m int64, n, writeAlign int) int {
	if n <= 0 || writeAlign <= 0 {
		return 0
	}
	const c = 2
	perStream := m / int64(n+c)
	aligned := (perStream / int64(writeAlign)) * int64(writeAlign)
	if aligned < int64(writeAlign) {
		return 0
	}
	return int(aligned)
}

// selector abstracts the min-selection strategy so Merge can switch
// between linear scan and heap without duplicating the step logic.
type selector interface {
	Len() int
	Min() *stream.Stream   // the stream currently holding the minimum head
	Remove()               // drop the just-returned minimum (now empty) from the active set
	Fix()                  // the just-returned minimum's head changed; re-establish selector invariants
}

// --- linear scan selector ---

type linearSelector struct {
	streams []*stream.Stream
	minIdx  int
}

func newLinearSelector(streams []*stream.Stream) *linearSelector {
	s := &linearSelector{streams: streams}
	s.findMin()
	return s
}

func (s *linearSelector) findMin() {
	s.minIdx = -1
	for i, st := range s.streams {
		if s.minIdx == -1 || record.Less(st.Head(), s.streams[s.minIdx].Head()) {
			s.minIdx = i
		}
	}
}

func (s *linearSelector) Len() int { return len(s.streams) }

func (s *linearSelector) Min() *stream.Stream { return s.streams[s.minIdx] }

func (s *linearSelector) Remove() {
	last := len(s.streams) - 1
	s.streams[s.minIdx] = s.streams[last]
	s.streams = s.streams[:last]
	s.findMin()
}

func (s *linearSelector) Fix() { s.findMin() }

// --- heap selector ---

type streamHeap []*stream.Stream

func (h streamHeap) Len() int { return len(h) }
func (h streamHeap) Less(i, j int) bool {
	return record.Less(h[i].Head(), h[j].Head())
}
func (h streamHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *streamHeap) Push(x interface{}) {
	*h = append(*h, x.(*stream.Stream))
}
func (h *streamHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

type heapSelector struct {
	h streamHeap
}

func newHeapSelector(streams []*stream.Stream) *heapSelector {
	h := make(streamHeap, len(streams))
	copy(h, streams)
	heap.Init(&h)
	return &heapSelector{h: h}
}

func (s *heapSelector) Len() int { return s.h.Len() }

func (s *heapSelector) Min() *stream.Stream { return s.h[0] }

func (s *heapSelector) Remove() {
	heap.Pop(&s.h)
}

func (s *heapSelector) Fix() {
	heap.Fix(&s.h, 0)
}
