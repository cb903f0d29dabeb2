package telemetry

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gosuri/uilive"
)

// Displayer renders one frame of progress to w and reports whether
// rendering should continue on the next tick.
type Displayer interface {
	Display(w io.Writer) bool
}

// Progress drives a Displayer against a live-updating terminal line on a
// fixed interval, until the run finishes or Close is called.
type Progress struct {
	live     *uilive.Writer
	interval time.Duration
	updater  Displayer
	buffer   *bytes.Buffer
	closeCh  chan struct{}
	done     sync.WaitGroup
}

// NewProgress returns a Progress that renders updater's output every
// interval.
func NewProgress(updater Displayer, interval time.Duration) *Progress {
	return &Progress{
		live:     uilive.New(),
		interval: interval,
		updater:  updater,
		buffer:   bytes.NewBuffer(nil),
		closeCh:  make(chan struct{}),
	}
}

func (p *Progress) render() bool {
	p.buffer.Reset()
	cont := p.updater.Display(p.buffer)
	_, _ = io.Copy(p.live, p.buffer)
	_ = p.live.Flush()
	return cont
}

// Run renders on a ticking interval until the Displayer reports it's
// done or Close is called. It blocks; call it from its own goroutine.
func (p *Progress) Run() {
	p.done.Add(1)
	for {
		if !p.render() {
			close(p.closeCh)
		}
		select {
		case <-p.closeCh:
			p.done.Done()
			return
		case <-time.After(p.interval):
		}
	}
}

// Close stops the progress loop and renders one final frame.
func (p *Progress) Close() {
	select {
	case <-p.closeCh:
	default:
		close(p.closeCh)
	}
	p.done.Wait()
	p.render()
}

//go:generate mockgen -destination=telemetrymock/reporter_mock.go -package=telemetrymock github.com/chulup/ext-sort/internal/telemetry Reporter

// Reporter is the external collaborator the orchestrator drives as it
// moves through phase A and the cascade. It's kept as an interface
// (rather than a concrete *RunProgress dependency) so orchestrator
// tests can substitute a mock instead of exercising the real
// uilive-backed progress line.
type Reporter interface {
	SetPhase(name string)
	SetRunsTotal(n int64)
	RunCompleted()
	CascadeIterationCompleted()
	BytesCompleted(n int64)
	Finish()
}

// RunProgress tracks the sort's phase and run-count state for rendering
// as a single status line. All fields are updated by the orchestrator
// from whichever goroutine observes the change; they're atomics so
// rendering never races with progress updates.
type RunProgress struct {
	Phase          atomic.Value // string
	RunsTotal      atomic.Int64
	RunsDone       atomic.Int64
	CascadeIter    atomic.Int64
	BytesProcessed atomic.Int64
	finished       atomic.Bool
}

// NewRunProgress returns a RunProgress with Phase initialized to "starting".
func NewRunProgress() *RunProgress {
	p := &RunProgress{}
	p.Phase.Store("starting")
	return p
}

func (p *RunProgress) SetPhase(name string) { p.Phase.Store(name) }
func (p *RunProgress) SetRunsTotal(n int64) { p.RunsTotal.Store(n) }
func (p *RunProgress) RunCompleted()        { p.RunsDone.Add(1) }
func (p *RunProgress) BytesCompleted(n int64) {
	p.BytesProcessed.Add(n)
}

func (p *RunProgress) CascadeIterationCompleted() {
	p.CascadeIter.Add(1)
}

// Finish marks the run complete; the next Display call returns false.
func (p *RunProgress) Finish() {
	p.finished.Store(true)
}

// Display implements Displayer.
func (p *RunProgress) Display(w io.Writer) bool {
	phase, _ := p.Phase.Load().(string)
	fmt.Fprintf(w, "extsort: %s  runs=%d/%d  cascade_iter=%d  bytes=%d\n",
		phase, p.RunsDone.Load(), p.RunsTotal.Load(), p.CascadeIter.Load(), p.BytesProcessed.Load())
	return !p.finished.Load()
}

var _ Reporter = (*RunProgress)(nil)
