// Package align provides page-aligned buffer allocation for direct I/O,
// and the allocation probe the run generator and k-way merger use to
// size themselves within a bounded memory budget.
//
// Buffers are backed by anonymous memory mappings rather than plain
// make([]byte, n): mmap always returns page-aligned memory, which is the
// realization of "DMA alignment" on a platform that exposes no direct
// O_DIRECT alignment query for anonymous memory.
package align

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"
	"github.com/pbnjay/memory"
	"golang.org/x/sys/unix"
)

// ErrProbeFailed is returned when even the smallest back-off step of the
// probe fails to allocate.
var ErrProbeFailed = errors.New("aligned buffer probe: no usable buffer size found")

// ErrAllocationFailed wraps any failure to obtain aligned memory,
// whether from Probe's own measurement loop or from a later Allocate
// call sizing a real partition buffer. Callers that want to fall back
// to a smaller block size can test for it with errors.Is.
var ErrAllocationFailed = errors.New("aligned buffer allocation failed")

const (
	probeStart   = 512 << 20 // 512 MiB
	probeStep    = 512 << 20 // 512 MiB growth step
	backoffStep  = 64 << 20  // 64 MiB back-off step
	probeMinimum = 4 << 10   // below this we give up
)

// PageMapper is the external collaborator this package depends on for
// obtaining and releasing aligned memory. It exists so tests can swap in
// a mock instead of exercising real mmap syscalls.
type PageMapper interface {
	MapAnon(size int) ([]byte, error)
	Unmap(b []byte) error
}

// mmapPageMapper is the production PageMapper, backed by
// github.com/edsrzf/mmap-go anonymous mappings.
type mmapPageMapper struct{}

func (mmapPageMapper) MapAnon(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("align: invalid size %d", size)
	}
	m, err := mmap.MapRegion(nil, size, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, err
	}
	return []byte(m), nil
}

func (mmapPageMapper) Unmap(b []byte) error {
	if b == nil {
		return nil
	}
	m := mmap.MMap(b)
	return m.Unmap()
}

// Alignment reports the platform's memory-DMA alignment (the page size)
// and, where the kernel can tell us, the filesystem's read/write DMA
// alignment for path's containing device. When the filesystem alignment
// cannot be determined it falls back to the page size, which is always a
// safe (if possibly larger than necessary) multiple.
type Alignment struct {
	Memory int
	Read   int
	Write  int
}

// ProbeAlignment derives the DMA alignments for the filesystem holding path.
func ProbeAlignment(path string) (Alignment, error) {
	pageSize := unix.Getpagesize()
	a := Alignment{Memory: pageSize, Read: pageSize, Write: pageSize}

	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		// Statfs failing isn't fatal to alignment discovery: the page
		// size is always a legal (if conservative) alignment.
		return a, nil
	}
	if bsize := int(st.Bsize); bsize > 0 {
		a.Read = lcm(pageSize, bsize)
		a.Write = a.Read
	}
	return a, nil
}

func lcm(a, b int) int {
	if a == 0 || b == 0 {
		return pickMax(a, b)
	}
	return a / gcd(a, b) * b
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func pickMax(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Pool allocates and tracks aligned buffers. A Pool is not safe for
// concurrent Allocate calls from multiple goroutines that expect a
// shared peak-memory accounting. The orchestrator creates one Pool and
// hands it to the run generator; the k-way merger does not allocate
// from a Pool.
type Pool struct {
	mapper PageMapper
}

// New returns a Pool backed by real anonymous mmap allocations.
func New() *Pool {
	return &Pool{mapper: mmapPageMapper{}}
}

// NewWithMapper returns a Pool backed by the given PageMapper, for tests.
func NewWithMapper(m PageMapper) *Pool {
	return &Pool{mapper: m}
}

// Buffer is an owned, page-aligned byte buffer. It has exactly one
// writer until Freeze is called, after which it yields read-only
// SharedViews; the backing memory is released when the last view (or
// the Buffer itself, if never frozen) is released.
type Buffer struct {
	pool   *Pool
	data   []byte
	frozen bool
	refs   int32
	mu     sync.Mutex
}

// Allocate returns a new Buffer of exactly size bytes, page-aligned.
// size must be positive regardless of which PageMapper backs the Pool.
func (p *Pool) Allocate(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("align: allocate %d bytes: %w: invalid size", size, ErrAllocationFailed)
	}
	data, err := p.mapper.MapAnon(size)
	if err != nil {
		return nil, fmt.Errorf("align: allocate %d bytes: %w: %w", size, ErrAllocationFailed, err)
	}
	return &Buffer{pool: p, data: data, refs: 1}, nil
}

// Bytes returns the writable backing slice. It is only valid to call
// before Freeze.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen {
		panic("align: Bytes called on a frozen Buffer")
	}
	return b.data
}

// Freeze converts the Buffer into a read-only SharedView. After Freeze,
// writes through the original Buffer are forbidden (enforced by Bytes
// panicking); the data itself is unchanged, only its write permission.
func (b *Buffer) Freeze() *SharedView {
	b.mu.Lock()
	b.frozen = true
	b.mu.Unlock()
	return &SharedView{buf: b}
}

// Release drops the reference the Buffer was allocated with, unmapping
// the memory when no other reference remains. Freeze hands that same
// reference to the SharedView it returns, so a frozen Buffer is released
// through its views rather than through Release; Release is for the
// unfrozen, single-owner case.
func (b *Buffer) Release() error {
	return b.release()
}

func (b *Buffer) release() error {
	if atomic.AddInt32(&b.refs, -1) > 0 {
		return nil
	}
	return b.pool.mapper.Unmap(b.data)
}

// SharedView is a reference-counted, read-only view over a frozen
// Buffer. Multiple holders release their share independently; the
// underlying mapping is freed when the last view is dropped.
type SharedView struct {
	buf      *Buffer
	released int32
}

// Bytes returns the read-only view of the buffer's contents.
func (v *SharedView) Bytes() []byte {
	return v.buf.data
}

// Share increments the reference count and returns a new independent
// handle to the same backing memory.
func (v *SharedView) Share() *SharedView {
	atomic.AddInt32(&v.buf.refs, 1)
	return &SharedView{buf: v.buf}
}

// Release drops this view's reference, unmapping the memory if it was
// the last outstanding reference across the original Buffer and every
// share of it.
func (v *SharedView) Release() error {
	if !atomic.CompareAndSwapInt32(&v.released, 0, 1) {
		return nil
	}
	return v.buf.release()
}

// Probe measures the largest single contiguous aligned allocation
// currently obtainable: it grows by probeStep from probeStart while
// allocations succeed, then backs off by backoffStep once one fails,
// returning the first successful size found on the way down. It never
// leaves a buffer allocated past its own measurement.
func (p *Pool) Probe(ctx context.Context) (int, error) {
	size := probeStart
	skipGrowth := false
	if free := int(memory.FreeMemory()); free > 0 && free < probeStart {
		// A flat-out attempt at probeStart is certain to fail when
		// free memory is already smaller than the first growth step;
		// start the back-off loop from free memory instead of wasting
		// a guaranteed-to-fail mmap call.
		size = free
		skipGrowth = true
	}

	if !skipGrowth {
		for {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			buf, err := p.Allocate(size)
			if err == nil {
				_ = buf.Release()
				size += probeStep
				continue
			}
			// This size just failed; the back-off loop below must
			// not retry it.
			size -= backoffStep
			break
		}
	}

	for ; size >= probeMinimum; size -= backoffStep {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		buf, err := p.Allocate(size)
		if err != nil {
			continue
		}
		_ = buf.Release()
		return size, nil
	}
	return 0, ErrProbeFailed
}
