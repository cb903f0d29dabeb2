package align

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeMapper is a PageMapper that fails once a configured ceiling is
// exceeded, letting tests drive the probe's growth/back-off loops
// deterministically instead of depending on real host memory.
type fakeMapper struct {
	ceiling int
	live    map[int]int
}

func newFakeMapper(ceiling int) *fakeMapper {
	return &fakeMapper{ceiling: ceiling, live: map[int]int{}}
}

func (f *fakeMapper) MapAnon(size int) ([]byte, error) {
	if size > f.ceiling {
		return nil, errors.New("fake: out of memory")
	}
	f.live[size]++
	return make([]byte, size), nil
}

func (f *fakeMapper) Unmap(b []byte) error {
	f.live[len(b)]--
	return nil
}

func TestProbeFindsCeilingBelowFirstStep(t *testing.T) {
	mapper := newFakeMapper(300 << 20) // below the 512MiB first growth step
	p := NewWithMapper(mapper)

	size, err := p.Probe(context.Background())
	require.NoError(t, err)
	require.LessOrEqual(t, size, 300<<20)
	require.Greater(t, size, 300<<20-backoffStep)
}

func TestProbeGrowsPastFirstStep(t *testing.T) {
	mapper := newFakeMapper(probeStart + probeStep + 10<<20)
	p := NewWithMapper(mapper)

	size, err := p.Probe(context.Background())
	require.NoError(t, err)
	require.GreaterOrEqual(t, size, probeStart+probeStep-backoffStep)
	require.LessOrEqual(t, size, probeStart+probeStep+10<<20)
}

func TestProbeLeavesNothingAllocated(t *testing.T) {
	mapper := newFakeMapper(100 << 20)
	p := NewWithMapper(mapper)

	_, err := p.Probe(context.Background())
	require.NoError(t, err)
	for size, count := range mapper.live {
		require.Zerof(t, count, "size %d leaked %d live allocations", size, count)
	}
}

func TestProbeFailsWhenEvenMinimumFails(t *testing.T) {
	mapper := newFakeMapper(0)
	p := NewWithMapper(mapper)

	_, err := p.Probe(context.Background())
	require.ErrorIs(t, err, ErrProbeFailed)
}

func TestBufferFreezeAndShare(t *testing.T) {
	mapper := newFakeMapper(1 << 20)
	p := NewWithMapper(mapper)

	buf, err := p.Allocate(4096)
	require.NoError(t, err)
	copy(buf.Bytes(), []byte("hello"))

	view := buf.Freeze()
	require.Panics(t, func() { buf.Bytes() })

	share := view.Share()
	require.Equal(t, view.Bytes()[:5], []byte("hello"))

	require.NoError(t, view.Release())
	require.Equal(t, 1, mapper.live[4096]) // share still holds it open
	require.NoError(t, share.Release())
	require.Equal(t, 0, mapper.live[4096])
}

func TestAllocateRejectsNonPositiveSize(t *testing.T) {
	p := NewWithMapper(newFakeMapper(1 << 20))
	_, err := p.Allocate(0)
	require.Error(t, err)
}
