package cascade

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/chulup/ext-sort/internal/runfile"
	"github.com/chulup/ext-sort/internal/tempfile"
)

type memSink struct {
	bytes.Buffer
	flushed bool
}

func (s *memSink) Flush() error {
	s.flushed = true
	return nil
}

func newRun(t *testing.T, tmp *tempfile.Manager, values []byte) *runfile.File {
	t.Helper()
	h, err := tmp.Create(context.Background())
	require.NoError(t, err)
	n, err := h.File.WriteAt(values, 0)
	require.NoError(t, err)
	require.Equal(t, len(values), n)
	return &runfile.File{Handle: h, Size: int64(len(values))}
}

func TestRunMergesDownToFanInThenFinalMerges(t *testing.T) {
	width := 1
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "input.bin")
	require.NoError(t, os.WriteFile(inputPath, nil, 0600))

	tmp := tempfile.New(inputPath, zaptest.NewLogger(t))
	runs := []*runfile.File{
		newRun(t, tmp, []byte{6}),
		newRun(t, tmp, []byte{3}),
		newRun(t, tmp, []byte{5}),
		newRun(t, tmp, []byte{1}),
		newRun(t, tmp, []byte{4}),
		newRun(t, tmp, []byte{2}),
		newRun(t, tmp, []byte{0}),
	}

	c := New(tmp, width, 10000, 1, zaptest.NewLogger(t))
	c.FanIn = 3
	c.MinBuffer = 1

	sink := &memSink{}
	err := c.Run(context.Background(), runs, sink)
	require.NoError(t, err)
	require.True(t, sink.flushed)
	require.Equal(t, []byte{0, 1, 2, 3, 4, 5, 6}, sink.Bytes())

	require.NoError(t, tmp.CloseAll(true))
}

func TestRunSingleRunSkipsCascadeLoop(t *testing.T) {
	width := 4
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "input.bin")
	require.NoError(t, os.WriteFile(inputPath, nil, 0600))

	tmp := tempfile.New(inputPath, zaptest.NewLogger(t))
	run := newRun(t, tmp, []byte{1, 0, 0, 0, 2, 0, 0, 0})

	c := New(tmp, width, 1<<20, 1, zaptest.NewLogger(t))
	sink := &memSink{}
	err := c.Run(context.Background(), []*runfile.File{run}, sink)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0}, sink.Bytes())
}

func TestRunRejectsCanceledContext(t *testing.T) {
	width := 1
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "input.bin")
	require.NoError(t, os.WriteFile(inputPath, nil, 0600))

	tmp := tempfile.New(inputPath, zaptest.NewLogger(t))
	runs := []*runfile.File{
		newRun(t, tmp, []byte{2}),
		newRun(t, tmp, []byte{1}),
		newRun(t, tmp, []byte{3}),
	}

	c := New(tmp, width, 10000, 1, zaptest.NewLogger(t))
	c.FanIn = 1
	c.MinBuffer = 1

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &memSink{}
	err := c.Run(ctx, runs, sink)
	require.Error(t, err)
}
