package kmerge

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	flushed bool
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushed = true
	return nil
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Bytes()
}

func TestWriteBehindSinkBuffersThenFlushes(t *testing.T) {
	dest := &syncBuffer{}
	sink := NewWriteBehindSink(dest, 4) // bufferSize = 8

	n, err := sink.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Empty(t, dest.Bytes(), "a partial buffer shouldn't be dispatched yet")

	_, err = sink.Write([]byte{4, 5, 6, 7, 8, 9})
	require.NoError(t, err)

	require.NoError(t, sink.Flush())
	require.True(t, dest.flushed)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}, dest.Bytes())
}

func TestWriteBehindSinkOverlapsDispatches(t *testing.T) {
	dest := &syncBuffer{}
	sink := NewWriteBehindSink(dest, 1) // bufferSize = 2

	for i := 0; i < 50; i++ {
		_, err := sink.Write([]byte{byte(i)})
		require.NoError(t, err)
	}
	require.NoError(t, sink.Flush())
	require.Len(t, dest.Bytes(), 50)
}

type errWriter struct{}

func (errWriter) Write(p []byte) (int, error) { return 0, errors.New("boom") }

func TestWriteBehindSinkSurfacesUnderlyingError(t *testing.T) {
	sink := NewWriteBehindSink(errWriter{}, 1)
	_, err := sink.Write([]byte{1, 2})
	require.NoError(t, err) // the failure happens in the background dispatch

	err = sink.Flush()
	require.Error(t, err)

	_, err = sink.Write([]byte{3})
	require.Error(t, err, "a previously observed error should surface on later writes too")
}

func TestNewWriteBehindSinkGuardsZeroBufferSize(t *testing.T) {
	dest := &syncBuffer{}
	sink := NewWriteBehindSink(dest, 0)
	_, err := sink.Write([]byte{1})
	require.NoError(t, err)
	require.NoError(t, sink.Flush())
	require.Equal(t, []byte{1}, dest.Bytes())
}
