package stream

import (
	"bytes"
	"errors"
	"testing"

	"github.com/chulup/ext-sort/internal/record"
	"github.com/stretchr/testify/require"
)

func TestPrimeAndAdvance(t *testing.T) {
	data := []byte{
		1, 1, 1, 1,
		2, 2, 2, 2,
		3, 3, 3, 3,
	}
	s := Open(bytes.NewReader(data), 4, 16, "run0")
	require.NoError(t, s.Prime())
	require.Equal(t, []byte{1, 1, 1, 1}, s.Head())
	require.False(t, s.Empty())

	require.NoError(t, s.Advance())
	require.Equal(t, []byte{2, 2, 2, 2}, s.Head())

	require.NoError(t, s.Advance())
	require.Equal(t, []byte{3, 3, 3, 3}, s.Head())

	require.NoError(t, s.Advance())
	require.True(t, s.Empty())
}

func TestPrimeOnEmptyRunIsFatal(t *testing.T) {
	s := Open(bytes.NewReader(nil), 4, 16, "run0")
	err := s.Prime()
	require.Error(t, err)
	require.ErrorIs(t, err, record.ErrShortRead)
}

func TestPrimeOnPartialRecordIsFatal(t *testing.T) {
	s := Open(bytes.NewReader([]byte{1, 2}), 4, 16, "run0")
	err := s.Prime()
	require.Error(t, err)
	require.ErrorIs(t, err, record.ErrShortRead)
}

func TestAdvancePartialRecordIsFatal(t *testing.T) {
	data := []byte{1, 1, 1, 1, 9, 9}
	s := Open(bytes.NewReader(data), 4, 16, "run0")
	require.NoError(t, s.Prime())

	err := s.Advance()
	require.Error(t, err)
	require.ErrorIs(t, err, record.ErrShortRead)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestPrimePropagatesReaderError(t *testing.T) {
	s := Open(errReader{}, 4, 16, "run0")
	require.Error(t, s.Prime())
}
