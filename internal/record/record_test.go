package record

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckSize(t *testing.T) {
	require.NoError(t, CheckSize(0, 4))
	require.NoError(t, CheckSize(12, 4))
	require.ErrorIs(t, CheckSize(5, 4), ErrSizeNotMultiple)
}

func TestSliceSort(t *testing.T) {
	buf := []byte{
		0x03, 0x00, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
	}
	s := NewSlice(buf, 4)
	require.Equal(t, 3, s.Len())

	sort.Sort(s)

	want := []byte{
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
		0x03, 0x00, 0x00, 0x00,
	}
	require.Equal(t, want, buf)
}

func TestSliceStableDuplicates(t *testing.T) {
	buf := []byte{
		0xAA, 0xBB, 0xCC, 0xDD,
		0xAA, 0xBB, 0xCC, 0xDD,
		0x00, 0x00, 0x00, 0x00,
	}
	s := NewSlice(buf, 4)
	sort.Sort(s)
	want := []byte{
		0x00, 0x00, 0x00, 0x00,
		0xAA, 0xBB, 0xCC, 0xDD,
		0xAA, 0xBB, 0xCC, 0xDD,
	}
	require.Equal(t, want, buf)
}
