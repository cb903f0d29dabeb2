package extsort

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/chulup/ext-sort/internal/record"
)

// Verify re-reads f from the start and confirms its contents are a
// whole number of width-sized records in non-decreasing order. f's
// read offset is left at EOF on return.
func Verify(f *os.File, width int) error {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("verify: stat: %w", err)
	}
	if err := record.CheckSize(size, width); err != nil {
		return fmt.Errorf("%w: %v", ErrVerifyFailed, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("verify: seek: %w", err)
	}

	r := bufio.NewReaderSize(f, 4<<20)
	prev := make([]byte, width)
	cur := make([]byte, width)
	first := true
	for {
		n, err := io.ReadFull(r, cur)
		if err == io.EOF {
			break
		}
		if err != nil || n != width {
			return fmt.Errorf("%w: short read during verification: %v", ErrVerifyFailed, err)
		}
		if !first && record.Compare(cur, prev) < 0 {
			return fmt.Errorf("%w: records out of order", ErrVerifyFailed)
		}
		copy(prev, cur)
		first = false
	}
	return nil
}
