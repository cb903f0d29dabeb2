// Package stream implements the one-ahead bufferable read cursor over a
// sorted run that the k-way merger selects from.
package stream

import (
	"bufio"
	"fmt"
	"io"

	"github.com/chulup/ext-sort/internal/record"
)

// Stream is a bounded read cursor over a run. head holds the smallest
// as-yet-unemitted record, owned by this Stream. A Stream becomes empty
// once advance finds no more full records; empty streams are removed
// from the active set by the caller.
type Stream struct {
	r     *bufio.Reader
	width int
	head  []byte
	empty bool

	// origin, for diagnostics only (see record.Run).
	name string
}

// Open attaches a buffered reader of the given size to r at its current
// position (callers are expected to have seeked r to offset 0) and
// returns an unarmed Stream. Call Prime before using Head/Advance.
func Open(r io.Reader, width, bufferSize int, name string) *Stream {
	if bufferSize < width {
		bufferSize = width
	}
	return &Stream{
		r:     bufio.NewReaderSize(r, bufferSize),
		width: width,
		name:  name,
	}
}

// Prime arms the stream by reading its first record into head. Runs are
// never legitimately empty (phase A only ever writes non-empty runs, and
// the cascade only ever merges non-empty runs into new non-empty runs),
// so unlike Advance, a clean zero-byte read at Prime time is itself the
// malformed-run integrity error, not an empty stream.
func (s *Stream) Prime() error {
	buf := make([]byte, s.width)
	n, err := io.ReadFull(s.r, buf)
	if err != nil {
		return fmt.Errorf("stream %s: %w: got %d of %d bytes priming head", s.name, record.ErrShortRead, n, s.width)
	}
	s.head = buf
	return nil
}

// Head returns the current smallest unemitted record. It is only valid
// to call when !Empty().
func (s *Stream) Head() []byte {
	return s.head
}

// Empty reports whether the stream has been fully consumed.
func (s *Stream) Empty() bool {
	return s.empty
}

// Name identifies the run this stream reads from, for diagnostics.
func (s *Stream) Name() string {
	return s.name
}

// Advance discards the current head and reads the next record into its
// place. If the reader reaches EOF before a full record can be read, the
// stream transitions to empty and Head must not be called again.
func (s *Stream) Advance() error {
	next, err := s.readRecord()
	if err != nil {
		return err
	}
	if next == nil {
		s.head = nil
		s.empty = true
		return nil
	}
	s.head = next
	return nil
}

// readRecord reads exactly width bytes, or reports a clean nil,nil at a
// record boundary EOF. A partial record (1..width-1 bytes before EOF) is
// a fatal integrity error: a run must always hold a whole number of
// records.
func (s *Stream) readRecord() ([]byte, error) {
	buf := make([]byte, s.width)
	n, err := io.ReadFull(s.r, buf)
	switch {
	case err == nil:
		return buf, nil
	case err == io.EOF && n == 0:
		return nil, nil
	case err == io.ErrUnexpectedEOF || (err == io.EOF && n > 0):
		return nil, fmt.Errorf("stream %s: %w: got %d of %d bytes at record boundary", s.name, record.ErrShortRead, n, s.width)
	default:
		return nil, fmt.Errorf("stream %s: %w", s.name, err)
	}
}
