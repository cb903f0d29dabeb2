// Package runfile ties a temp file handle to the run metadata the
// cascade controller sorts on, and knows how to open a fresh read
// cursor (a stream.Stream) over the run's contents.
package runfile

import (
	"fmt"
	"io"

	"github.com/chulup/ext-sort/internal/record"
	"github.com/chulup/ext-sort/internal/stream"
	"github.com/chulup/ext-sort/internal/tempfile"
)

// File is a run backed by an on-disk temp file.
type File struct {
	*tempfile.Handle
	Size         int64
	OriginOffset int64
}

// Run returns the record.Run metadata view of this file.
func (f *File) Run() record.Run {
	return record.Run{Name: f.Name, SizeBytes: f.Size, OriginOffset: f.OriginOffset}
}

// OpenStream seeks the file back to its start and returns a primed
// stream.Stream over it. The caller owns the returned stream's lifetime
// but not the file descriptor, which stays with f.
func (f *File) OpenStream(width, bufferSize int) (*stream.Stream, error) {
	if _, err := f.File.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("runfile: seek %s: %w", f.Name, err)
	}
	s := stream.Open(f.File, width, bufferSize, f.Name)
	if err := s.Prime(); err != nil {
		return nil, err
	}
	return s, nil
}

// BySize sorts Files ascending by Size, the "pick the K smallest runs"
// ordering the cascade controller needs.
type BySize []*File

func (b BySize) Len() int           { return len(b) }
func (b BySize) Less(i, j int) bool { return b[i].Size < b[j].Size }
func (b BySize) Swap(i, j int)      { b[i], b[j] = b[j], b[i] }
