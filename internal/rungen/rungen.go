// Package rungen implements phase A of the external sort: partitioning
// the input into blocks, sorting each block in memory, and persisting it
// as a temp run. Distinct partitions are sorted on distinct shards
// (goroutines bound into an errgroup.Group); there is no shared mutable
// state across shards beyond a single atomic read cursor.
package rungen

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chulup/ext-sort/internal/align"
	"github.com/chulup/ext-sort/internal/record"
	"github.com/chulup/ext-sort/internal/runfile"
	"github.com/chulup/ext-sort/internal/tempfile"
)

// Generator partitions an input file into sorted runs.
type Generator struct {
	Pool    *align.Pool
	TempMgr *tempfile.Manager
	Width   int
	Shards  int
	Log     *zap.Logger
}

// New returns a Generator with Shards defaulting to 1 if shards <= 0.
func New(pool *align.Pool, tmp *tempfile.Manager, width, shards int, log *zap.Logger) *Generator {
	if shards <= 0 {
		shards = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{Pool: pool, TempMgr: tmp, Width: width, Shards: shards, Log: log}
}

// Generate partitions input at offsets 0, blockSize, 2*blockSize, ...
// (the last partition may be shorter, but always a multiple of Width),
// sorts each partition in memory, and writes it out as a temp run. It
// returns the runs in input order. A short read on a non-terminal
// partition, or a read count that isn't a multiple of Width, is fatal.
func (g *Generator) Generate(ctx context.Context, input *os.File, blockSize int64) ([]*runfile.File, error) {
	size, err := input.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("rungen: stat input: %w", err)
	}
	if err := record.CheckSize(size, g.Width); err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}

	nPartitions := int((size + blockSize - 1) / blockSize)
	runs := make([]*runfile.File, nPartitions)

	var cursor atomic.Int64 // next partition index to claim
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(g.Shards)

	for s := 0; s < g.Shards; s++ {
		grp.Go(func() error {
			for {
				idx := int(cursor.Add(1)) - 1
				if idx >= nPartitions {
					return nil
				}
				offset := int64(idx) * blockSize
				length := blockSize
				if offset+length > size {
					length = size - offset
				}
				run, err := g.sortPartition(gctx, input, offset, length, idx == nPartitions-1)
				if err != nil {
					return err
				}
				runs[idx] = run
			}
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}

// sortPartition reads one partition via a dedicated aligned buffer,
// sorts it in place, and writes the result out as a new temp run. Only
// one partition buffer is held live per call, bounding peak RAM to
// (shards * blockSize).
func (g *Generator) sortPartition(ctx context.Context, input *os.File, offset, length int64, isLast bool) (*runfile.File, error) {
	buf, err := g.Pool.Allocate(int(length))
	if err != nil {
		return nil, fmt.Errorf("rungen: allocate partition buffer: %w", err)
	}
	defer buf.Release()

	n, err := input.ReadAt(buf.Bytes(), offset)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("rungen: read partition at %d: %w", offset, err)
	}
	if int64(n) != length {
		if !isLast {
			return nil, fmt.Errorf("rungen: %w: read %d of %d bytes at offset %d", record.ErrShortRead, n, length, offset)
		}
		length = int64(n)
	}
	if err := record.CheckSize(length, g.Width); err != nil {
		return nil, fmt.Errorf("rungen: partition at %d: %w", offset, err)
	}

	slice := record.NewSlice(buf.Bytes()[:length], g.Width)
	sort.Sort(slice)

	handle, err := g.TempMgr.Create(ctx)
	if err != nil {
		return nil, err
	}
	if length > 0 {
		written, err := handle.File.WriteAt(buf.Bytes()[:length], 0)
		if err != nil {
			handle.CloseAndRemove()
			return nil, fmt.Errorf("rungen: write run %s: %w", handle.Name, err)
		}
		if int64(written) != length {
			handle.CloseAndRemove()
			return nil, fmt.Errorf("rungen: %w: wrote %d of %d bytes to %s", record.ErrShortWrite, written, length, handle.Name)
		}
	}

	g.Log.Info("generated run",
		zap.String("name", handle.Name),
		zap.Int64("bytes", length),
		zap.Int64("origin_offset", offset),
	)
	return &runfile.File{Handle: handle, Size: length, OriginOffset: offset}, nil
}
