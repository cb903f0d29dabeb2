// Package tempfile creates, tracks, and destroys the temporary run files
// that phase A and the cascade controller use as scratch storage. Every
// file it creates lives next to the input file and follows the
// "<input-filename>.tmp_<n>" naming contract so that a crash leaves
// recognizable debris rather than anonymous files.
package tempfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Handle is a single temp run file: an open read/write *os.File plus the
// bookkeeping the Manager needs to close and, optionally, remove it.
type Handle struct {
	File *os.File
	Name string

	mgr *Manager
}

// Manager creates temp files near a given input path and guarantees
// their names are unique across one process lifetime. It also tracks
// every handle it has created so that CloseAll can be used as a final
// backstop against leaked descriptors even if individual call sites
// forget to close what they opened.
type Manager struct {
	dir    string
	prefix string
	log    *zap.Logger

	counter atomic.Uint64

	mu   sync.Mutex
	open map[*Handle]struct{}
}

// New returns a Manager that creates temp files in the directory
// containing inputPath, named "<base>.tmp_<n>".
func New(inputPath string, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		dir:    filepath.Dir(inputPath),
		prefix: filepath.Base(inputPath),
		log:    log,
		open:   make(map[*Handle]struct{}),
	}
}

// Create opens a new, empty temp file and registers it for tracking.
// Creation is destructive: if a stale file from a previous run happens
// to occupy the chosen name, its contents are discarded.
func (m *Manager) Create(ctx context.Context) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := m.counter.Add(1)
	name := filepath.Join(m.dir, fmt.Sprintf("%s.tmp_%d", m.prefix, n))
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("tempfile: create %s: %w", name, err)
	}
	h := &Handle{File: f, Name: name, mgr: m}
	m.mu.Lock()
	m.open[h] = struct{}{}
	m.mu.Unlock()
	return h, nil
}

// Close closes the handle's file descriptor without removing the file
// from disk.
func (h *Handle) Close() error {
	h.mgr.mu.Lock()
	delete(h.mgr.open, h)
	h.mgr.mu.Unlock()
	return h.File.Close()
}

// CloseAndRemove closes the handle and removes the file from disk. It is
// the normal path once a run has been fully consumed by a merge step.
func (h *Handle) CloseAndRemove() error {
	closeErr := h.Close()
	rmErr := os.Remove(h.Name)
	if rmErr != nil && os.IsNotExist(rmErr) {
		rmErr = nil
	}
	return multierr.Append(closeErr, rmErr)
}

// CloseAll closes every handle the Manager has created that has not
// already been closed, aggregating any errors. If remove is true it
// also attempts to remove each file; removal failures are logged but do
// not prevent the handles from being marked closed. Leaving a stray temp
// file on disk is acceptable, leaking an open descriptor is not.
func (m *Manager) CloseAll(remove bool) error {
	m.mu.Lock()
	handles := make([]*Handle, 0, len(m.open))
	for h := range m.open {
		handles = append(handles, h)
	}
	m.mu.Unlock()

	var err error
	for _, h := range handles {
		if cerr := h.Close(); cerr != nil {
			err = multierr.Append(err, cerr)
		}
		if remove {
			if rerr := os.Remove(h.Name); rerr != nil && !os.IsNotExist(rerr) {
				m.log.Warn("failed to remove temp file", zap.String("name", h.Name), zap.Error(rerr))
			}
		}
	}
	return err
}
