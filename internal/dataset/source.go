package dataset

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Source owns the current working table and can rebuild it when the CSV
// inputs change on disk. Readers always get a complete table: rebuilds
// happen off to the side and swap in atomically.
type Source struct {
	dir    string
	files  Files
	logger *zap.Logger

	table atomic.Pointer[Table]

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewSource loads the table once and returns a Source holding it.
func NewSource(dir string, files Files, logger *zap.Logger) (*Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t, err := Load(dir, files, logger)
	if err != nil {
		return nil, err
	}
	s := &Source{dir: dir, files: files, logger: logger}
	s.table.Store(t)
	return s, nil
}

// NewStaticSource wraps an already-built table; used by tests and the TUI.
func NewStaticSource(t *Table) *Source {
	s := &Source{logger: zap.NewNop()}
	s.table.Store(t)
	return s
}

// Table returns the current working table.
func (s *Source) Table() *Table { return s.table.Load() }

// Watch starts rebuilding the table when any input file changes. Rapid saves
// are debounced; a failed reload keeps the previous table in place.
func (s *Source) Watch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(s.dir); err != nil {
		w.Close()
		return err
	}
	s.watcher = w
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.running = true
	s.logger.Info("watching data directory", zap.String("dir", s.dir))
	go s.run(ctx)
	return nil
}

// Stop halts the watcher, if running.
func (s *Source) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh
	s.watcher.Close()
}

func (s *Source) run(ctx context.Context) {
	defer close(s.doneCh)

	var pending bool
	debounce := time.NewTicker(500 * time.Millisecond)
	defer debounce.Stop()

	interesting := make(map[string]bool)
	for _, name := range []string{
		s.files.Schools, s.files.ClimateAnnual, s.files.ClimateMonthly,
		s.files.Roster, s.files.RosterFull, s.files.TeamHistory, s.files.CoachMetrics,
	} {
		interesting[name] = true
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if interesting[filepath.Base(ev.Name)] {
				pending = true
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("data watcher error", zap.Error(err))
		case <-debounce.C:
			if !pending {
				continue
			}
			pending = false
			t, err := Load(s.dir, s.files, s.logger)
			if err != nil {
				s.logger.Error("data reload failed, keeping previous table", zap.Error(err))
				continue
			}
			s.table.Store(t)
			s.logger.Info("working table reloaded", zap.Int("schools", t.Len()))
		}
	}
}
