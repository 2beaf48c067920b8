package infra

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/b0ase/cashboard/logging"
)

const defaultSettle = 250 * time.Millisecond

// Watcher turns files dropped into a directory into import jobs.
type Watcher struct {
	dir      string
	patterns []string
	q        Queue
	log      *zap.Logger
	settle   time.Duration

	mu      sync.Mutex
	seq     uint64
	pending map[string]pendingJob
}

type pendingJob struct {
	seq   uint64
	timer *time.Timer
}

type WatcherOption func(*Watcher)

// WithSettle sets how long a file must stay quiet before it is queued.
// Repeated writes inside the window collapse into one job.
func WithSettle(d time.Duration) WatcherOption { return func(w *Watcher) { w.settle = d } }

func WithWatchLogger(l *zap.Logger) WatcherOption { return func(w *Watcher) { w.log = l } }

// NewWatcher watches dir for files whose slash path relative to dir matches
// one of patterns. No patterns means every file.
func NewWatcher(dir string, patterns []string, q Queue, opts ...WatcherOption) (*Watcher, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("watch pattern %q: %w", p, doublestar.ErrBadPattern)
		}
	}
	w := &Watcher{
		dir:      dir,
		patterns: patterns,
		q:        q,
		settle:   defaultSettle,
		pending:  make(map[string]pendingJob),
	}
	for _, o := range opts {
		o(w)
	}
	w.log = logging.OrNop(w.log)
	return w, nil
}

// Match reports whether path, absolute or relative to the watched
// directory, is selected by the patterns.
func (w *Watcher) Match(path string) bool {
	rel := path
	if filepath.IsAbs(path) {
		r, err := filepath.Rel(w.dir, path)
		if err != nil {
			return false
		}
		rel = r
	}
	rel = filepath.ToSlash(rel)
	if len(w.patterns) == 0 {
		return true
	}
	for _, p := range w.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Scan queues the matching files already in the directory and returns how
// many were queued.
func (w *Watcher) Scan(ctx context.Context) (int, error) {
	fsys := os.DirFS(w.dir)
	seen := map[string]bool{}
	n := 0
	patterns := w.patterns
	if len(patterns) == 0 {
		patterns = []string{"**"}
	}
	for _, p := range patterns {
		matches, err := doublestar.Glob(fsys, p, doublestar.WithFilesOnly())
		if err != nil {
			return n, fmt.Errorf("scan %s: %w", w.dir, err)
		}
		for _, m := range matches {
			if err := ctx.Err(); err != nil {
				return n, err
			}
			if seen[m] {
				continue
			}
			seen[m] = true
			w.push(filepath.Join(w.dir, filepath.FromSlash(m)))
			n++
		}
	}
	return n, nil
}

// Run watches until ctx is done. Subdirectories created while running are
// added to the watch.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	defer w.stopPending()

	if err := w.addTree(fw, w.dir); err != nil {
		return err
	}
	w.log.Info("watching for imports", zap.String("dir", w.dir), zap.Strings("patterns", w.patterns))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if ev.Has(fsnotify.Create) {
			if err := w.addTree(fw, ev.Name); err != nil {
				w.log.Warn("watch subdirectory", zap.String("dir", ev.Name), zap.Error(err))
			}
		}
		return
	}
	if w.Match(ev.Name) {
		w.enqueue(ev.Name)
	}
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p != root {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

// enqueue (re)starts the settle timer for path. The job is pushed once no
// event for path arrives for a full window.
func (w *Watcher) enqueue(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
	}
	w.seq++
	seq := w.seq
	w.pending[path] = pendingJob{seq: seq, timer: time.AfterFunc(w.settle, func() { w.fire(path, seq) })}
}

func (w *Watcher) fire(path string, seq uint64) {
	w.mu.Lock()
	p, ok := w.pending[path]
	if !ok || p.seq != seq {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	w.mu.Unlock()
	w.push(path)
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) push(path string) {
	j := NewJob(path)
	w.q.Push(j)
	w.log.Debug("import queued", zap.String("job", j.ID), zap.String("path", path))
}
