package job

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 500 * time.Millisecond

// Watcher re-runs a job when any of its files change.
//
// Directories are watched rather than files so that editors replacing a file
// by rename keep triggering. Events for other files in those directories are
// ignored.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce *Debouncer
	logger   *slog.Logger

	trigger chan struct{}

	mu    sync.Mutex
	files map[string]bool
	dirs  map[string]bool

	started atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a watcher that waits debounce after the last change
// before running.
func NewWatcher(debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		watcher:  fw,
		debounce: NewDebouncer(debounce),
		logger:   logger.With("component", "job.watcher"),
		trigger:  make(chan struct{}, 1),
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// RunFunc runs a job once and returns the files to watch afterwards.
type RunFunc func(ctx context.Context) []string

// Watch calls run once, then again after every debounced change to the files
// it returned. Runs happen on the calling goroutine, one at a time. Watch
// blocks until ctx is done or Stop is called.
func (w *Watcher) Watch(ctx context.Context, run RunFunc) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watcher already started")
	}
	defer close(w.doneCh)

	if err := w.setFiles(run(ctx)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-w.stopCh:
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("file changed", "file", event.Name, "op", event.Op.String())
			w.debounce.Trigger(func() {
				select {
				case w.trigger <- struct{}{}:
				default:
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", "error", err)

		case <-w.trigger:
			w.logger.Info("change detected, re-running job")
			if err := w.setFiles(run(ctx)); err != nil {
				w.logger.Error("failed to update watched files", "error", err)
			}
		}
	}
}

// Files returns the absolute paths currently watched.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	files := make([]string, 0, len(w.files))
	for f := range w.files {
		files = append(files, f)
	}
	return files
}

// Stop ends Watch and releases the underlying watcher.
func (w *Watcher) Stop() error {
	select {
	case <-w.stopCh:
		return nil
	default:
		close(w.stopCh)
	}

	w.debounce.Stop()

	if w.started.Load() {
		select {
		case <-w.doneCh:
		case <-time.After(5 * time.Second):
			w.logger.Warn("timeout waiting for watcher to stop")
		}
	}

	return w.watcher.Close()
}

// setFiles replaces the watched set, adding and removing directory watches
// as needed.
func (w *Watcher) setFiles(paths []string) error {
	files := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for dir := range dirs {
		if w.dirs[dir] {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			// A hierarchy directory may not exist yet; the manifest's
			// directory always does once the first run has read it.
			w.logger.Warn("cannot watch directory", "dir", dir, "error", err)
			delete(dirs, dir)
			continue
		}
	}
	for dir := range w.dirs {
		if !dirs[dir] {
			_ = w.watcher.Remove(dir)
		}
	}

	w.files = files
	w.dirs = dirs
	return nil
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[abs]
}

// Debouncer delays a callback until triggers stop arriving.
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	mu       sync.Mutex
	stopped  bool
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{duration: duration}
}

// Trigger schedules callback, cancelling any callback still pending.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, func() {
		d.mu.Lock()
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			callback()
		}
	})
}

// Stop cancels any pending callback. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
