package health

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RunTracker remembers the outcome of the most recent job run.
type RunTracker struct {
	mu  sync.RWMutex
	at  time.Time
	err error
	ran bool
}

// NewRunTracker creates a tracker with no runs recorded.
func NewRunTracker() *RunTracker {
	return &RunTracker{}
}

// Record stores the outcome of a run finished now.
func (t *RunTracker) Record(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.at = time.Now()
	t.err = err
	t.ran = true
}

// Last returns the time and error of the most recent run. ok is false
// before the first run.
func (t *RunTracker) Last() (at time.Time, err error, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.at, t.err, t.ran
}

// Check fails while the most recent run failed, or before any run finished.
func (t *RunTracker) Check(context.Context) error {
	at, err, ok := t.Last()
	if !ok {
		return fmt.Errorf("no job run yet")
	}
	if err != nil {
		return fmt.Errorf("last run at %s failed: %w", at.Format(time.RFC3339), err)
	}
	return nil
}
