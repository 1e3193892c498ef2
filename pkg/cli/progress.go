package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressReporter reports the stages of a running job.
type ProgressReporter interface {
	Report(stage, total int, name string)
	Finish()
	Error(err error)
}

// StageProgress renders job stages as a single rewritten line.
type StageProgress struct {
	mu      sync.Mutex
	total   int
	current int
	name    string
	started time.Time
	writer  io.Writer
}

// NewProgressReporter creates a new progress reporter that writes to w.
// If w is nil, it defaults to os.Stderr.
func NewProgressReporter(w io.Writer) *StageProgress {
	if w == nil {
		w = os.Stderr
	}
	return &StageProgress{
		writer: w,
	}
}

// Report records that stage of total has begun. Its signature matches
// job.ProgressFunc.
func (p *StageProgress) Report(stage, total int, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started.IsZero() {
		p.started = time.Now()
	}
	p.total = total
	p.current = stage
	p.name = name
	p.render()
}

// Finish marks the job as complete.
func (p *StageProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.total == 0 {
		return
	}
	p.current = p.total
	p.name = "done"
	p.render()
	fmt.Fprintln(p.writer)
}

// Error reports a failed job.
func (p *StageProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.writer, "\n✗ Error: %v\n", err)
}

func (p *StageProgress) render() {
	if p.total == 0 {
		return
	}

	barWidth := 21
	filled := barWidth * p.current / p.total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	elapsed := time.Since(p.started).Round(time.Millisecond)

	// Pad so a shorter stage name overwrites a longer one.
	fmt.Fprintf(p.writer, "\r[%s] %d/%d %-26s %s", bar, p.current, p.total, p.name, elapsed)
}
