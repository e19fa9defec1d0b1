package errors

import (
	"sync"
	"time"
)

// Failure is one recorded block failure with its observation time.
type Failure struct {
	Err       *BlockError
	Timestamp time.Time
}

// RenderFailureLog keeps a bounded window of recent block failures for
// the editor's diagnostics panel. Oldest entries fall off when the
// window is full.
type RenderFailureLog struct {
	mu       sync.RWMutex
	failures []Failure
	limit    int
}

// NewRenderFailureLog creates a log retaining at most limit entries.
func NewRenderFailureLog(limit int) *RenderFailureLog {
	if limit <= 0 {
		limit = 50
	}
	return &RenderFailureLog{limit: limit}
}

// Record appends a failure, evicting the oldest entry when full.
// Non-BlockError values are ignored; callers wrap first.
func (l *RenderFailureLog) Record(err *BlockError) {
	if err == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures = append(l.failures, Failure{Err: err, Timestamp: time.Now()})
	if len(l.failures) > l.limit {
		l.failures = l.failures[len(l.failures)-l.limit:]
	}
}

// Recent returns a copy of the recorded failures, newest last.
func (l *RenderFailureLog) Recent() []Failure {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Failure, len(l.failures))
	copy(out, l.failures)
	return out
}

// ByBlock returns recorded failures for one block type.
func (l *RenderFailureLog) ByBlock(block string) []Failure {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Failure
	for _, f := range l.failures {
		if f.Err.Block == block {
			out = append(out, f)
		}
	}
	return out
}

// HasFailures reports whether anything has been recorded.
func (l *RenderFailureLog) HasFailures() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.failures) > 0
}

// Clear drops all recorded failures.
func (l *RenderFailureLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures = nil
}
