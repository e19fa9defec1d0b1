package registry

import (
	"errors"
	"time"
)

var errNilImplementation = errors.New("loader returned nil implementation without error")

// EventType classifies a resolution event.
type EventType int

const (
	// EventResolved fires when a loader succeeds and the
	// implementation enters the cache.
	EventResolved EventType = iota
	// EventFailed fires when a loader errors or panics. The type stays
	// unresolved and retryable.
	EventFailed
)

func (t EventType) String() string {
	switch t {
	case EventResolved:
		return "resolved"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ResolutionEvent describes the outcome of one loader invocation.
type ResolutionEvent struct {
	Type      EventType
	Block     string
	Err       error
	Timestamp time.Time
}

// Watch returns a channel receiving resolution events. The channel is
// buffered; a watcher that falls behind misses events rather than
// blocking loads.
func (r *BlockRegistry) Watch() <-chan ResolutionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan ResolutionEvent, 64)
	r.watchers = append(r.watchers, ch)
	return ch
}

// Unwatch removes a watcher channel and closes it.
func (r *BlockRegistry) Unwatch(ch <-chan ResolutionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

func (r *BlockRegistry) notify(event ResolutionEvent) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}
