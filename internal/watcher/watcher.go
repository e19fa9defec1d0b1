// Package watcher notices content file changes and delivers them in
// debounced batches. Editors and sync tools write in bursts; handlers
// see one batch per burst instead of one callback per write.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/KCuppens/bedrock-cms-sub001/internal/logging"
)

// EventType classifies a content change.
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

func (t EventType) String() string {
	switch t {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ChangeEvent is one debounced content change.
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
}

// FileFilter decides whether a path is interesting.
type FileFilter func(path string) bool

// ChangeHandler receives a debounced batch of changes.
type ChangeHandler func(events []ChangeEvent) error

// ContentWatcher watches directories for content changes with
// debouncing.
type ContentWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	logger    logging.Logger
	filters   []FileFilter
	handlers  []ChangeHandler
	mutex     sync.RWMutex
}

// debouncer groups rapid changes together.
type debouncer struct {
	delay   time.Duration
	events  chan ChangeEvent
	output  chan []ChangeEvent
	timer   *time.Timer
	pending []ChangeEvent
	mutex   sync.Mutex
}

// New creates a content watcher with the given debounce delay.
func New(debounceDelay time.Duration, logger logging.Logger) (*ContentWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	if logger == nil {
		logger = logging.NewNop()
	}

	return &ContentWatcher{
		watcher: fsw,
		debouncer: &debouncer{
			delay:   debounceDelay,
			events:  make(chan ChangeEvent, 100),
			output:  make(chan []ChangeEvent, 10),
			pending: make([]ChangeEvent, 0),
		},
		logger: logger.WithComponent("watcher"),
	}, nil
}

// AddFilter adds a path filter. All filters must pass for an event to
// be delivered.
func (cw *ContentWatcher) AddFilter(filter FileFilter) {
	cw.mutex.Lock()
	defer cw.mutex.Unlock()
	cw.filters = append(cw.filters, filter)
}

// AddHandler adds a batch handler.
func (cw *ContentWatcher) AddHandler(handler ChangeHandler) {
	cw.mutex.Lock()
	defer cw.mutex.Unlock()
	cw.handlers = append(cw.handlers, handler)
}

// AddPath watches a single directory or file.
func (cw *ContentWatcher) AddPath(path string) error {
	return cw.watcher.Add(filepath.Clean(path))
}

// Start launches the watch loops. They exit when ctx ends.
func (cw *ContentWatcher) Start(ctx context.Context) {
	go cw.debouncer.start(ctx)
	go cw.processEvents(ctx)
	go cw.watchLoop(ctx)
}

// Stop closes the underlying watcher and halts the debounce timer.
func (cw *ContentWatcher) Stop() error {
	cw.debouncer.mutex.Lock()
	if cw.debouncer.timer != nil {
		cw.debouncer.timer.Stop()
	}
	cw.debouncer.mutex.Unlock()

	return cw.watcher.Close()
}

func (cw *ContentWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			cw.handleFsnotifyEvent(event)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Warn(ctx, err, "watcher error")
		}
	}
}

func (cw *ContentWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	cw.mutex.RLock()
	filters := cw.filters
	cw.mutex.RUnlock()

	for _, filter := range filters {
		if !filter(event.Name) {
			return
		}
	}

	var modTime time.Time
	if info, err := os.Stat(event.Name); err == nil {
		modTime = info.ModTime()
	}

	var eventType EventType
	switch {
	case event.Op.Has(fsnotify.Create):
		eventType = EventTypeCreated
	case event.Op.Has(fsnotify.Write):
		eventType = EventTypeModified
	case event.Op.Has(fsnotify.Remove):
		eventType = EventTypeDeleted
	case event.Op.Has(fsnotify.Rename):
		eventType = EventTypeRenamed
	default:
		eventType = EventTypeModified
	}

	select {
	case cw.debouncer.events <- ChangeEvent{Type: eventType, Path: event.Name, ModTime: modTime}:
	default:
		// Channel full, skip this event
	}
}

func (cw *ContentWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case events := <-cw.debouncer.output:
			cw.mutex.RLock()
			handlers := cw.handlers
			cw.mutex.RUnlock()

			for _, handler := range handlers {
				if err := handler(events); err != nil {
					cw.logger.Warn(ctx, err, "change handler error")
				}
			}
		}
	}
}

func (d *debouncer) start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.events:
			d.addEvent(event)
		}
	}
}

func (d *debouncer) addEvent(event ChangeEvent) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pending = append(d.pending, event)

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.flush()
	})
}

func (d *debouncer) flush() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if len(d.pending) == 0 {
		return
	}

	// Deduplicate events by path, keeping the latest
	eventMap := make(map[string]ChangeEvent)
	for _, event := range d.pending {
		eventMap[event.Path] = event
	}

	events := make([]ChangeEvent, 0, len(eventMap))
	for _, event := range eventMap {
		events = append(events, event)
	}

	select {
	case d.output <- events:
	default:
		// Channel full, skip
	}

	d.pending = d.pending[:0]
}

// JSONFilter keeps only JSON content documents.
func JSONFilter(path string) bool {
	return filepath.Ext(path) == ".json"
}

// NoHiddenFilter drops dotfiles and editor temp files.
func NoHiddenFilter(path string) bool {
	base := filepath.Base(path)
	return !strings.HasPrefix(base, ".") && !strings.HasSuffix(base, "~")
}
