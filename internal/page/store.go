// Package page persists page documents as JSON files, one per slug,
// and keeps an in-memory view refreshed by a content watcher. All
// reads return copies; mutation goes through explicit operations that
// write atomically.
package page

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KCuppens/bedrock-cms-sub001/internal/logging"
	"github.com/KCuppens/bedrock-cms-sub001/internal/types"
	"github.com/KCuppens/bedrock-cms-sub001/internal/validation"
	"github.com/KCuppens/bedrock-cms-sub001/internal/watcher"
)

// Sentinel errors callers can test with errors.Is.
var (
	ErrPageNotFound    = errors.New("page not found")
	ErrPageExists      = errors.New("page already exists")
	ErrBlockOutOfRange = errors.New("block index out of range")
)

// EventType classifies a page change notification.
type EventType int

const (
	EventSaved EventType = iota
	EventReloaded
	EventRemoved
)

// Event tells subscribers a page changed.
type Event struct {
	Type EventType
	Slug string
}

// Store owns the pages under one content directory.
type Store struct {
	dir    string
	logger logging.Logger

	mu          sync.RWMutex
	pages       map[string]types.Page
	subscribers []chan Event
}

// NewStore opens (creating if needed) a content directory and loads
// every page document in it. Corrupt documents are skipped with a
// warning; they do not fail startup.
func NewStore(dir string, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Store{
		dir:    dir,
		logger: logger.WithComponent("pages"),
		pages:  make(map[string]types.Page),
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating content directory %s: %w", dir, err)
	}
	if err := s.loadAll(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) loadAll() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("reading content directory %s: %w", s.dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		s.loadFile(filepath.Join(s.dir, entry.Name()))
	}
	return nil
}

// loadFile reads one document into the store. Returns the slug, or ""
// when the file was unreadable.
func (s *Store) loadFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn(context.Background(), err, "skipping unreadable page", "path", path)
		return ""
	}

	var p types.Page
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Warn(context.Background(), err, "skipping corrupt page", "path", path)
		return ""
	}

	if p.Slug == "" {
		p.Slug = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	normalizePositions(p.Blocks)

	s.mu.Lock()
	s.pages[p.Slug] = p
	s.mu.Unlock()
	return p.Slug
}

// Get returns a copy of the page for a slug.
func (s *Store) Get(slug string) (types.Page, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pages[slug]
	if !ok {
		return types.Page{}, false
	}
	return clonePage(p), true
}

// List returns copies of all pages, sorted by slug.
func (s *Store) List() []types.Page {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pages := make([]types.Page, 0, len(s.pages))
	for _, p := range s.pages {
		pages = append(pages, clonePage(p))
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Slug < pages[j].Slug })
	return pages
}

// Slugs returns all page slugs, sorted.
func (s *Store) Slugs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slugs := make([]string, 0, len(s.pages))
	for slug := range s.pages {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// Create makes an empty page for a slug and persists it.
func (s *Store) Create(slug, title string) (types.Page, error) {
	if err := validation.ValidateSlug(slug); err != nil {
		return types.Page{}, err
	}

	s.mu.RLock()
	_, exists := s.pages[slug]
	s.mu.RUnlock()
	if exists {
		return types.Page{}, fmt.Errorf("page %q: %w", slug, ErrPageExists)
	}

	p := types.Page{
		ID:     uuid.New().String(),
		Slug:   slug,
		Title:  title,
		Blocks: []types.BlockDescriptor{},
	}
	if err := s.Save(p); err != nil {
		return types.Page{}, err
	}
	return p, nil
}

// Save persists a page atomically: the document is written to a temp
// file in the same directory and renamed over the target, so readers
// never observe a half-written file.
func (s *Store) Save(p types.Page) error {
	if err := validation.ValidateSlug(p.Slug); err != nil {
		return err
	}
	normalizePositions(p.Blocks)
	p.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding page %q: %w", p.Slug, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+p.Slug+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %q: %w", p.Slug, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing page %q: %w", p.Slug, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file for %q: %w", p.Slug, err)
	}
	if err := os.Rename(tmpName, s.path(p.Slug)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing page %q: %w", p.Slug, err)
	}

	s.mu.Lock()
	s.pages[p.Slug] = clonePage(p)
	s.mu.Unlock()

	s.notify(Event{Type: EventSaved, Slug: p.Slug})
	return nil
}

// Delete removes a page and its document.
func (s *Store) Delete(slug string) error {
	s.mu.Lock()
	_, ok := s.pages[slug]
	delete(s.pages, slug)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("page %q: %w", slug, ErrPageNotFound)
	}

	if err := os.Remove(s.path(slug)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing page %q: %w", slug, err)
	}
	s.notify(Event{Type: EventRemoved, Slug: slug})
	return nil
}

// ReplaceBlocks swaps a page's entire block list and persists.
func (s *Store) ReplaceBlocks(slug string, blocks []types.BlockDescriptor) (types.Page, error) {
	p, ok := s.Get(slug)
	if !ok {
		return types.Page{}, fmt.Errorf("page %q: %w", slug, ErrPageNotFound)
	}
	p.Blocks = blocks
	if err := s.Save(p); err != nil {
		return types.Page{}, err
	}
	return s.mustGet(slug), nil
}

// UpdateBlock merges content into one block's props and persists the
// page. The block keeps its type, component, ID and position; only
// props change. The untouched siblings and the stored page are never
// mutated in place.
func (s *Store) UpdateBlock(slug string, index int, content map[string]any) (types.Page, error) {
	p, ok := s.Get(slug)
	if !ok {
		return types.Page{}, fmt.Errorf("page %q: %w", slug, ErrPageNotFound)
	}
	if index < 0 || index >= len(p.Blocks) {
		return types.Page{}, fmt.Errorf("block %d in page %q: %w", index, slug, ErrBlockOutOfRange)
	}

	merged := make(map[string]any, len(p.Blocks[index].Props)+len(content))
	maps.Copy(merged, p.Blocks[index].Props)
	maps.Copy(merged, content)
	p.Blocks[index].Props = merged

	if err := s.Save(p); err != nil {
		return types.Page{}, err
	}
	return s.mustGet(slug), nil
}

// InsertBlock adds a block at index (clamped to the list bounds),
// assigning an ID when the descriptor has none.
func (s *Store) InsertBlock(slug string, index int, desc types.BlockDescriptor) (types.Page, error) {
	p, ok := s.Get(slug)
	if !ok {
		return types.Page{}, fmt.Errorf("page %q: %w", slug, ErrPageNotFound)
	}
	if desc.ID == "" {
		desc.ID = uuid.New().String()
	}
	if index < 0 {
		index = 0
	}
	if index > len(p.Blocks) {
		index = len(p.Blocks)
	}

	blocks := make([]types.BlockDescriptor, 0, len(p.Blocks)+1)
	blocks = append(blocks, p.Blocks[:index]...)
	blocks = append(blocks, desc)
	blocks = append(blocks, p.Blocks[index:]...)
	p.Blocks = blocks

	if err := s.Save(p); err != nil {
		return types.Page{}, err
	}
	return s.mustGet(slug), nil
}

// RemoveBlock deletes the block at index.
func (s *Store) RemoveBlock(slug string, index int) (types.Page, error) {
	p, ok := s.Get(slug)
	if !ok {
		return types.Page{}, fmt.Errorf("page %q: %w", slug, ErrPageNotFound)
	}
	if index < 0 || index >= len(p.Blocks) {
		return types.Page{}, fmt.Errorf("block %d in page %q: %w", index, slug, ErrBlockOutOfRange)
	}
	p.Blocks = append(p.Blocks[:index], p.Blocks[index+1:]...)

	if err := s.Save(p); err != nil {
		return types.Page{}, err
	}
	return s.mustGet(slug), nil
}

func (s *Store) mustGet(slug string) types.Page {
	p, _ := s.Get(slug)
	return p
}

func (s *Store) path(slug string) string {
	return filepath.Join(s.dir, slug+".json")
}

// Subscribe returns a channel of page change events. Slow subscribers
// miss events rather than blocking writers.
func (s *Store) Subscribe() <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, 32)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (s *Store) Unsubscribe(ch <-chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subscribers {
		if sub == ch {
			close(sub)
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			break
		}
	}
}

func (s *Store) notify(event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subscribers {
		select {
		case sub <- event:
		default:
		}
	}
}

// WatchContent wires a content watcher so external edits to the JSON
// documents show up without a restart. Runs until ctx ends.
func (s *Store) WatchContent(ctx context.Context, debounce time.Duration) (*watcher.ContentWatcher, error) {
	cw, err := watcher.New(debounce, s.logger)
	if err != nil {
		return nil, err
	}
	cw.AddFilter(watcher.JSONFilter)
	cw.AddFilter(watcher.NoHiddenFilter)
	cw.AddHandler(s.handleContentChanges)

	if err := cw.AddPath(s.dir); err != nil {
		_ = cw.Stop()
		return nil, fmt.Errorf("watching %s: %w", s.dir, err)
	}
	cw.Start(ctx)
	return cw, nil
}

func (s *Store) handleContentChanges(events []watcher.ChangeEvent) error {
	for _, event := range events {
		switch event.Type {
		case watcher.EventTypeDeleted, watcher.EventTypeRenamed:
			slug := strings.TrimSuffix(filepath.Base(event.Path), ".json")
			s.mu.Lock()
			_, existed := s.pages[slug]
			delete(s.pages, slug)
			s.mu.Unlock()
			if existed {
				s.notify(Event{Type: EventRemoved, Slug: slug})
			}
		default:
			if slug := s.loadFile(event.Path); slug != "" {
				s.notify(Event{Type: EventReloaded, Slug: slug})
			}
		}
	}
	return nil
}

// normalizePositions rewrites Position to match list order.
func normalizePositions(blocks []types.BlockDescriptor) {
	for i := range blocks {
		blocks[i].Position = i
	}
}

func clonePage(p types.Page) types.Page {
	clone := p
	clone.Blocks = p.CloneBlocks()
	return clone
}
