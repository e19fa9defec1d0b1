package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KCuppens/bedrock-cms-sub001/internal/logging"
)

func TestContentWatcher_DeliversDebouncedBatch(t *testing.T) {
	dir := t.TempDir()

	cw, err := New(20*time.Millisecond, logging.NewNop())
	require.NoError(t, err)
	defer func() { _ = cw.Stop() }()

	cw.AddFilter(JSONFilter)

	var mu sync.Mutex
	var batches [][]ChangeEvent
	cw.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		batches = append(batches, events)
		return nil
	})

	require.NoError(t, cw.AddPath(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cw.Start(ctx)

	// Rapid writes to the same file should collapse into one batch.
	target := filepath.Join(dir, "home.json")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(target, []byte(`{"n":1}`), 0o644))
		time.Sleep(2 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, batches)
	// Deduplicated by path within the batch.
	assert.Len(t, batches[0], 1)
	assert.Equal(t, target, batches[0][0].Path)
}

func TestContentWatcher_FiltersNonMatching(t *testing.T) {
	dir := t.TempDir()

	cw, err := New(10*time.Millisecond, logging.NewNop())
	require.NoError(t, err)
	defer func() { _ = cw.Stop() }()

	cw.AddFilter(JSONFilter)

	var mu sync.Mutex
	deliveries := 0
	cw.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		deliveries++
		return nil
	})

	require.NoError(t, cw.AddPath(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cw.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, deliveries)
}

func TestFilters(t *testing.T) {
	assert.True(t, JSONFilter("content/home.json"))
	assert.False(t, JSONFilter("content/home.yaml"))

	assert.True(t, NoHiddenFilter("content/home.json"))
	assert.False(t, NoHiddenFilter("content/.home.json.swp"))
	assert.False(t, NoHiddenFilter("content/home.json~"))
}
