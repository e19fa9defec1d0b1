package preload

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KCuppens/bedrock-cms-sub001/internal/blocks"
	"github.com/KCuppens/bedrock-cms-sub001/internal/registry"
	"github.com/KCuppens/bedrock-cms-sub001/internal/types"
)

type stubImplementation struct{}

func (stubImplementation) Component(props types.ComponentProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<div></div>")
		return err
	})
}

func newPreloadCatalog(counters map[string]*atomic.Int32) *blocks.Catalog {
	c := blocks.NewCatalog()
	add := func(name, category string, preload bool) {
		counter := &atomic.Int32{}
		counters[name] = counter
		c.Register(blocks.Definition{
			Config: types.BlockConfig{Type: name, Category: category, Preload: preload},
			Loader: func(ctx context.Context) (types.Implementation, error) {
				counter.Add(1)
				return stubImplementation{}, nil
			},
		})
	}
	add("hero", "layout", true)
	add("rich_text", "content", true)
	add("quote", "content", false)
	add("blog_list", "listing", true)
	return c
}

func TestCandidatesFor_TypeAndCategoryHints(t *testing.T) {
	counters := map[string]*atomic.Int32{}
	reg := registry.New(newPreloadCatalog(counters))
	defer reg.Close()
	p := New(reg)

	// A type-name hint selects just that type.
	assert.Equal(t, []string{"hero"}, p.CandidatesFor([]string{"hero"}))

	// A category hint selects every preloadable type in the category;
	// quote opts out via Preload=false.
	assert.Equal(t, []string{"rich_text"}, p.CandidatesFor([]string{"content"}))

	// Mixed hints merge and dedup.
	assert.Equal(t, []string{"blog_list", "hero", "rich_text"},
		p.CandidatesFor([]string{"hero", "content", "listing", "hero"}))
}

func TestCandidatesFor_NoHints_AllPreloadable(t *testing.T) {
	counters := map[string]*atomic.Int32{}
	reg := registry.New(newPreloadCatalog(counters))
	defer reg.Close()
	p := New(reg)

	assert.Equal(t, []string{"blog_list", "hero", "rich_text"}, p.CandidatesFor(nil))
}

func TestCandidatesFor_SkipsResolved(t *testing.T) {
	counters := map[string]*atomic.Int32{}
	reg := registry.New(newPreloadCatalog(counters))
	defer reg.Close()

	_, err := reg.GetComponent(context.Background(), "hero")
	require.NoError(t, err)

	p := New(reg)
	assert.NotContains(t, p.CandidatesFor(nil), "hero")
}

func TestSchedule_RunsAfterDelay(t *testing.T) {
	counters := map[string]*atomic.Int32{}
	reg := registry.New(newPreloadCatalog(counters))
	defer reg.Close()

	p := New(reg, WithDelay(10*time.Millisecond))
	defer p.Stop()

	p.Schedule(context.Background(), []string{"hero"})

	require.Eventually(t, func() bool {
		return counters["hero"].Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSchedule_LaterScheduleSupersedes(t *testing.T) {
	counters := map[string]*atomic.Int32{}
	reg := registry.New(newPreloadCatalog(counters))
	defer reg.Close()

	p := New(reg, WithDelay(40*time.Millisecond))
	defer p.Stop()

	p.Schedule(context.Background(), []string{"hero"})
	p.Schedule(context.Background(), []string{"blog_list"})

	require.Eventually(t, func() bool {
		return counters["blog_list"].Load() == 1
	}, time.Second, 5*time.Millisecond)

	// The superseded batch never ran.
	assert.Equal(t, int32(0), counters["hero"].Load())
}

func TestSchedule_StopCancelsPending(t *testing.T) {
	counters := map[string]*atomic.Int32{}
	reg := registry.New(newPreloadCatalog(counters))
	defer reg.Close()

	p := New(reg, WithDelay(30*time.Millisecond))
	p.Schedule(context.Background(), []string{"hero"})
	p.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), counters["hero"].Load())

	// Scheduling after Stop is a no-op.
	p.Schedule(context.Background(), []string{"hero"})
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), counters["hero"].Load())
}

func TestSchedule_ContextCancelAbandonsBatch(t *testing.T) {
	counters := map[string]*atomic.Int32{}
	reg := registry.New(newPreloadCatalog(counters))
	defer reg.Close()

	p := New(reg, WithDelay(30*time.Millisecond))
	defer p.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	p.Schedule(ctx, []string{"hero"})
	cancel()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), counters["hero"].Load())
}
