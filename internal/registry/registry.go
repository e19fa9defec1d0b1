// Package registry resolves block type names to loaded implementations.
// Loads run at most once per type: concurrent requests for an
// unresolved type share a single loader invocation, successful results
// are cached permanently, and failures are forgotten so the next
// request retries.
package registry

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/KCuppens/bedrock-cms-sub001/internal/blocks"
	blockerrors "github.com/KCuppens/bedrock-cms-sub001/internal/errors"
	"github.com/KCuppens/bedrock-cms-sub001/internal/logging"
	"github.com/KCuppens/bedrock-cms-sub001/internal/types"
)

const defaultPreloadLimit = 4

// BlockRegistry owns the load lifecycle for every block type in a
// catalog. It is safe for concurrent use.
type BlockRegistry struct {
	catalog *blocks.Catalog
	logger  logging.Logger

	loadTimeout time.Duration

	// loadCtx outlives any single caller: a caller abandoning its wait
	// must not cancel a load other callers may join later.
	loadCtx    context.Context
	loadCancel context.CancelFunc

	flight singleflight.Group

	mu       sync.RWMutex
	resolved map[string]types.Implementation
	watchers []chan ResolutionEvent

	failures atomic.Int64
}

// Option configures a BlockRegistry.
type Option func(*BlockRegistry)

// WithLogger sets the logger used for load diagnostics.
func WithLogger(logger logging.Logger) Option {
	return func(r *BlockRegistry) { r.logger = logger }
}

// WithLoadTimeout bounds each loader invocation. Loads run unbounded
// by default: a hung loader leaves its type pending rather than
// failing it, and callers limit their own waits with ctx.
func WithLoadTimeout(d time.Duration) Option {
	return func(r *BlockRegistry) { r.loadTimeout = d }
}

// New builds a registry over a catalog. Close releases the background
// load context.
func New(catalog *blocks.Catalog, opts ...Option) *BlockRegistry {
	ctx, cancel := context.WithCancel(context.Background())
	r := &BlockRegistry{
		catalog:    catalog,
		logger:     logging.NewNop(),
		loadCtx:    ctx,
		loadCancel: cancel,
		resolved:   make(map[string]types.Implementation),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent("registry")
	return r
}

// Close cancels in-flight loads and closes watcher channels. The
// registry must not be used afterwards.
func (r *BlockRegistry) Close() {
	r.loadCancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.watchers {
		close(w)
	}
	r.watchers = nil
}

// Config returns the configuration for a block type.
func (r *BlockRegistry) Config(name string) (types.BlockConfig, bool) {
	def, ok := r.catalog.Get(name)
	if !ok {
		return types.BlockConfig{}, false
	}
	return def.Config, true
}

// KnownTypes returns all registered type names, sorted.
func (r *BlockRegistry) KnownTypes() []string {
	return r.catalog.Types()
}

// Peek returns the implementation for a type only if it has already
// resolved. It never triggers a load.
func (r *BlockRegistry) Peek(name string) (types.Implementation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	impl, ok := r.resolved[name]
	return impl, ok
}

// GetComponent resolves a block type to its implementation, loading it
// if necessary. Unknown types return (nil, nil); the caller decides
// how to degrade. Concurrent calls for the same unresolved type share
// one loader invocation. A load failure is returned to every waiter
// and not cached, so a later call retries.
//
// ctx bounds only this caller's wait. The load itself runs on the
// registry's background context and keeps going if the caller gives
// up, so the shared result still lands in the cache.
func (r *BlockRegistry) GetComponent(ctx context.Context, name string) (types.Implementation, error) {
	def, known := r.catalog.Get(name)
	if !known {
		return nil, nil
	}

	if impl, ok := r.Peek(name); ok {
		return impl, nil
	}

	ch := r.flight.DoChan(name, func() (interface{}, error) {
		// A previous flight may have resolved between the fast-path
		// miss and joining this one.
		if impl, ok := r.Peek(name); ok {
			return impl, nil
		}
		return r.load(name, def.Loader)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(types.Implementation), nil
	}
}

// Load starts resolution of a type without waiting for the result.
// Outcomes surface through Watch events. Unknown types are ignored.
func (r *BlockRegistry) Load(name string) {
	if _, known := r.catalog.Get(name); !known {
		return
	}
	if _, ok := r.Peek(name); ok {
		return
	}
	go func() {
		//nolint:errcheck // outcome is delivered via resolution events
		r.GetComponent(r.loadCtx, name)
	}()
}

// load invokes the loader exactly once, converts panics to errors, and
// caches the implementation on success. Runs inside a singleflight
// flight, so only one goroutine executes it per type at a time.
func (r *BlockRegistry) load(name string, loader types.LoaderFunc) (impl types.Implementation, err error) {
	ctx := r.loadCtx
	if r.loadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.loadTimeout)
		defer cancel()
	}

	started := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			impl = nil
			err = blockerrors.NewLoadPanicError(name, rec)
		}
		if err != nil {
			r.failures.Add(1)
			r.logger.Warn(ctx, err, "block load failed", "block", name, "duration", time.Since(started))
			r.notify(ResolutionEvent{Type: EventFailed, Block: name, Err: err, Timestamp: time.Now()})
			return
		}
		r.mu.Lock()
		r.resolved[name] = impl
		r.mu.Unlock()
		r.logger.Debug(ctx, "block resolved", "block", name, "duration", time.Since(started))
		r.notify(ResolutionEvent{Type: EventResolved, Block: name, Timestamp: time.Now()})
	}()

	impl, err = loader(ctx)
	if err != nil {
		return nil, blockerrors.NewLoadError(name, err)
	}
	if impl == nil {
		return nil, blockerrors.NewLoadError(name, errNilImplementation)
	}
	return impl, nil
}

// Preload warms the cache for the given types. Individual load
// failures are logged and swallowed; they stay retryable. Returns
// early only when ctx is cancelled.
func (r *BlockRegistry) Preload(ctx context.Context, names []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultPreloadLimit)

	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := r.GetComponent(ctx, name); err != nil {
				r.logger.Debug(ctx, "preload skipped after failure", "block", name, "error", err.Error())
			}
			return nil
		})
	}
	return g.Wait()
}

// Stats is a point-in-time snapshot of registry state.
type Stats struct {
	Known    int `json:"known"`
	Resolved int `json:"resolved"`
	Failures int `json:"failures"`
}

// Stats reports catalog size, resolved count, and cumulative load
// failures.
func (r *BlockRegistry) Stats() Stats {
	r.mu.RLock()
	resolved := len(r.resolved)
	r.mu.RUnlock()
	return Stats{
		Known:    r.catalog.Len(),
		Resolved: resolved,
		Failures: int(r.failures.Load()),
	}
}

// ResolvedTypes returns the names of all types with cached
// implementations, sorted.
func (r *BlockRegistry) ResolvedTypes() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.resolved))
	for name := range r.resolved {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
