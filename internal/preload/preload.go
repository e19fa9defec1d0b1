// Package preload warms the block registry when the server has a
// quiet moment. Scheduling is advisory: work runs after a short delay
// so it never competes with an in-flight request burst, and a newer
// schedule supersedes an older one that has not fired yet.
package preload

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/KCuppens/bedrock-cms-sub001/internal/logging"
	"github.com/KCuppens/bedrock-cms-sub001/internal/registry"
)

// DefaultDelay is how long a scheduled preload waits before running.
const DefaultDelay = 150 * time.Millisecond

// Preloader batches registry warm-up behind a timer.
type Preloader struct {
	registry *registry.BlockRegistry
	logger   logging.Logger
	delay    time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// Option configures a Preloader.
type Option func(*Preloader)

// WithDelay overrides the scheduling delay.
func WithDelay(d time.Duration) Option {
	return func(p *Preloader) {
		if d > 0 {
			p.delay = d
		}
	}
}

// WithLogger sets the preload diagnostics logger.
func WithLogger(logger logging.Logger) Option {
	return func(p *Preloader) { p.logger = logger }
}

// New builds a preloader over a registry.
func New(reg *registry.BlockRegistry, opts ...Option) *Preloader {
	p := &Preloader{
		registry: reg,
		logger:   logging.NewNop(),
		delay:    DefaultDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.WithComponent("preload")
	return p
}

// Schedule arms a delayed preload for the types selected by hints.
// Candidates are computed immediately; the loads run after the delay.
// A second Schedule before the timer fires replaces the pending batch.
// Cancelling ctx before the timer fires abandons the batch.
func (p *Preloader) Schedule(ctx context.Context, hints []string) {
	candidates := p.CandidatesFor(hints)
	if len(candidates) == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.delay, func() {
		if ctx.Err() != nil {
			return
		}
		p.logger.Debug(ctx, "preloading block implementations", "types", candidates)
		if err := p.registry.Preload(ctx, candidates); err != nil {
			p.logger.Debug(ctx, "preload abandoned", "error", err.Error())
		}
	})
}

// Stop cancels any pending batch and retires the preloader. Loads
// already started by the registry run to completion.
func (p *Preloader) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// CandidatesFor selects the preloadable types for a set of hints. A
// hint matches a type by name or by config category. With no hints,
// every type opts in. Only types whose config enables preload survive,
// and the result is sorted and duplicate-free.
func (p *Preloader) CandidatesFor(hints []string) []string {
	selected := make(map[string]struct{})

	if len(hints) == 0 {
		for _, name := range p.registry.KnownTypes() {
			selected[name] = struct{}{}
		}
	} else {
		for _, hint := range hints {
			if _, ok := p.registry.Config(hint); ok {
				selected[hint] = struct{}{}
				continue
			}
			for _, name := range p.registry.KnownTypes() {
				if cfg, ok := p.registry.Config(name); ok && cfg.Category == hint {
					selected[name] = struct{}{}
				}
			}
		}
	}

	candidates := make([]string, 0, len(selected))
	for name := range selected {
		cfg, ok := p.registry.Config(name)
		if !ok || !cfg.Preload {
			continue
		}
		if _, already := p.registry.Peek(name); already {
			continue
		}
		candidates = append(candidates, name)
	}
	sort.Strings(candidates)
	return candidates
}
