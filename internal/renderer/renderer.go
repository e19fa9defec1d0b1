// Package renderer turns block descriptors into HTML. Rendering is
// fault-isolated: a block that fails to load or render degrades to a
// fallback without taking down the rest of the page. Pending blocks
// can render a placeholder instead of blocking, letting callers patch
// the real markup in once the implementation arrives.
package renderer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"strings"
	"sync"

	"github.com/a-h/templ"

	blockerrors "github.com/KCuppens/bedrock-cms-sub001/internal/errors"
	"github.com/KCuppens/bedrock-cms-sub001/internal/logging"
	"github.com/KCuppens/bedrock-cms-sub001/internal/registry"
	"github.com/KCuppens/bedrock-cms-sub001/internal/types"
	"github.com/KCuppens/bedrock-cms-sub001/internal/validation"
)

// Mode selects how render failures surface.
type Mode int

const (
	// ModeDevelopment renders diagnostic fallbacks naming the failed
	// type and, for unknown types, listing what is registered.
	ModeDevelopment Mode = iota
	// ModeProduction renders nothing for a failed block. Failures are
	// still logged and recorded.
	ModeProduction
)

// ParseMode maps an environment string to a Mode. Anything that is not
// "production" counts as development.
func ParseMode(environment string) Mode {
	if strings.EqualFold(environment, "production") {
		return ModeProduction
	}
	return ModeDevelopment
}

// RenderOptions carry editor state into a single block render.
type RenderOptions struct {
	IsEditing  bool
	IsSelected bool
	ClassName  string
	OnChange   func(content map[string]any)
	OnSelect   func()
}

// BlockRenderer renders block descriptors against a registry. Safe for
// concurrent use.
type BlockRenderer struct {
	registry *registry.BlockRegistry
	logger   logging.Logger
	mode     Mode
	failures *blockerrors.RenderFailureLog

	// resolveCtx drives handle resolution goroutines independently of
	// any single render call.
	resolveCtx    context.Context
	resolveCancel context.CancelFunc

	mu      sync.Mutex
	handles map[string]*BlockHandle
}

// RendererOption configures a BlockRenderer.
type RendererOption func(*BlockRenderer)

// WithLogger sets the render diagnostics logger.
func WithLogger(logger logging.Logger) RendererOption {
	return func(r *BlockRenderer) { r.logger = logger }
}

// WithMode selects failure presentation.
func WithMode(mode Mode) RendererOption {
	return func(r *BlockRenderer) { r.mode = mode }
}

// WithFailureLog shares a failure window with other consumers, such as
// the editor diagnostics endpoint.
func WithFailureLog(log *blockerrors.RenderFailureLog) RendererOption {
	return func(r *BlockRenderer) { r.failures = log }
}

// New builds a renderer over a registry.
func New(reg *registry.BlockRegistry, opts ...RendererOption) *BlockRenderer {
	ctx, cancel := context.WithCancel(context.Background())
	r := &BlockRenderer{
		registry:      reg,
		logger:        logging.NewNop(),
		mode:          ModeDevelopment,
		failures:      blockerrors.NewRenderFailureLog(0),
		resolveCtx:    ctx,
		resolveCancel: cancel,
		handles:       make(map[string]*BlockHandle),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent("renderer")
	return r
}

// Close stops handle resolution. In-flight registry loads continue and
// stay cached; only this renderer's waiting stops.
func (r *BlockRenderer) Close() {
	r.resolveCancel()
}

// Failures exposes the recent render failure window.
func (r *BlockRenderer) Failures() *blockerrors.RenderFailureLog {
	return r.failures
}

// Resolve returns the handle for a descriptor's implementation,
// starting a load when no usable handle exists. Handles are shared per
// implementation name. A failed handle is replaced so the failure
// stays retryable; pending and resolved handles are reused.
//
// A descriptor naming no implementation gets a handle failed with a
// descriptor error; the registry is never consulted for it.
func (r *BlockRenderer) Resolve(desc types.BlockDescriptor) *BlockHandle {
	name := desc.ImplementationName()
	if name == "" {
		return failedHandle("", blockerrors.NewDescriptorError("descriptor names no type or component"))
	}

	r.mu.Lock()
	if h, ok := r.handles[name]; ok && h.State() != types.StateFailed {
		r.mu.Unlock()
		return h
	}
	h := newHandle(name)
	r.handles[name] = h
	r.mu.Unlock()

	go r.resolve(h)
	return h
}

func (r *BlockRenderer) resolve(h *BlockHandle) {
	impl, err := r.registry.GetComponent(r.resolveCtx, h.name)
	switch {
	case err != nil:
		h.settle(nil, err)
	case impl == nil:
		h.settle(nil, blockerrors.NewUnregisteredError(h.name))
	default:
		h.settle(impl, nil)
	}
}

// RenderBlock renders one block, waiting for its implementation. Load
// and render failures degrade to the mode's fallback and are recorded;
// the returned error is reserved for the writer and the caller's
// context, so a page render continues past broken blocks.
func (r *BlockRenderer) RenderBlock(ctx context.Context, w io.Writer, desc types.BlockDescriptor, opts RenderOptions) error {
	return r.renderBlocking(ctx, w, r.Resolve(desc), desc, opts)
}

func (r *BlockRenderer) renderBlocking(ctx context.Context, w io.Writer, h *BlockHandle, desc types.BlockDescriptor, opts RenderOptions) error {
	impl, err := h.Await(ctx)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return err
		}
		return r.renderFallback(ctx, w, desc, err)
	}
	return r.renderResolved(ctx, w, desc, impl, opts)
}

// RenderAvailable renders one block without waiting. A pending block
// gets a placeholder carrying its identity so it can be patched later;
// the returned state tells the caller whether that happened.
func (r *BlockRenderer) RenderAvailable(ctx context.Context, w io.Writer, desc types.BlockDescriptor, opts RenderOptions) (types.BlockState, error) {
	h := r.Resolve(desc)

	switch h.State() {
	case types.StatePending:
		return types.StatePending, r.renderPlaceholder(w, desc)
	case types.StateFailed:
		_, err := h.Await(ctx)
		return types.StateFailed, r.renderFallback(ctx, w, desc, err)
	default:
		impl, _ := h.Await(ctx)
		return types.StateResolved, r.renderResolved(ctx, w, desc, impl, opts)
	}
}

// renderResolved runs the implementation inside the fault boundary:
// output goes to a buffer first, so a panicking or erroring component
// never leaves partial markup in the response.
func (r *BlockRenderer) renderResolved(ctx context.Context, w io.Writer, desc types.BlockDescriptor, impl types.Implementation, opts RenderOptions) error {
	props := types.ComponentProps{
		Content:    r.contentFor(desc),
		IsEditing:  opts.IsEditing,
		IsSelected: opts.IsSelected,
		OnChange:   opts.OnChange,
		OnSelect:   opts.OnSelect,
		ClassName:  opts.ClassName,
	}

	var buf bytes.Buffer
	if err := safeRender(ctx, &buf, impl.Component(props), desc); err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return err
		}
		return r.renderFallback(ctx, w, desc, err)
	}

	if r.mode == ModeDevelopment {
		r.inspectFragment(ctx, desc, buf.Bytes())
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// contentFor lays the block config's default props under the
// descriptor's own, so implementations always see a complete prop set.
func (r *BlockRenderer) contentFor(desc types.BlockDescriptor) map[string]any {
	cfg, ok := r.registry.Config(desc.ImplementationName())
	if !ok || len(cfg.DefaultProps) == 0 {
		return desc.Props
	}
	merged := make(map[string]any, len(cfg.DefaultProps)+len(desc.Props))
	maps.Copy(merged, cfg.DefaultProps)
	maps.Copy(merged, desc.Props)
	return merged
}

// safeRender converts a component panic into a render error.
func safeRender(ctx context.Context, w io.Writer, component templ.Component, desc types.BlockDescriptor) (err error) {
	name := desc.ImplementationName()
	defer func() {
		if rec := recover(); rec != nil {
			err = blockerrors.NewRenderPanicError(name, rec)
		}
	}()
	if err := component.Render(ctx, w); err != nil {
		return blockerrors.NewRenderError(name, err)
	}
	return nil
}

func (r *BlockRenderer) inspectFragment(ctx context.Context, desc types.BlockDescriptor, fragment []byte) {
	for _, issue := range validation.InspectFragment(fragment) {
		r.logger.Warn(ctx, nil, "block fragment issue",
			"block", desc.ImplementationName(),
			"issue", issue.String())
	}
}

// renderFallback records the failure and writes the mode's fallback.
// Production renders nothing.
func (r *BlockRenderer) renderFallback(ctx context.Context, w io.Writer, desc types.BlockDescriptor, cause error) error {
	var blockErr *blockerrors.BlockError
	if !errors.As(cause, &blockErr) {
		blockErr = blockerrors.NewRenderError(desc.ImplementationName(), cause)
	}
	r.failures.Record(blockErr)
	r.logger.Error(ctx, cause, "block degraded to fallback",
		"block", desc.ImplementationName(),
		"type", desc.Type)

	if r.mode == ModeProduction {
		return nil
	}
	return r.renderDiagnostic(w, desc, cause)
}

func (r *BlockRenderer) renderDiagnostic(w io.Writer, desc types.BlockDescriptor, cause error) error {
	name := desc.ImplementationName()
	if name == "" {
		name = "(unnamed)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<div class="block-fallback" data-block-type="%s">`, templ.EscapeString(name))

	kind, _ := blockerrors.KindOf(cause)
	switch kind {
	case blockerrors.KindUnregistered:
		fmt.Fprintf(&b, `<strong>Unknown block type &quot;%s&quot;</strong>`, templ.EscapeString(name))
		fmt.Fprintf(&b, `<p class="block-fallback-hint">Registered types: %s</p>`,
			templ.EscapeString(strings.Join(r.registry.KnownTypes(), ", ")))
	case blockerrors.KindDescriptor:
		b.WriteString(`<strong>Block has no type or component name</strong>`)
	default:
		fmt.Fprintf(&b, `<strong>Block &quot;%s&quot; failed</strong>`, templ.EscapeString(name))
	}

	if cause != nil {
		fmt.Fprintf(&b, `<pre class="block-fallback-detail">%s</pre>`, templ.EscapeString(cause.Error()))
	}
	b.WriteString(`</div>`)

	_, err := io.WriteString(w, b.String())
	return err
}

// renderPlaceholder emits the pending marker for a block. The
// data-block-pending attribute carries the implementation name the
// patcher listens for.
func (r *BlockRenderer) renderPlaceholder(w io.Writer, desc types.BlockDescriptor) error {
	_, err := fmt.Fprintf(w,
		`<div class="block-pending" data-block-pending="%s" aria-busy="true"></div>`,
		templ.EscapeString(desc.ImplementationName()))
	return err
}
