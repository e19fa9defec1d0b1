// Package types provides the shared block model used throughout the
// bedrock block engine. This package contains the data contracts between
// the catalog, registry, renderer, and page store to avoid circular
// dependencies between packages.
package types

import (
	"context"
	"time"

	"github.com/a-h/templ"
)

// BlockDescriptor is one block instance inside a page document. It is
// owned by the page; the registry and renderer never mutate it, and
// updated content flows back out through callbacks as a new descriptor.
type BlockDescriptor struct {
	// Type is the semantic content-type tag (e.g. "hero", "rich_text").
	// When Component is empty it doubles as the implementation key.
	Type string `json:"type"`
	// Component optionally names the implementation directly,
	// overriding Type for lookup purposes.
	Component string `json:"component,omitempty"`
	// Props carries the block's content as a loosely-typed map.
	Props map[string]any `json:"props"`
	// ID identifies the instance across edits. May be empty for
	// documents authored by hand; the store assigns one on save.
	ID string `json:"id,omitempty"`
	// Position is the block's index within its page.
	Position int `json:"position"`
}

// ImplementationName returns the key used to look the block up in the
// registry: Component when present, otherwise Type. An empty result
// means the descriptor is malformed and must not reach the registry.
func (d BlockDescriptor) ImplementationName() string {
	if d.Component != "" {
		return d.Component
	}
	return d.Type
}

// Valid reports whether the descriptor names an implementation at all.
func (d BlockDescriptor) Valid() bool {
	return d.ImplementationName() != ""
}

// EditingMode declares how the editor opens a block for editing.
type EditingMode string

const (
	EditingModeInline  EditingMode = "inline"
	EditingModeModal   EditingMode = "modal"
	EditingModeSidebar EditingMode = "sidebar"
)

// Valid reports whether the mode is one of the known editing modes.
func (m EditingMode) Valid() bool {
	switch m {
	case EditingModeInline, EditingModeModal, EditingModeSidebar:
		return true
	}
	return false
}

// BlockConfig is the static, discovery-time metadata for one block
// type. Immutable after discovery; keyed by implementation name.
type BlockConfig struct {
	// Type is the implementation name this config belongs to.
	Type string `json:"type"`
	// Label is the human-readable name shown in editor palettes.
	Label string `json:"label"`
	// Category groups related blocks ("content", "media", "layout").
	Category string `json:"category"`
	// Icon names the editor icon for the block.
	Icon string `json:"icon,omitempty"`
	// Description explains the block to content authors.
	Description string `json:"description,omitempty"`
	// DefaultProps seeds new instances and backfills missing props at
	// render time.
	DefaultProps map[string]any `json:"defaultProps,omitempty"`
	// Preload marks the block for opportunistic cache warm-up.
	Preload bool `json:"preload,omitempty"`
	// EditingMode selects the editing surface; empty means inline.
	EditingMode EditingMode `json:"editingMode,omitempty"`
}

// ComponentProps is the contract passed into every resolved
// implementation. It decouples the renderer from implementation
// internals: a block sees its content and edit-state, plus callbacks
// that route mutations back to the owning document.
type ComponentProps struct {
	// Content aliases the descriptor's props, with the block's
	// DefaultProps filled in underneath.
	Content map[string]any
	// IsEditing is true when rendering inside the editor surface.
	IsEditing bool
	// IsSelected is true when this block is the editor's selection.
	IsSelected bool
	// OnChange receives replacement content for the block. May be nil
	// outside edit mode.
	OnChange func(content map[string]any)
	// OnSelect reports that the block was selected. May be nil.
	OnSelect func()
	// ClassName is extra class markup the host wants on the fragment.
	ClassName string
}

// Implementation is the renderable artifact registered for a block
// type: given the props contract it produces the fragment to render.
type Implementation interface {
	Component(props ComponentProps) templ.Component
}

// ImplementationFunc adapts a plain function to Implementation.
type ImplementationFunc func(props ComponentProps) templ.Component

// Component implements Implementation.
func (f ImplementationFunc) Component(props ComponentProps) templ.Component {
	return f(props)
}

// LoaderFunc resolves a block type's implementation asynchronously.
// Loaders are invoked at most once per outstanding demand; the registry
// caches successful results for the life of the process.
type LoaderFunc func(ctx context.Context) (Implementation, error)

// BlockState is the observable lifecycle of one rendered block.
// Transitions are one-directional: Pending moves to exactly one of
// Resolved or Failed and stays there.
type BlockState int

const (
	// StatePending means the implementation load has not settled.
	StatePending BlockState = iota
	// StateResolved means the implementation is loaded and renderable.
	StateResolved
	// StateFailed means the load or render failed; the block shows a
	// fallback.
	StateFailed
)

// String returns the string representation of the state.
func (s BlockState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Page is a stored content document: an ordered sequence of block
// descriptors plus identity metadata.
type Page struct {
	ID        string            `json:"id"`
	Slug      string            `json:"slug"`
	Title     string            `json:"title"`
	Blocks    []BlockDescriptor `json:"blocks"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// CloneBlocks returns a copy of the page's descriptor slice so callers
// can build updated sequences without aliasing the stored one. Props
// maps are shared; callers replace them wholesale rather than mutating.
func (p *Page) CloneBlocks() []BlockDescriptor {
	if len(p.Blocks) == 0 {
		return nil
	}
	out := make([]BlockDescriptor, len(p.Blocks))
	copy(out, p.Blocks)
	return out
}
