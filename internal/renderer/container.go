package renderer

import (
	"context"
	"fmt"
	"io"
	"maps"

	"github.com/a-h/templ"

	"github.com/KCuppens/bedrock-cms-sub001/internal/types"
)

// ContainerOptions configure a whole-list render.
type ContainerOptions struct {
	// IsEditing turns on editor affordances for every block.
	IsEditing bool
	// SelectedIndex marks one block as selected; -1 selects none.
	SelectedIndex int
	// WaitForAll blocks on unresolved implementations instead of
	// emitting placeholders.
	WaitForAll bool
	// ClassName is passed through to every block.
	ClassName string

	// OnChange receives the full updated list after any single block
	// edit. OnBlockChange receives just the edited block. Both fire
	// from the same update.
	OnChange      func(blocks []types.BlockDescriptor)
	OnBlockChange func(index int, block types.BlockDescriptor)
	// OnSelect fires when a block reports selection.
	OnSelect func(index int)
}

// DefaultContainerOptions returns options with no selection.
func DefaultContainerOptions() ContainerOptions {
	return ContainerOptions{SelectedIndex: -1}
}

// RenderBlocks renders an ordered list of blocks, each inside a
// wrapper div carrying a stable identity. Identity comes from the
// descriptor ID when present, otherwise from the list position. Broken
// blocks degrade individually; the rest of the list still renders.
//
// The returned states are positional. With WaitForAll unset, a state
// of StatePending means that position holds a placeholder.
func (r *BlockRenderer) RenderBlocks(ctx context.Context, w io.Writer, blocks []types.BlockDescriptor, opts ContainerOptions) ([]types.BlockState, error) {
	states := make([]types.BlockState, len(blocks))

	for i, desc := range blocks {
		wrapperID := BlockIdentity(desc, i)

		selected := opts.IsEditing && i == opts.SelectedIndex
		classes := "block-wrapper"
		if selected {
			classes += " is-selected"
		}
		if _, err := fmt.Fprintf(w, `<div class="%s" data-block-id="%s" data-block-type="%s">`,
			classes, templ.EscapeString(wrapperID), templ.EscapeString(desc.ImplementationName())); err != nil {
			return states, err
		}

		renderOpts := RenderOptions{
			IsEditing:  opts.IsEditing,
			IsSelected: selected,
			ClassName:  opts.ClassName,
			OnChange:   r.blockChangeFunc(blocks, i, opts),
			OnSelect:   r.blockSelectFunc(i, opts),
		}

		if opts.WaitForAll {
			h := r.Resolve(desc)
			if err := r.renderBlocking(ctx, w, h, desc, renderOpts); err != nil {
				return states, err
			}
			states[i] = h.State()
		} else {
			state, err := r.RenderAvailable(ctx, w, desc, renderOpts)
			if err != nil {
				return states, err
			}
			states[i] = state
		}

		if _, err := io.WriteString(w, `</div>`); err != nil {
			return states, err
		}
	}
	return states, nil
}

// blockChangeFunc builds the per-block change callback: one content
// edit produces an updated copy of the list and feeds both callbacks.
func (r *BlockRenderer) blockChangeFunc(blocks []types.BlockDescriptor, index int, opts ContainerOptions) func(map[string]any) {
	if opts.OnChange == nil && opts.OnBlockChange == nil {
		return nil
	}
	return func(content map[string]any) {
		updated := ApplyBlockUpdate(blocks, index, content)
		if opts.OnBlockChange != nil {
			opts.OnBlockChange(index, updated[index])
		}
		if opts.OnChange != nil {
			opts.OnChange(updated)
		}
	}
}

func (r *BlockRenderer) blockSelectFunc(index int, opts ContainerOptions) func() {
	if opts.OnSelect == nil {
		return nil
	}
	return func() { opts.OnSelect(index) }
}

// BlockIdentity returns the stable identity for a block at a position:
// the descriptor ID when set, a positional fallback otherwise.
func BlockIdentity(desc types.BlockDescriptor, position int) string {
	if desc.ID != "" {
		return desc.ID
	}
	return fmt.Sprintf("block-%d", position)
}

// ApplyBlockUpdate returns a copy of blocks with content merged into
// the props of the block at index. Identity fields (type, component,
// ID, position) never change; unmentioned props survive. The input
// slice and its descriptors are left untouched. An out-of-range index
// returns the input unchanged.
func ApplyBlockUpdate(blocks []types.BlockDescriptor, index int, content map[string]any) []types.BlockDescriptor {
	if index < 0 || index >= len(blocks) {
		return blocks
	}

	updated := make([]types.BlockDescriptor, len(blocks))
	copy(updated, blocks)

	target := updated[index]
	merged := make(map[string]any, len(target.Props)+len(content))
	maps.Copy(merged, target.Props)
	maps.Copy(merged, content)
	target.Props = merged
	updated[index] = target

	return updated
}
