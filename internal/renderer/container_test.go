package renderer

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KCuppens/bedrock-cms-sub001/internal/types"
)

// capturingImpl exposes the props it was rendered with, so tests can
// drive the editor callbacks a component would receive.
type capturingImpl struct {
	props *types.ComponentProps
}

func (c capturingImpl) Component(props types.ComponentProps) templ.Component {
	*c.props = props
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<div>captured</div>")
		return err
	})
}

func TestRenderBlocks_OrderAndIdentity(t *testing.T) {
	r := newTestRenderer(t, ModeDevelopment,
		implDefinition("hero", htmlImpl{html: "<h1>one</h1>"}),
		implDefinition("quote", htmlImpl{html: "<q>two</q>"}),
	)

	blocks := []types.BlockDescriptor{
		{Type: "hero", ID: "blk-aaa"},
		{Type: "quote"}, // no ID, positional identity
	}

	var buf strings.Builder
	opts := DefaultContainerOptions()
	opts.WaitForAll = true
	states, err := r.RenderBlocks(context.Background(), &buf, blocks, opts)

	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, types.StateResolved, states[0])
	assert.Equal(t, types.StateResolved, states[1])

	out := buf.String()
	assert.Contains(t, out, `data-block-id="blk-aaa"`)
	assert.Contains(t, out, `data-block-id="block-1"`)
	// Document order is preserved.
	assert.Less(t, strings.Index(out, "one"), strings.Index(out, "two"))
}

func TestRenderBlocks_BrokenBlockDoesNotStopOthers(t *testing.T) {
	r := newTestRenderer(t, ModeDevelopment,
		implDefinition("good", htmlImpl{html: "<p>fine</p>"}),
		implDefinition("bomb", panicImpl{}),
	)

	blocks := []types.BlockDescriptor{
		{Type: "good"},
		{Type: "bomb"},
		{Type: "good"},
	}

	var buf strings.Builder
	opts := DefaultContainerOptions()
	opts.WaitForAll = true
	states, err := r.RenderBlocks(context.Background(), &buf, blocks, opts)

	require.NoError(t, err)
	assert.Equal(t, types.StateResolved, states[0])
	assert.Equal(t, types.StateResolved, states[2])

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "<p>fine</p>"))
	assert.Contains(t, out, "block-fallback")
}

func TestRenderBlocks_SelectedIndex(t *testing.T) {
	r := newTestRenderer(t, ModeDevelopment, implDefinition("echo", echoImpl{}))

	blocks := []types.BlockDescriptor{
		{Type: "echo", Props: map[string]any{"title": "first"}},
		{Type: "echo", Props: map[string]any{"title": "second"}},
	}

	var buf strings.Builder
	opts := DefaultContainerOptions()
	opts.WaitForAll = true
	opts.IsEditing = true
	opts.SelectedIndex = 1
	_, err := r.RenderBlocks(context.Background(), &buf, blocks, opts)
	require.NoError(t, err)

	out := buf.String()
	// Only the second wrapper is marked selected.
	assert.Equal(t, 1, strings.Count(out, "is-selected"))
	first := out[:strings.Index(out, "second")]
	assert.NotContains(t, first, "is-selected")
	assert.Contains(t, out, `data-state="editing selected">second`)
	assert.Contains(t, out, `data-state="editing">first`)
}

func TestRenderBlocks_NoSelection(t *testing.T) {
	r := newTestRenderer(t, ModeDevelopment, implDefinition("echo", echoImpl{}))

	blocks := []types.BlockDescriptor{{Type: "echo", Props: map[string]any{"title": "only"}}}

	var buf strings.Builder
	opts := DefaultContainerOptions()
	opts.WaitForAll = true
	_, err := r.RenderBlocks(context.Background(), &buf, blocks, opts)
	require.NoError(t, err)

	assert.NotContains(t, buf.String(), "is-selected")
}

func TestRenderBlocks_ChangeCallbacks(t *testing.T) {
	var captured types.ComponentProps
	def := implDefinition("capture", capturingImpl{props: &captured})
	r := newTestRenderer(t, ModeDevelopment, def)

	original := []types.BlockDescriptor{
		{Type: "capture", ID: "blk-1", Props: map[string]any{"title": "old", "keep": "yes"}},
	}

	var gotList []types.BlockDescriptor
	var gotIndex int
	var gotBlock types.BlockDescriptor

	opts := DefaultContainerOptions()
	opts.WaitForAll = true
	opts.OnChange = func(blocks []types.BlockDescriptor) { gotList = blocks }
	opts.OnBlockChange = func(index int, block types.BlockDescriptor) {
		gotIndex = index
		gotBlock = block
	}

	var buf strings.Builder
	_, err := r.RenderBlocks(context.Background(), &buf, original, opts)
	require.NoError(t, err)
	require.NotNil(t, captured.OnChange)

	// Simulate the editor reporting a content edit.
	captured.OnChange(map[string]any{"title": "new"})

	require.Len(t, gotList, 1)
	assert.Equal(t, 0, gotIndex)
	assert.Equal(t, "new", gotBlock.Props["title"])
	assert.Equal(t, "yes", gotBlock.Props["keep"])
	assert.Equal(t, "blk-1", gotBlock.ID)
	// The original list is untouched.
	assert.Equal(t, "old", original[0].Props["title"])
}

func TestApplyBlockUpdate_CopyOnWrite(t *testing.T) {
	original := []types.BlockDescriptor{
		{Type: "hero", ID: "a", Position: 0, Props: map[string]any{"title": "old", "keep": true}},
		{Type: "quote", ID: "b", Position: 1, Props: map[string]any{"text": "hi"}},
	}

	updated := ApplyBlockUpdate(original, 0, map[string]any{"title": "new"})

	assert.Equal(t, "new", updated[0].Props["title"])
	assert.Equal(t, true, updated[0].Props["keep"])
	assert.Equal(t, "a", updated[0].ID)
	assert.Equal(t, 0, updated[0].Position)
	assert.Equal(t, "hero", updated[0].Type)

	// Untouched positions and the original stay as they were.
	assert.Equal(t, original[1], updated[1])
	assert.Equal(t, "old", original[0].Props["title"])
}

func TestApplyBlockUpdate_OutOfRange(t *testing.T) {
	original := []types.BlockDescriptor{{Type: "hero"}}

	assert.Equal(t, original, ApplyBlockUpdate(original, -1, map[string]any{"x": 1}))
	assert.Equal(t, original, ApplyBlockUpdate(original, 5, map[string]any{"x": 1}))
}

func TestBlockIdentity(t *testing.T) {
	assert.Equal(t, "blk-7", BlockIdentity(types.BlockDescriptor{ID: "blk-7"}, 3))
	assert.Equal(t, "block-3", BlockIdentity(types.BlockDescriptor{}, 3))
}
