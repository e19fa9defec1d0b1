package renderer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KCuppens/bedrock-cms-sub001/internal/blocks"
	blockerrors "github.com/KCuppens/bedrock-cms-sub001/internal/errors"
	"github.com/KCuppens/bedrock-cms-sub001/internal/registry"
	"github.com/KCuppens/bedrock-cms-sub001/internal/types"
)

type htmlImpl struct {
	html string
}

func (s htmlImpl) Component(props types.ComponentProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s.html)
		return err
	})
}

type echoImpl struct{}

func (echoImpl) Component(props types.ComponentProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title, _ := props.Content["title"].(string)
		marker := ""
		if props.IsEditing {
			marker += " editing"
		}
		if props.IsSelected {
			marker += " selected"
		}
		_, err := fmt.Fprintf(w, `<h1 data-state="%s">%s</h1>`, strings.TrimSpace(marker), templ.EscapeString(title))
		return err
	})
}

type panicImpl struct{}

func (panicImpl) Component(props types.ComponentProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		//nolint:errcheck
		io.WriteString(w, "<div>partial")
		panic("render exploded")
	})
}

type errorImpl struct{}

func (errorImpl) Component(props types.ComponentProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		//nolint:errcheck
		io.WriteString(w, "<div>partial")
		return errors.New("template broke")
	})
}

func implDefinition(name string, impl types.Implementation) blocks.Definition {
	return blocks.Definition{
		Config: types.BlockConfig{Type: name},
		Loader: func(ctx context.Context) (types.Implementation, error) {
			return impl, nil
		},
	}
}

func newTestRenderer(t *testing.T, mode Mode, defs ...blocks.Definition) *BlockRenderer {
	t.Helper()
	catalog := blocks.NewCatalog()
	for _, def := range defs {
		catalog.Register(def)
	}
	reg := registry.New(catalog)
	t.Cleanup(reg.Close)

	r := New(reg, WithMode(mode))
	t.Cleanup(r.Close)
	return r
}

func TestRenderBlock_ResolvedOutput(t *testing.T) {
	r := newTestRenderer(t, ModeDevelopment, implDefinition("hero", htmlImpl{html: "<h1>Hi</h1>"}))

	var buf strings.Builder
	err := r.RenderBlock(context.Background(), &buf, types.BlockDescriptor{Type: "hero"}, RenderOptions{})

	require.NoError(t, err)
	assert.Equal(t, "<h1>Hi</h1>", buf.String())
}

func TestRenderBlock_PropsFlowThrough(t *testing.T) {
	r := newTestRenderer(t, ModeDevelopment, implDefinition("echo", echoImpl{}))

	var buf strings.Builder
	desc := types.BlockDescriptor{Type: "echo", Props: map[string]any{"title": "Hello"}}
	err := r.RenderBlock(context.Background(), &buf, desc, RenderOptions{IsEditing: true, IsSelected: true})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), ">Hello</h1>")
	assert.Contains(t, buf.String(), `data-state="editing selected"`)
}

func TestRenderBlock_DefaultPropsBackfill(t *testing.T) {
	def := blocks.Definition{
		Config: types.BlockConfig{
			Type:         "echo",
			DefaultProps: map[string]any{"title": "From Defaults"},
		},
		Loader: func(ctx context.Context) (types.Implementation, error) {
			return echoImpl{}, nil
		},
	}
	r := newTestRenderer(t, ModeDevelopment, def)

	// Missing props fall back to the config defaults.
	var bare strings.Builder
	require.NoError(t, r.RenderBlock(context.Background(), &bare, types.BlockDescriptor{Type: "echo"}, RenderOptions{}))
	assert.Contains(t, bare.String(), "From Defaults")

	// Instance props win over defaults.
	var overridden strings.Builder
	desc := types.BlockDescriptor{Type: "echo", Props: map[string]any{"title": "Mine"}}
	require.NoError(t, r.RenderBlock(context.Background(), &overridden, desc, RenderOptions{}))
	assert.Contains(t, overridden.String(), "Mine")
	assert.NotContains(t, overridden.String(), "From Defaults")
}

func TestRenderBlock_ComponentNamePreferredOverType(t *testing.T) {
	r := newTestRenderer(t, ModeDevelopment,
		implDefinition("generic", htmlImpl{html: "<p>generic</p>"}),
		implDefinition("special", htmlImpl{html: "<p>special</p>"}),
	)

	var buf strings.Builder
	desc := types.BlockDescriptor{Type: "generic", Component: "special"}
	err := r.RenderBlock(context.Background(), &buf, desc, RenderOptions{})

	require.NoError(t, err)
	assert.Equal(t, "<p>special</p>", buf.String())
}

func TestRenderBlock_UnknownType_DevFallback(t *testing.T) {
	r := newTestRenderer(t, ModeDevelopment, implDefinition("hero", htmlImpl{html: "x"}))

	var buf strings.Builder
	err := r.RenderBlock(context.Background(), &buf, types.BlockDescriptor{Type: "mystery"}, RenderOptions{})

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "block-fallback")
	assert.Contains(t, out, "mystery")
	assert.Contains(t, out, "hero") // registered types listed
	assert.True(t, r.Failures().HasFailures())
}

func TestRenderBlock_UnknownType_ProductionRendersNothing(t *testing.T) {
	r := newTestRenderer(t, ModeProduction, implDefinition("hero", htmlImpl{html: "x"}))

	var buf strings.Builder
	err := r.RenderBlock(context.Background(), &buf, types.BlockDescriptor{Type: "mystery"}, RenderOptions{})

	require.NoError(t, err)
	assert.Empty(t, buf.String())
	// Still recorded for diagnostics.
	assert.True(t, r.Failures().HasFailures())
}

func TestRenderBlock_MissingIdentifier(t *testing.T) {
	r := newTestRenderer(t, ModeDevelopment, implDefinition("hero", htmlImpl{html: "x"}))

	var buf strings.Builder
	err := r.RenderBlock(context.Background(), &buf, types.BlockDescriptor{}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no type or component")

	failures := r.Failures().Recent()
	require.NotEmpty(t, failures)
	assert.Equal(t, blockerrors.KindDescriptor, failures[0].Err.Kind)
}

func TestRenderBlock_PanicIsolation_NoPartialOutput(t *testing.T) {
	r := newTestRenderer(t, ModeDevelopment, implDefinition("bomb", panicImpl{}))

	var buf strings.Builder
	err := r.RenderBlock(context.Background(), &buf, types.BlockDescriptor{Type: "bomb"}, RenderOptions{})

	require.NoError(t, err)
	out := buf.String()
	assert.NotContains(t, out, "partial")
	assert.Contains(t, out, "block-fallback")
	assert.Contains(t, out, "render exploded")
}

func TestRenderBlock_RenderError_Fallback(t *testing.T) {
	r := newTestRenderer(t, ModeDevelopment, implDefinition("broken", errorImpl{}))

	var buf strings.Builder
	err := r.RenderBlock(context.Background(), &buf, types.BlockDescriptor{Type: "broken"}, RenderOptions{})

	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "partial")
	assert.Contains(t, buf.String(), "template broke")
}

func TestRenderBlock_LoadFailure_DevFallbackThenRetry(t *testing.T) {
	attempts := 0
	def := blocks.Definition{
		Config: types.BlockConfig{Type: "flaky"},
		Loader: func(ctx context.Context) (types.Implementation, error) {
			attempts++
			if attempts == 1 {
				return nil, errors.New("chunk fetch failed")
			}
			return htmlImpl{html: "<p>ok</p>"}, nil
		},
	}
	r := newTestRenderer(t, ModeDevelopment, def)

	var first strings.Builder
	require.NoError(t, r.RenderBlock(context.Background(), &first, types.BlockDescriptor{Type: "flaky"}, RenderOptions{}))
	assert.Contains(t, first.String(), "chunk fetch failed")

	// The failed handle is replaced on the next render, which retries.
	var second strings.Builder
	require.NoError(t, r.RenderBlock(context.Background(), &second, types.BlockDescriptor{Type: "flaky"}, RenderOptions{}))
	assert.Equal(t, "<p>ok</p>", second.String())
}

func TestRenderBlock_CallerCancellation_Propagates(t *testing.T) {
	release := make(chan struct{})
	def := blocks.Definition{
		Config: types.BlockConfig{Type: "slow"},
		Loader: func(ctx context.Context) (types.Implementation, error) {
			<-release
			return htmlImpl{html: "late"}, nil
		},
	}
	r := newTestRenderer(t, ModeDevelopment, def)
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf strings.Builder
	err := r.RenderBlock(ctx, &buf, types.BlockDescriptor{Type: "slow"}, RenderOptions{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
}

func TestRenderAvailable_Pending_PlaceholderThenResolved(t *testing.T) {
	release := make(chan struct{})
	def := blocks.Definition{
		Config: types.BlockConfig{Type: "slow"},
		Loader: func(ctx context.Context) (types.Implementation, error) {
			<-release
			return htmlImpl{html: "<p>arrived</p>"}, nil
		},
	}
	r := newTestRenderer(t, ModeDevelopment, def)

	var first strings.Builder
	state, err := r.RenderAvailable(context.Background(), &first, types.BlockDescriptor{Type: "slow"}, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, types.StatePending, state)
	assert.Contains(t, first.String(), `data-block-pending="slow"`)

	close(release)
	h := r.Resolve(types.BlockDescriptor{Type: "slow"})
	select {
	case <-h.Settled():
	case <-time.After(time.Second):
		t.Fatal("implementation never resolved")
	}

	var second strings.Builder
	state, err = r.RenderAvailable(context.Background(), &second, types.BlockDescriptor{Type: "slow"}, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, types.StateResolved, state)
	assert.Equal(t, "<p>arrived</p>", second.String())
}

func TestResolve_SharesHandleAcrossBlocksOfSameType(t *testing.T) {
	r := newTestRenderer(t, ModeDevelopment, implDefinition("hero", htmlImpl{html: "x"}))

	a := r.Resolve(types.BlockDescriptor{Type: "hero", ID: "a"})
	b := r.Resolve(types.BlockDescriptor{Type: "hero", ID: "b"})

	assert.Same(t, a, b)
}

func TestBlockHandle_States(t *testing.T) {
	h := newHandle("x")
	assert.Equal(t, types.StatePending, h.State())

	h.settle(htmlImpl{html: "y"}, nil)
	assert.Equal(t, types.StateResolved, h.State())

	failed := failedHandle("z", errors.New("nope"))
	assert.Equal(t, types.StateFailed, failed.State())

	impl, err := failed.Await(context.Background())
	assert.Nil(t, impl)
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeProduction, ParseMode("production"))
	assert.Equal(t, ModeProduction, ParseMode("PRODUCTION"))
	assert.Equal(t, ModeDevelopment, ParseMode("development"))
	assert.Equal(t, ModeDevelopment, ParseMode(""))
}
