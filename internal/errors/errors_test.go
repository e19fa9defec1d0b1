package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockError_Error(t *testing.T) {
	cause := fmt.Errorf("connection refused")

	err := NewLoadError("hero", cause)
	assert.Equal(t, "[load][load_failed] block:hero implementation load failed: connection refused", err.Error())

	bare := &BlockError{Kind: KindDescriptor, Message: "no implementation name"}
	assert.Equal(t, "[descriptor] no implementation name", bare.Error())
}

func TestBlockError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := NewRenderError("quote", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestBlockError_IsMatchesKindAndCode(t *testing.T) {
	err := NewLoadError("hero", fmt.Errorf("x"))

	assert.ErrorIs(t, err, &BlockError{Kind: KindLoad})
	assert.ErrorIs(t, err, &BlockError{Kind: KindLoad, Code: "load_failed"})
	assert.NotErrorIs(t, err, &BlockError{Kind: KindRender})
	assert.NotErrorIs(t, err, &BlockError{Kind: KindLoad, Code: "load_panic"})
}

func TestBlockError_Constructors(t *testing.T) {
	load := NewLoadError("a", nil)
	assert.True(t, load.Recoverable)
	assert.Equal(t, KindLoad, load.Kind)

	panicked := NewLoadPanicError("a", "nil deref")
	assert.True(t, panicked.Recoverable)
	assert.Contains(t, panicked.Message, "nil deref")

	render := NewRenderPanicError("a", 42)
	assert.Equal(t, KindRender, render.Kind)
	assert.Contains(t, render.Message, "42")

	unreg := NewUnregisteredError("ghost")
	assert.False(t, unreg.Recoverable)
	assert.Equal(t, "ghost", unreg.Block)

	desc := NewDescriptorError("empty name")
	assert.False(t, desc.Recoverable)
	assert.Equal(t, KindDescriptor, desc.Kind)
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(NewRenderError("a", nil))
	require.True(t, ok)
	assert.Equal(t, KindRender, kind)

	kind, ok = KindOf(fmt.Errorf("plain"))
	assert.False(t, ok)
	assert.Empty(t, kind)

	wrapped := fmt.Errorf("outer: %w", NewLoadError("b", nil))
	kind, ok = KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindLoad, kind)
}

func TestRenderFailureLog_BoundedWindow(t *testing.T) {
	log := NewRenderFailureLog(3)

	for i := 0; i < 5; i++ {
		log.Record(NewLoadError(fmt.Sprintf("block-%d", i), nil))
	}

	recent := log.Recent()
	require.Len(t, recent, 3)
	assert.Equal(t, "block-2", recent[0].Err.Block)
	assert.Equal(t, "block-4", recent[2].Err.Block)
	assert.False(t, recent[2].Timestamp.IsZero())
}

func TestRenderFailureLog_ByBlock(t *testing.T) {
	log := NewRenderFailureLog(10)
	log.Record(NewLoadError("hero", nil))
	log.Record(NewRenderError("quote", nil))
	log.Record(NewRenderError("hero", nil))

	hero := log.ByBlock("hero")
	require.Len(t, hero, 2)
	assert.Equal(t, KindLoad, hero[0].Err.Kind)
	assert.Equal(t, KindRender, hero[1].Err.Kind)

	assert.Empty(t, log.ByBlock("ghost"))
}

func TestRenderFailureLog_ClearAndNilRecord(t *testing.T) {
	log := NewRenderFailureLog(0)
	assert.False(t, log.HasFailures())

	log.Record(nil)
	assert.False(t, log.HasFailures())

	log.Record(NewLoadError("hero", nil))
	assert.True(t, log.HasFailures())

	log.Clear()
	assert.False(t, log.HasFailures())
	assert.Empty(t, log.Recent())
}
