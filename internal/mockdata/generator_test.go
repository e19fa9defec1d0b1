package mockdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_PropsFor_KeepsNonEmptyDefaults(t *testing.T) {
	g := NewSeeded(42)

	props := g.PropsFor(map[string]any{
		"title": "Hand-written title",
		"count": 7,
		"show":  true,
	})

	assert.Equal(t, "Hand-written title", props["title"])
	assert.Equal(t, 7, props["count"])
	assert.Equal(t, true, props["show"])
}

func TestGenerator_PropsFor_FillsEmptyValues(t *testing.T) {
	g := NewSeeded(42)

	props := g.PropsFor(map[string]any{
		"title":   "",
		"src":     "",
		"count":   0,
		"caption": "",
	})

	assert.NotEmpty(t, props["title"])
	assert.Contains(t, props["src"], "https://")
	assert.NotZero(t, props["count"])
	assert.NotEmpty(t, props["caption"])
}

func TestGenerator_PropsFor_PostLists(t *testing.T) {
	g := NewSeeded(42)

	props := g.PropsFor(map[string]any{"posts": []any{}})

	posts, ok := props["posts"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, posts)

	first, ok := posts[0].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, first["title"])
	assert.NotEmpty(t, first["href"])
}

func TestGenerator_Deterministic_WhenSeeded(t *testing.T) {
	defaults := map[string]any{"title": "", "text": "", "count": 0}

	a := NewSeeded(99).PropsFor(defaults)
	b := NewSeeded(99).PropsFor(defaults)

	assert.Equal(t, a, b)
}

func TestGenerator_PropsFor_DoesNotMutateDefaults(t *testing.T) {
	defaults := map[string]any{"title": ""}
	g := NewSeeded(1)

	_ = g.PropsFor(defaults)

	assert.Equal(t, "", defaults["title"])
}
