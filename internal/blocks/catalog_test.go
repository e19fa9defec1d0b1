package blocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KCuppens/bedrock-cms-sub001/internal/types"
)

func nopLoader(ctx context.Context) (types.Implementation, error) {
	return nil, nil
}

func definition(name string) Definition {
	return Definition{
		Config: types.BlockConfig{Type: name},
		Loader: nopLoader,
	}
}

func TestCatalog_RegisterAndGet(t *testing.T) {
	c := NewCatalog()
	c.Register(Definition{
		Config: types.BlockConfig{
			Type:     "hero",
			Label:    "Big Banner",
			Category: "layout",
		},
		Loader: nopLoader,
	})

	def, ok := c.Get("hero")
	require.True(t, ok)
	assert.Equal(t, "Big Banner", def.Config.Label)
	assert.Equal(t, "layout", def.Config.Category)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCatalog_DerivesLabelAndEditingMode(t *testing.T) {
	c := NewCatalog()
	c.Register(definition("blog_list"))

	def, ok := c.Get("blog_list")
	require.True(t, ok)
	assert.Equal(t, "Blog List", def.Config.Label)
	assert.Equal(t, types.EditingModeInline, def.Config.EditingMode)
}

func TestCatalog_RegisterPanics(t *testing.T) {
	t.Run("invalid type name", func(t *testing.T) {
		c := NewCatalog()
		assert.Panics(t, func() { c.Register(definition("no spaces")) })
	})

	t.Run("missing loader", func(t *testing.T) {
		c := NewCatalog()
		assert.Panics(t, func() {
			c.Register(Definition{Config: types.BlockConfig{Type: "hero"}})
		})
	})

	t.Run("duplicate registration", func(t *testing.T) {
		c := NewCatalog()
		c.Register(definition("hero"))
		assert.Panics(t, func() { c.Register(definition("hero")) })
	})

	t.Run("unknown editing mode", func(t *testing.T) {
		c := NewCatalog()
		def := definition("hero")
		def.Config.EditingMode = types.EditingMode("popup")
		assert.Panics(t, func() { c.Register(def) })
	})
}

func TestCatalog_TypesSorted(t *testing.T) {
	c := NewCatalog()
	c.Register(definition("quote"))
	c.Register(definition("hero"))
	c.Register(definition("image"))

	assert.Equal(t, []string{"hero", "image", "quote"}, c.Types())
	assert.Equal(t, 3, c.Len())
}

func TestCatalog_ConfigsReturnsCopy(t *testing.T) {
	c := NewCatalog()
	c.Register(definition("hero"))

	configs := c.Configs()
	require.Contains(t, configs, "hero")
	delete(configs, "hero")

	_, ok := c.Get("hero")
	assert.True(t, ok)
}

func TestDeriveLabel(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"hero", "Hero"},
		{"blog_list", "Blog List"},
		{"image-gallery", "Image Gallery"},
		{"rich_text", "Rich Text"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DeriveLabel(tc.in), "input %q", tc.in)
	}
}
