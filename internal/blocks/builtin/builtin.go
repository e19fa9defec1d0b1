// Package builtin ships the block implementations bundled with the
// server: hero, rich text, image, quote, blog list, and divider.
// Catalog returns them all registered; callers can layer site-specific
// definitions on top.
package builtin

import (
	"fmt"
	"io"

	"github.com/KCuppens/bedrock-cms-sub001/internal/blocks"
	"github.com/KCuppens/bedrock-cms-sub001/internal/types"
)

// Catalog returns a catalog pre-populated with every builtin block.
func Catalog() *blocks.Catalog {
	c := blocks.NewCatalog()
	c.Register(heroDefinition())
	c.Register(richTextDefinition())
	c.Register(imageDefinition())
	c.Register(quoteDefinition())
	c.Register(blogListDefinition())
	c.Register(dividerDefinition())
	return c
}

// propString reads a string field from block content, falling back to
// def when absent or the wrong type.
func propString(content map[string]any, key, def string) string {
	if content == nil {
		return def
	}
	if v, ok := content[key].(string); ok {
		return v
	}
	return def
}

// propInt reads a numeric field. JSON decoding hands us float64, so
// both int and float64 are accepted.
func propInt(content map[string]any, key string, def int) int {
	if content == nil {
		return def
	}
	switch v := content[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

// propBool reads a boolean field.
func propBool(content map[string]any, key string, def bool) bool {
	if content == nil {
		return def
	}
	if v, ok := content[key].(bool); ok {
		return v
	}
	return def
}

// blockClasses assembles the class attribute for a block root element:
// the block's own class, the caller-supplied ClassName, and editor
// state markers.
func blockClasses(base string, props types.ComponentProps) string {
	classes := base
	if props.ClassName != "" {
		classes += " " + props.ClassName
	}
	if props.IsEditing {
		classes += " is-editing"
	}
	if props.IsSelected {
		classes += " is-selected"
	}
	return classes
}

func writeOpenTag(w io.Writer, tag, classes string) error {
	_, err := fmt.Fprintf(w, `<%s class="%s">`, tag, classes)
	return err
}

func writeCloseTag(w io.Writer, tag string) error {
	_, err := fmt.Fprintf(w, "</%s>", tag)
	return err
}
