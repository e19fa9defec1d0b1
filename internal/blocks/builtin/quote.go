package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/KCuppens/bedrock-cms-sub001/internal/blocks"
	"github.com/KCuppens/bedrock-cms-sub001/internal/types"
)

// QuoteBlock renders a pull quote with attribution.
type QuoteBlock struct{}

func quoteDefinition() blocks.Definition {
	return blocks.Definition{
		Config: types.BlockConfig{
			Type:        "quote",
			Category:    "content",
			Icon:        "quote",
			Description: "Pull quote with optional attribution",
			DefaultProps: map[string]any{
				"text":   "",
				"author": "",
			},
			Preload:     false,
			EditingMode: types.EditingModeInline,
		},
		Loader: func(ctx context.Context) (types.Implementation, error) {
			return QuoteBlock{}, nil
		},
	}
}

func (QuoteBlock) Component(props types.ComponentProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		text := propString(props.Content, "text", "")
		author := propString(props.Content, "author", "")

		if err := writeOpenTag(w, "blockquote", blockClasses("block-quote", props)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<p>%s</p>`, templ.EscapeString(text)); err != nil {
			return err
		}
		if author != "" {
			if _, err := fmt.Fprintf(w, `<cite>%s</cite>`, templ.EscapeString(author)); err != nil {
				return err
			}
		}
		return writeCloseTag(w, "blockquote")
	})
}
