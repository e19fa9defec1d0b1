package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/KCuppens/bedrock-cms-sub001/internal/blocks"
	"github.com/KCuppens/bedrock-cms-sub001/internal/types"
)

// DividerBlock renders a horizontal rule between sections.
type DividerBlock struct{}

func dividerDefinition() blocks.Definition {
	return blocks.Definition{
		Config: types.BlockConfig{
			Type:        "divider",
			Category:    "layout",
			Icon:        "minus",
			Description: "Horizontal rule between sections",
			DefaultProps: map[string]any{
				"style": "solid",
			},
			Preload:     false,
			EditingMode: types.EditingModeInline,
		},
		Loader: func(ctx context.Context) (types.Implementation, error) {
			return DividerBlock{}, nil
		},
	}
}

func (DividerBlock) Component(props types.ComponentProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		style := propString(props.Content, "style", "solid")
		_, err := fmt.Fprintf(w, `<hr class="%s" data-style="%s"/>`,
			blockClasses("block-divider", props), templ.EscapeString(style))
		return err
	})
}
