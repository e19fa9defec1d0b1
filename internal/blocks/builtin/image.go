package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/KCuppens/bedrock-cms-sub001/internal/blocks"
	"github.com/KCuppens/bedrock-cms-sub001/internal/types"
)

// ImageBlock renders a single image with alt text and an optional
// caption.
type ImageBlock struct{}

func imageDefinition() blocks.Definition {
	return blocks.Definition{
		Config: types.BlockConfig{
			Type:        "image",
			Category:    "media",
			Icon:        "image",
			Description: "Single image with alt text and caption",
			DefaultProps: map[string]any{
				"src":     "",
				"alt":     "",
				"caption": "",
			},
			Preload:     false,
			EditingMode: types.EditingModeModal,
		},
		Loader: func(ctx context.Context) (types.Implementation, error) {
			return ImageBlock{}, nil
		},
	}
}

func (ImageBlock) Component(props types.ComponentProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		src := propString(props.Content, "src", "")
		alt := propString(props.Content, "alt", "")
		caption := propString(props.Content, "caption", "")

		if err := writeOpenTag(w, "figure", blockClasses("block-image", props)); err != nil {
			return err
		}
		if src != "" {
			if _, err := fmt.Fprintf(w, `<img src="%s" alt="%s"/>`,
				templ.EscapeString(src), templ.EscapeString(alt)); err != nil {
				return err
			}
		} else if props.IsEditing {
			if _, err := io.WriteString(w, `<div class="image-placeholder">No image selected</div>`); err != nil {
				return err
			}
		}
		if caption != "" {
			if _, err := fmt.Fprintf(w, `<figcaption>%s</figcaption>`, templ.EscapeString(caption)); err != nil {
				return err
			}
		}
		return writeCloseTag(w, "figure")
	})
}
