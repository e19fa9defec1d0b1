package builtin

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/KCuppens/bedrock-cms-sub001/internal/blocks"
	"github.com/KCuppens/bedrock-cms-sub001/internal/types"
)

// RichTextBlock renders paragraphs of body copy. Content arrives as
// plain text; blank lines split paragraphs.
type RichTextBlock struct{}

func richTextDefinition() blocks.Definition {
	return blocks.Definition{
		Config: types.BlockConfig{
			Type:        "rich_text",
			Category:    "content",
			Icon:        "text",
			Description: "Paragraphs of formatted body text",
			DefaultProps: map[string]any{
				"text": "Write something...",
			},
			Preload:     true,
			EditingMode: types.EditingModeInline,
		},
		Loader: func(ctx context.Context) (types.Implementation, error) {
			return RichTextBlock{}, nil
		},
	}
}

func (RichTextBlock) Component(props types.ComponentProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		text := propString(props.Content, "text", "")

		if err := writeOpenTag(w, "div", blockClasses("block-rich-text", props)); err != nil {
			return err
		}
		for _, para := range strings.Split(text, "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			if _, err := fmt.Fprintf(w, `<p>%s</p>`, templ.EscapeString(para)); err != nil {
				return err
			}
		}
		return writeCloseTag(w, "div")
	})
}
