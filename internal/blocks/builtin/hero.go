package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/KCuppens/bedrock-cms-sub001/internal/blocks"
	"github.com/KCuppens/bedrock-cms-sub001/internal/types"
)

// HeroBlock renders a page-topping banner with a title, subtitle, and
// optional call-to-action link.
type HeroBlock struct{}

func heroDefinition() blocks.Definition {
	return blocks.Definition{
		Config: types.BlockConfig{
			Type:        "hero",
			Category:    "layout",
			Icon:        "star",
			Description: "Full-width banner with title, subtitle, and call to action",
			DefaultProps: map[string]any{
				"title":    "Welcome",
				"subtitle": "Start editing to build your page",
				"ctaLabel": "",
				"ctaHref":  "",
			},
			Preload:     true,
			EditingMode: types.EditingModeInline,
		},
		Loader: func(ctx context.Context) (types.Implementation, error) {
			return HeroBlock{}, nil
		},
	}
}

func (HeroBlock) Component(props types.ComponentProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := propString(props.Content, "title", "Welcome")
		subtitle := propString(props.Content, "subtitle", "")
		ctaLabel := propString(props.Content, "ctaLabel", "")
		ctaHref := propString(props.Content, "ctaHref", "")

		if err := writeOpenTag(w, "section", blockClasses("block-hero", props)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<h1>%s</h1>`, templ.EscapeString(title)); err != nil {
			return err
		}
		if subtitle != "" {
			if _, err := fmt.Fprintf(w, `<p class="hero-subtitle">%s</p>`, templ.EscapeString(subtitle)); err != nil {
				return err
			}
		}
		if ctaLabel != "" && ctaHref != "" {
			if _, err := fmt.Fprintf(w, `<a class="hero-cta" href="%s">%s</a>`,
				templ.EscapeString(ctaHref), templ.EscapeString(ctaLabel)); err != nil {
				return err
			}
		}
		return writeCloseTag(w, "section")
	})
}
