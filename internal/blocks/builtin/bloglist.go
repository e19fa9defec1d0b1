package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/KCuppens/bedrock-cms-sub001/internal/blocks"
	"github.com/KCuppens/bedrock-cms-sub001/internal/types"
)

// BlogListBlock renders a list of post teasers. Posts come in through
// content["posts"] as a list of objects with title, href, and excerpt.
type BlogListBlock struct{}

func blogListDefinition() blocks.Definition {
	return blocks.Definition{
		Config: types.BlockConfig{
			Type:        "blog_list",
			Category:    "listing",
			Icon:        "list",
			Description: "Teaser list of blog posts",
			DefaultProps: map[string]any{
				"heading": "Latest posts",
				"count":   5,
				"posts":   []any{},
			},
			Preload:     false,
			EditingMode: types.EditingModeSidebar,
		},
		Loader: func(ctx context.Context) (types.Implementation, error) {
			return BlogListBlock{}, nil
		},
	}
}

func (BlogListBlock) Component(props types.ComponentProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		heading := propString(props.Content, "heading", "Latest posts")
		count := propInt(props.Content, "count", 5)

		if err := writeOpenTag(w, "section", blockClasses("block-blog-list", props)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<h2>%s</h2><ul>`, templ.EscapeString(heading)); err != nil {
			return err
		}
		for i, post := range postEntries(props.Content) {
			if i >= count {
				break
			}
			if err := writePost(w, post); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</ul>`); err != nil {
			return err
		}
		return writeCloseTag(w, "section")
	})
}

func postEntries(content map[string]any) []map[string]any {
	raw, _ := content["posts"].([]any)
	posts := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		if post, ok := entry.(map[string]any); ok {
			posts = append(posts, post)
		}
	}
	return posts
}

func writePost(w io.Writer, post map[string]any) error {
	title := propString(post, "title", "Untitled")
	href := propString(post, "href", "#")
	excerpt := propString(post, "excerpt", "")

	if _, err := fmt.Fprintf(w, `<li><a href="%s">%s</a>`,
		templ.EscapeString(href), templ.EscapeString(title)); err != nil {
		return err
	}
	if excerpt != "" {
		if _, err := fmt.Fprintf(w, `<p>%s</p>`, templ.EscapeString(excerpt)); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, `</li>`)
	return err
}
