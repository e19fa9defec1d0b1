// Package mockdata fills block props with plausible sample content for
// previews. A block's DefaultProps anchor the shape; empty values get
// filled in by prop-name heuristics so previews never render blank.
package mockdata

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"
)

// Generator produces sample prop values. Seeded generators are
// deterministic, which preview tests rely on.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator seeded from the clock.
func NewGenerator() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a deterministic generator.
func NewSeeded(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// PropsFor builds sample content for a block from its default props.
// Non-empty defaults pass through untouched; empty strings, zero
// counts, and empty lists are replaced by generated values keyed off
// the prop name. Keys are processed in sorted order so a seeded
// generator yields identical output across runs.
func (g *Generator) PropsFor(defaults map[string]any) map[string]any {
	keys := make([]string, 0, len(defaults))
	for key := range defaults {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	props := make(map[string]any, len(defaults))
	for _, key := range keys {
		props[key] = g.fill(key, defaults[key])
	}
	return props
}

func (g *Generator) fill(key string, value any) any {
	switch v := value.(type) {
	case string:
		if v != "" {
			return v
		}
		return g.sampleString(key)
	case int:
		if v != 0 {
			return v
		}
		return g.rng.Intn(8) + 2
	case float64:
		if v != 0 {
			return v
		}
		return float64(g.rng.Intn(8) + 2)
	case bool:
		return v
	case []any:
		if len(v) != 0 {
			return v
		}
		return g.sampleList(key)
	case nil:
		return g.sampleString(key)
	default:
		return v
	}
}

// sampleString picks a value by prop-name pattern, mirroring the kinds
// of fields block configs actually declare.
func (g *Generator) sampleString(key string) string {
	name := strings.ToLower(key)

	switch {
	case containsAny(name, "src", "image", "avatar", "thumbnail"):
		sizes := []string{"480x320", "640x360", "800x450"}
		return fmt.Sprintf("https://placehold.co/%s", sizes[g.rng.Intn(len(sizes))])
	case containsAny(name, "href", "url", "link"):
		paths := []string{"articles", "posts", "pages"}
		return fmt.Sprintf("https://example.com/%s/%d", paths[g.rng.Intn(len(paths))], g.rng.Intn(900)+100)
	case containsAny(name, "title", "heading", "label"):
		adjectives := []string{"Bold", "Quiet", "Bright", "Honest", "Simple"}
		nouns := []string{"Ideas", "Stories", "Updates", "Notes", "Voices"}
		return fmt.Sprintf("%s %s", adjectives[g.rng.Intn(len(adjectives))], nouns[g.rng.Intn(len(nouns))])
	case containsAny(name, "subtitle", "excerpt", "caption", "description"):
		lines := []string{
			"A short line of supporting copy.",
			"Everything you need to know, in brief.",
			"Context for the section above.",
		}
		return lines[g.rng.Intn(len(lines))]
	case containsAny(name, "author", "name", "byline"):
		first := []string{"Alex", "Jordan", "Casey", "Morgan", "Riley"}
		last := []string{"Reed", "Park", "Lane", "Hale", "Brooke"}
		return fmt.Sprintf("%s %s", first[g.rng.Intn(len(first))], last[g.rng.Intn(len(last))])
	case containsAny(name, "alt"):
		return "Placeholder image"
	case containsAny(name, "text", "body", "content", "quote"):
		paragraphs := []string{
			"Lorem ipsum dolor sit amet, consectetur adipiscing elit.",
			"Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.",
			"Ut enim ad minim veniam, quis nostrud exercitation ullamco.",
		}
		return paragraphs[g.rng.Intn(len(paragraphs))]
	case containsAny(name, "style", "variant", "theme"):
		return "solid"
	default:
		return "Sample " + key
	}
}

// sampleList fills list-shaped props. Post lists get full teaser
// entries; anything else gets a pair of strings.
func (g *Generator) sampleList(key string) []any {
	if containsAny(strings.ToLower(key), "post", "item", "entry", "article") {
		count := g.rng.Intn(3) + 2
		posts := make([]any, 0, count)
		for i := 0; i < count; i++ {
			posts = append(posts, map[string]any{
				"title":   g.sampleString("title"),
				"href":    g.sampleString("href"),
				"excerpt": g.sampleString("excerpt"),
			})
		}
		return posts
	}
	return []any{g.sampleString(key), g.sampleString(key)}
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
