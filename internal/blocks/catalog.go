// Package blocks defines the block catalog: the set of block types a
// site exposes, each pairing a BlockConfig with the loader that
// produces its implementation. The registry consumes a catalog at
// construction time; nothing registers after that.
package blocks

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/KCuppens/bedrock-cms-sub001/internal/types"
	"github.com/KCuppens/bedrock-cms-sub001/internal/validation"
)

// Definition binds a block type's configuration to the loader that
// materializes its implementation. Loaders run at most once per
// successful resolution; the registry handles caching and dedup.
type Definition struct {
	Config types.BlockConfig
	Loader types.LoaderFunc
}

// Catalog is the immutable-after-construction set of block
// definitions. Register calls race-safely accumulate definitions;
// duplicate type names are a programming error and panic.
type Catalog struct {
	mu   sync.Mutex
	defs map[string]Definition
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{defs: make(map[string]Definition)}
}

// Register adds a block definition. The type name must validate and
// must not already be registered. A missing Label is derived from the
// type name ("blog_list" becomes "Blog List").
func (c *Catalog) Register(def Definition) {
	if err := validation.ValidateTypeName(def.Config.Type); err != nil {
		panic(fmt.Sprintf("blocks: invalid type name %q: %v", def.Config.Type, err))
	}
	if def.Loader == nil {
		panic(fmt.Sprintf("blocks: %q registered without a loader", def.Config.Type))
	}
	if def.Config.Label == "" {
		def.Config.Label = DeriveLabel(def.Config.Type)
	}
	if def.Config.EditingMode == "" {
		def.Config.EditingMode = types.EditingModeInline
	}
	if !def.Config.EditingMode.Valid() {
		panic(fmt.Sprintf("blocks: %q has unknown editing mode %q", def.Config.Type, def.Config.EditingMode))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.defs[def.Config.Type]; exists {
		panic(fmt.Sprintf("blocks: duplicate registration of %q", def.Config.Type))
	}
	c.defs[def.Config.Type] = def
}

// Get returns the definition for a type name.
func (c *Catalog) Get(name string) (Definition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	def, ok := c.defs[name]
	return def, ok
}

// Types returns all registered type names, sorted.
func (c *Catalog) Types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.defs))
	for name := range c.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Configs returns all registered configs keyed by type name. The map
// is a copy; mutating it does not affect the catalog.
func (c *Catalog) Configs() map[string]types.BlockConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	configs := make(map[string]types.BlockConfig, len(c.defs))
	for name, def := range c.defs {
		configs[name] = def.Config
	}
	return configs
}

// Len reports how many definitions are registered.
func (c *Catalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.defs)
}

var titleCaser = cases.Title(language.English)

// DeriveLabel turns a type name into a human-readable label:
// underscores and hyphens become spaces, words are title-cased.
func DeriveLabel(typeName string) string {
	cleaned := strings.NewReplacer("_", " ", "-", " ").Replace(typeName)
	return titleCaser.String(cleaned)
}
