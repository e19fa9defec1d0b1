package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/KCuppens/bedrock-cms-sub001/internal/types"
)

var initCmd = &cobra.Command{
	Use:     "init [dir]",
	Aliases: []string{"i"},
	Short:   "Scaffold a content directory and config file",
	Long: `Create a ready-to-serve project: a .bedrock.yml config and a
content directory holding a sample page that uses the builtin blocks.

Examples:
  bedrock init               # Scaffold into the current directory
  bedrock init my-site       # Scaffold into my-site/
  bedrock init --force       # Overwrite existing files`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing files")
}

const defaultConfigFile = `server:
  host: localhost
  port: 8080
  environment: development
  # Origins allowed to open websocket connections besides the server's
  # own address:
  # allowed_origins:
  #   - https://cms.example.com

content:
  dir: ./content
  watch: true
  debounce: 300ms

preload:
  enabled: true
  delay: 150ms

logging:
  level: info
  format: text
`

func runInit(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	contentDir := filepath.Join(root, "content")
	if err := os.MkdirAll(contentDir, 0o750); err != nil {
		return fmt.Errorf("creating %s: %w", contentDir, err)
	}

	if err := writeScaffoldFile(filepath.Join(root, ".bedrock.yml"), []byte(defaultConfigFile)); err != nil {
		return err
	}

	sample, err := samplePageJSON()
	if err != nil {
		return err
	}
	if err := writeScaffoldFile(filepath.Join(contentDir, "home.json"), sample); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), `Scaffolded a bedrock project in %s

Next steps:
  cd %s
  bedrock serve          # http://localhost:8080
  bedrock list           # see the available block types
`, root, root)
	return nil
}

// writeScaffoldFile writes a file, refusing to clobber existing work
// unless --force is set.
func writeScaffoldFile(path string, data []byte) error {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// samplePageJSON builds the scaffold's demo page, one block per builtin
// type.
func samplePageJSON() ([]byte, error) {
	pg := types.Page{
		ID:    uuid.New().String(),
		Slug:  "home",
		Title: "Home",
		Blocks: []types.BlockDescriptor{
			{
				Type: "hero",
				Props: map[string]any{
					"title":    "Welcome to Bedrock",
					"subtitle": "Pages built from blocks, rendered as they load.",
					"ctaLabel": "Read the intro",
					"ctaHref":  "#intro",
				},
			},
			{
				Type: "rich_text",
				Props: map[string]any{
					"text": "Each section of this page is a block.\n\nOpen the editor, click a block, and edit its props as JSON.",
				},
			},
			{
				Type: "quote",
				Props: map[string]any{
					"text":   "Documents are just ordered lists of blocks.",
					"author": "The README",
				},
			},
			{
				Type:  "divider",
				Props: map[string]any{"style": "solid"},
			},
			{
				Type: "blog_list",
				Props: map[string]any{
					"heading": "Latest posts",
					"count":   3,
				},
			},
		},
		UpdatedAt: time.Now().UTC(),
	}

	for i := range pg.Blocks {
		pg.Blocks[i].ID = uuid.New().String()
		pg.Blocks[i].Position = i
	}

	return json.MarshalIndent(pg, "", "  ")
}
