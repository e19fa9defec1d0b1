package cmd

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/KCuppens/bedrock-cms-sub001/internal/blocks/builtin"
	"github.com/KCuppens/bedrock-cms-sub001/internal/config"
	"github.com/KCuppens/bedrock-cms-sub001/internal/logging"
	"github.com/KCuppens/bedrock-cms-sub001/internal/mockdata"
	"github.com/KCuppens/bedrock-cms-sub001/internal/page"
	"github.com/KCuppens/bedrock-cms-sub001/internal/registry"
	"github.com/KCuppens/bedrock-cms-sub001/internal/renderer"
	"github.com/KCuppens/bedrock-cms-sub001/internal/types"
)

// renderTimeout bounds how long a headless render waits for block
// implementations to settle.
const renderTimeout = 30 * time.Second

var renderCmd = &cobra.Command{
	Use:     "render [slug]",
	Aliases: []string{"r"},
	Short:   "Render pages or a single block to static HTML",
	Long: `Render page documents to static HTML without starting a server.
Rendering waits for every block implementation, so the output never
contains placeholders.

Examples:
  bedrock render home               # Render one page to stdout
  bedrock render home -o home.html  # Render one page to a file
  bedrock render --all -o dist      # Render every page into a directory
  bedrock render --block hero       # Render one block with sample props`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

var (
	renderAll    bool
	renderOutput string
	renderBlock  string
)

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().BoolVar(&renderAll, "all", false, "Render every page")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output file (or directory with --all); default stdout")
	renderCmd.Flags().StringVar(&renderBlock, "block", "", "Render a single block type with sample props")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Rendered HTML goes to stdout, so diagnostics go to stderr.
	logger := logging.New(&logging.Config{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})

	reg := registry.New(builtin.Catalog(), registry.WithLogger(logger))
	defer reg.Close()

	rend := renderer.New(reg,
		renderer.WithLogger(logger),
		renderer.WithMode(renderer.ParseMode(cfg.Server.Environment)))
	defer rend.Close()

	if renderBlock != "" {
		return renderSingleBlock(cmd, rend, reg, renderBlock)
	}

	store, err := page.NewStore(cfg.Content.Dir, logger)
	if err != nil {
		return fmt.Errorf("failed to open content directory %q: %w", cfg.Content.Dir, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), renderTimeout)
	defer cancel()

	switch {
	case renderAll:
		if renderOutput == "" {
			return fmt.Errorf("--all needs --output pointing at a directory")
		}
		if err := os.MkdirAll(renderOutput, 0o750); err != nil {
			return fmt.Errorf("creating %s: %w", renderOutput, err)
		}
		for _, p := range store.List() {
			var buf bytes.Buffer
			if err := renderPageHTML(ctx, rend, p, &buf); err != nil {
				return err
			}
			path := filepath.Join(renderOutput, p.Slug+".html")
			if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
		}
		return nil

	case len(args) == 1:
		p, ok := store.Get(args[0])
		if !ok {
			return fmt.Errorf("page %q not found in %s", args[0], cfg.Content.Dir)
		}
		var buf bytes.Buffer
		if err := renderPageHTML(ctx, rend, p, &buf); err != nil {
			return err
		}
		return writeRenderOutput(cmd, buf.Bytes())

	default:
		return fmt.Errorf("provide a page slug, --all, or --block")
	}
}

const pageShell = `<!DOCTYPE html>
<html>
<head>
    <title>%s</title>
</head>
<body>
<main class="page">
%s</main>
</body>
</html>
`

func renderPageHTML(ctx context.Context, rend *renderer.BlockRenderer, p types.Page, w io.Writer) error {
	opts := renderer.DefaultContainerOptions()
	opts.WaitForAll = true

	var body bytes.Buffer
	if _, err := rend.RenderBlocks(ctx, &body, p.Blocks, opts); err != nil {
		return fmt.Errorf("rendering page %q: %w", p.Slug, err)
	}

	_, err := fmt.Fprintf(w, pageShell, html.EscapeString(p.Title), body.String())
	return err
}

func renderSingleBlock(cmd *cobra.Command, rend *renderer.BlockRenderer, reg *registry.BlockRegistry, name string) error {
	cfg, ok := reg.Config(name)
	if !ok {
		return fmt.Errorf("unknown block type %q (try: bedrock list)", name)
	}

	desc := types.BlockDescriptor{
		Type:  name,
		Props: mockdata.NewGenerator().PropsFor(cfg.DefaultProps),
	}

	ctx, cancel := context.WithTimeout(context.Background(), renderTimeout)
	defer cancel()

	var buf bytes.Buffer
	if err := rend.RenderBlock(ctx, &buf, desc, renderer.RenderOptions{}); err != nil {
		return fmt.Errorf("rendering block %q: %w", name, err)
	}
	return writeRenderOutput(cmd, buf.Bytes())
}

func writeRenderOutput(cmd *cobra.Command, data []byte) error {
	if renderOutput == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(renderOutput, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", renderOutput, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", renderOutput)
	return nil
}
