package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/KCuppens/bedrock-cms-sub001/internal/blocks/builtin"
	"github.com/KCuppens/bedrock-cms-sub001/internal/config"
	"github.com/KCuppens/bedrock-cms-sub001/internal/logging"
	"github.com/KCuppens/bedrock-cms-sub001/internal/page"
	"github.com/KCuppens/bedrock-cms-sub001/internal/preload"
	"github.com/KCuppens/bedrock-cms-sub001/internal/registry"
	"github.com/KCuppens/bedrock-cms-sub001/internal/renderer"
	"github.com/KCuppens/bedrock-cms-sub001/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the preview server",
	Long: `Start the preview server: rendered pages at /pages/{slug}, the
block editor at /editor/{slug}, the JSON API under /api/, and live
updates over /ws.

Examples:
  bedrock serve                         # Serve ./content on localhost:8080
  bedrock serve -p 3000                 # Serve on another port
  bedrock serve --content-dir ./site    # Serve another content directory
  bedrock serve -e production           # Failed blocks render nothing`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().StringP("content-dir", "c", "./content", "Directory holding page documents")
	serveCmd.Flags().StringP("environment", "e", "development", "Environment (development, production)")
	serveCmd.Flags().Bool("watch", true, "Reload page documents edited on disk")
	serveCmd.Flags().Bool("preload", true, "Warm the block cache after startup")

	//nolint:errcheck // flags are registered above
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	//nolint:errcheck
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	//nolint:errcheck
	viper.BindPFlag("content.dir", serveCmd.Flags().Lookup("content-dir"))
	//nolint:errcheck
	viper.BindPFlag("server.environment", serveCmd.Flags().Lookup("environment"))
	//nolint:errcheck
	viper.BindPFlag("content.watch", serveCmd.Flags().Lookup("watch"))
	//nolint:errcheck
	viper.BindPFlag("preload.enabled", serveCmd.Flags().Lookup("preload"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.New(&logging.Config{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
	})

	reg := registry.New(builtin.Catalog(), registry.WithLogger(logger))
	defer reg.Close()

	rend := renderer.New(reg,
		renderer.WithLogger(logger),
		renderer.WithMode(renderer.ParseMode(cfg.Server.Environment)))
	defer rend.Close()

	store, err := page.NewStore(cfg.Content.Dir, logger)
	if err != nil {
		return fmt.Errorf("failed to open content directory %q: %w", cfg.Content.Dir, err)
	}

	preloader := preload.New(reg,
		preload.WithDelay(cfg.Preload.Delay),
		preload.WithLogger(logger))

	srv, err := server.New(cfg, server.Deps{
		Logger:    logger,
		Registry:  reg,
		Renderer:  rend,
		Store:     store,
		Preloader: preloader,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Start shuts itself down when the context is cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("Shutting down...")
		cancel()
	}()

	fmt.Printf("Starting bedrock at http://%s\n", cfg.Server.Address())

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
