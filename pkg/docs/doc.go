// Package docs describes bedrock, a dynamic block CMS runtime for Go.
//
// Bedrock stores pages as ordered lists of block descriptors and renders
// them through a registry of asynchronously loaded block implementations.
// Blocks resolve in the background, pages render immediately with
// placeholders for anything still loading, and a WebSocket channel patches
// resolved blocks into open pages without a reload.
//
// # Key Features
//
//   - Block Catalog: Declarative registration of block types with configs
//   - Async Loading: Implementations load on demand with in-flight dedup
//   - Fault Isolation: A failing block renders a fallback, never breaks a page
//   - Live Updates: WebSocket patches for resolved blocks and edited pages
//   - Editor: Browser-based page editor with block palette and prop editing
//   - Preloading: Idle-time warming of blocks marked for preload
//
// # Quick Start
//
//	// Scaffold a config file and sample content
//	bedrock init
//
//	// Start the server
//	bedrock serve
//
//	// List registered block types
//	bedrock list
//
//	// Render a page to static HTML
//	bedrock render home
//
// # Architecture
//
// The bedrock module is organized into several core components:
//
//   - CLI Commands (cmd/): Cobra-based command interface
//   - Block Registry (internal/registry/): Config lookup and async loading
//   - Block Renderer (internal/renderer/): Fragment rendering with fallbacks
//   - Page Store (internal/page/): JSON documents with change notifications
//   - HTTP Server (internal/server/): Pages, editor, API, and WebSocket
//   - Configuration (internal/config/): Viper-based configuration management
//
// # Configuration
//
// Bedrock supports configuration through multiple sources:
//
//   - Configuration file (.bedrock.yml)
//   - Environment variables (BEDROCK_*)
//   - Command-line flags
//
// Example configuration:
//
//	server:
//	  port: 8080
//	  host: localhost
//	  environment: development
//	  allowed_origins:
//	    - "https://app.example.com"
//
//	content:
//	  dir: ./content
//	  watch: true
//
//	preload:
//	  enabled: true
//	  delay: 150ms
//
//	logging:
//	  level: info
//	  format: text
//
// For more information, see the individual package documentation.
package docs
