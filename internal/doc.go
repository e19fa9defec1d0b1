// Package internal contains the core implementation packages for bedrock.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the bedrock CLI tool.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - blocks: Block definition catalog and the builtin block set
//   - config: Configuration management backed by viper
//   - errors: Block error taxonomy and the render failure log
//   - logging: Structured logging facade over log/slog
//   - mockdata: Sample prop generation for previews
//   - page: JSON-backed page store with change notifications
//   - preload: Idle-time warming of preload-marked block types
//   - registry: Block config lookup and async implementation loading
//   - renderer: Block rendering with fault isolation and placeholders
//   - server: HTTP server, editor UI, JSON API, and WebSocket support
//   - types: Shared block and page types
//   - validation: Type name, slug, and fragment validation
//   - watcher: Content directory monitoring with debouncing
//
// # Inter-Package Communication
//
// Packages communicate through well-defined interfaces:
//
//   - Registry resolves block implementations and broadcasts load events
//   - Renderer consumes registry resolutions and produces HTML fragments
//   - Server coordinates between all components and handles user requests
//   - Watcher monitors the content directory and triggers page reloads
//   - Preloader warms the registry cache during idle time
//
// # Concurrency
//
// Block loading is asynchronous throughout. The registry deduplicates
// concurrent loads of the same type, the renderer memoizes in-flight
// handles so a slow block never renders twice, and every blocking
// operation accepts a context for cancellation.
//
// For detailed documentation, see the individual package documentation.
package internal
