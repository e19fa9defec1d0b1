// Package server hosts the preview and editor surface for page
// documents: rendered pages, a block editor, a JSON API for page and
// block mutation, and a websocket channel that pushes block and page
// updates to connected browsers.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/KCuppens/bedrock-cms-sub001/internal/config"
	"github.com/KCuppens/bedrock-cms-sub001/internal/logging"
	"github.com/KCuppens/bedrock-cms-sub001/internal/mockdata"
	"github.com/KCuppens/bedrock-cms-sub001/internal/page"
	"github.com/KCuppens/bedrock-cms-sub001/internal/preload"
	"github.com/KCuppens/bedrock-cms-sub001/internal/registry"
	"github.com/KCuppens/bedrock-cms-sub001/internal/renderer"
	"github.com/KCuppens/bedrock-cms-sub001/internal/watcher"
)

// Client is one connected websocket peer.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *PreviewServer
}

// PreviewServer serves pages and the block editor with live updates.
type PreviewServer struct {
	config    *config.Config
	logger    logging.Logger
	registry  *registry.BlockRegistry
	renderer  *renderer.BlockRenderer
	store     *page.Store
	preloader *preload.Preloader
	sampler   *mockdata.Generator

	httpServer     *http.Server
	contentWatcher *watcher.ContentWatcher
	serverMutex    sync.RWMutex // protects httpServer and contentWatcher

	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex
	broadcast    chan []byte
	register     chan *Client
	unregister   chan *websocket.Conn

	shutdownOnce sync.Once
	done         chan struct{}
}

// UpdateMessage is the wire format pushed to websocket clients.
type UpdateMessage struct {
	Type      string    `json:"type"`
	Target    string    `json:"target,omitempty"`
	Content   string    `json:"content,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Websocket message types.
const (
	msgBlockUpdate = "block_update"
	msgBlockFailed = "block_failed"
	msgPageUpdated = "page_updated"
	msgPageRemoved = "page_removed"
)

// Deps are the collaborators a preview server is built from. Registry,
// Renderer and Store are required; the rest have working defaults.
type Deps struct {
	Logger    logging.Logger
	Registry  *registry.BlockRegistry
	Renderer  *renderer.BlockRenderer
	Store     *page.Store
	Preloader *preload.Preloader
	Sampler   *mockdata.Generator
}

// New creates a preview server. It does not start listening; call
// Start.
func New(cfg *config.Config, deps Deps) (*PreviewServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if deps.Renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("page store is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	sampler := deps.Sampler
	if sampler == nil {
		sampler = mockdata.NewGenerator()
	}

	return &PreviewServer{
		config:     cfg,
		logger:     logger.WithComponent("server"),
		registry:   deps.Registry,
		renderer:   deps.Renderer,
		store:      deps.Store,
		preloader:  deps.Preloader,
		sampler:    sampler,
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}, nil
}

// Handler builds the full route table wrapped in the middleware stack.
// Exposed separately from Start so tests can drive it with httptest.
func (s *PreviewServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/pages/", s.handlePage)
	mux.HandleFunc("/editor/", s.handleEditor)
	mux.HandleFunc("/api/pages", s.handlePages)
	mux.HandleFunc("/api/pages/", s.handlePageItem)
	mux.HandleFunc("/api/blocks", s.handleBlocks)
	mux.HandleFunc("/api/blocks/", s.handleBlockItem)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return s.addMiddleware(mux)
}

// Start runs the server until ctx is cancelled or Shutdown is called.
// It blocks.
func (s *PreviewServer) Start(ctx context.Context) error {
	handler := s.Handler()

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              s.config.Server.Address(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	go s.runWebSocketHub(ctx)
	go s.forwardRegistryEvents(ctx)
	go s.forwardPageEvents(ctx)

	if s.config.Content.Watch {
		w, err := s.store.WatchContent(ctx, s.config.Content.Debounce)
		if err != nil {
			s.logger.Warn(ctx, err, "content watching disabled")
		} else {
			s.serverMutex.Lock()
			s.contentWatcher = w
			s.serverMutex.Unlock()
		}
	}

	if s.preloader != nil && s.config.Preload.Enabled {
		s.preloader.Schedule(ctx, s.preloadHints())
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(context.Background(), err, "shutdown failed")
		}
	}()

	s.logger.Info(ctx, "preview server listening",
		"addr", server.Addr,
		"environment", s.config.Server.Environment,
		"pages", len(s.store.Slugs()),
		"blocks", len(s.registry.KnownTypes()))

	err := server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown stops the server and releases every resource it started.
// Safe to call more than once.
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "shutting down preview server")
		close(s.done)

		if s.preloader != nil {
			s.preloader.Stop()
		}

		s.serverMutex.RLock()
		contentWatcher := s.contentWatcher
		server := s.httpServer
		s.serverMutex.RUnlock()

		if contentWatcher != nil {
			contentWatcher.Stop()
		}

		s.clientsMutex.Lock()
		for conn, client := range s.clients {
			close(client.send)
			conn.Close(websocket.StatusNormalClosure, "")
		}
		s.clients = make(map[*websocket.Conn]*Client)
		s.clientsMutex.Unlock()

		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}

// preloadHints collects the implementation names used by stored pages
// so the warm-up covers what visitors will actually hit first.
func (s *PreviewServer) preloadHints() []string {
	seen := make(map[string]struct{})
	var hints []string
	for _, p := range s.store.List() {
		for _, desc := range p.Blocks {
			name := desc.ImplementationName()
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			hints = append(hints, name)
		}
	}
	sort.Strings(hints)
	return hints
}

func (s *PreviewServer) addMiddleware(handler http.Handler) http.Handler {
	recovered := s.recoverMiddleware(handler)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if s.isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if !s.config.IsProduction() {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		start := time.Now()
		recovered.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

// recoverMiddleware keeps a panicking handler from taking the process
// down. Block render panics never reach here (the renderer contains
// them); this covers the server's own handlers.
func (s *PreviewServer) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error(r.Context(), fmt.Errorf("panic: %v", rec),
					"handler panicked", "path", r.URL.Path)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// isAllowedOrigin checks the configured origin allowlist.
func (s *PreviewServer) isAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range s.config.Server.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}
