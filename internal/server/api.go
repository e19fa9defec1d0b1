package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/KCuppens/bedrock-cms-sub001/internal/page"
	"github.com/KCuppens/bedrock-cms-sub001/internal/renderer"
	"github.com/KCuppens/bedrock-cms-sub001/internal/types"
	"github.com/KCuppens/bedrock-cms-sub001/internal/validation"
)

// previewTimeout bounds how long a block preview waits for an
// implementation to resolve before giving up.
const previewTimeout = 10 * time.Second

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // status is already written; nothing left to report
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// storeError maps the store's sentinel errors onto HTTP statuses.
func storeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, page.ErrPageNotFound):
		status = http.StatusNotFound
	case errors.Is(err, page.ErrPageExists):
		status = http.StatusConflict
	case errors.Is(err, page.ErrBlockOutOfRange):
		status = http.StatusBadRequest
	}
	writeError(w, status, err.Error())
}

// handlePages serves the page collection: GET lists, POST creates.
func (s *PreviewServer) handlePages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.store.List())
	case http.MethodPost:
		var req struct {
			Slug  string `json:"slug"`
			Title string `json:"title"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := validation.ValidateSlug(req.Slug); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		p, err := s.store.Create(req.Slug, req.Title)
		if err != nil {
			storeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handlePageItem routes /api/pages/{slug}[/blocks[/{index}]].
func (s *PreviewServer) handlePageItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/pages/"), "/")
	if rest == "" {
		writeError(w, http.StatusNotFound, "page slug required")
		return
	}
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1:
		s.handlePageResource(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "blocks":
		s.handlePageBlocks(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "blocks":
		s.handlePageBlock(w, r, parts[0], parts[2])
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *PreviewServer) handlePageResource(w http.ResponseWriter, r *http.Request, slug string) {
	switch r.Method {
	case http.MethodGet:
		p, ok := s.store.Get(slug)
		if !ok {
			writeError(w, http.StatusNotFound, "page not found")
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodDelete:
		if err := s.store.Delete(slug); err != nil {
			storeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handlePageBlocks works on a page's block list as a whole: GET reads
// it, POST inserts one block (appending when no index is given), PUT
// replaces the entire list.
func (s *PreviewServer) handlePageBlocks(w http.ResponseWriter, r *http.Request, slug string) {
	switch r.Method {
	case http.MethodGet:
		p, ok := s.store.Get(slug)
		if !ok {
			writeError(w, http.StatusNotFound, "page not found")
			return
		}
		writeJSON(w, http.StatusOK, p.Blocks)
	case http.MethodPost:
		var req struct {
			Index     *int           `json:"index"`
			Type      string         `json:"type"`
			Component string         `json:"component"`
			Props     map[string]any `json:"props"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		desc := types.BlockDescriptor{Type: req.Type, Component: req.Component, Props: req.Props}
		if err := validation.ValidateTypeName(desc.ImplementationName()); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		p, ok := s.store.Get(slug)
		if !ok {
			writeError(w, http.StatusNotFound, "page not found")
			return
		}
		index := len(p.Blocks)
		if req.Index != nil {
			index = *req.Index
		}
		updated, err := s.store.InsertBlock(slug, index, desc)
		if err != nil {
			storeError(w, err)
			return
		}
		// Start the load now so the page render that follows the insert
		// is less likely to placeholder.
		s.registry.Load(desc.ImplementationName())
		writeJSON(w, http.StatusCreated, updated)
	case http.MethodPut:
		var blocks []types.BlockDescriptor
		if err := json.NewDecoder(r.Body).Decode(&blocks); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		updated, err := s.store.ReplaceBlocks(slug, blocks)
		if err != nil {
			storeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handlePageBlock updates or removes one block by index.
func (s *PreviewServer) handlePageBlock(w http.ResponseWriter, r *http.Request, slug, rawIndex string) {
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		writeError(w, http.StatusBadRequest, "block index must be an integer")
		return
	}
	switch r.Method {
	case http.MethodPut:
		var content map[string]any
		if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		updated, err := s.store.UpdateBlock(slug, index, content)
		if err != nil {
			storeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		updated, err := s.store.RemoveBlock(slug, index)
		if err != nil {
			storeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleBlocks lists the block catalog with registry state.
func (s *PreviewServer) handleBlocks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	names := s.registry.KnownTypes()
	configs := make([]types.BlockConfig, 0, len(names))
	for _, name := range names {
		if cfg, ok := s.registry.Config(name); ok {
			configs = append(configs, cfg)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"blocks":   configs,
		"resolved": s.registry.ResolvedTypes(),
		"stats":    s.registry.Stats(),
	})
}

// handleBlockItem routes /api/blocks/{name}[/preview].
func (s *PreviewServer) handleBlockItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/blocks/"), "/")
	if rest == "" {
		writeError(w, http.StatusNotFound, "block type required")
		return
	}
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1:
		cfg, ok := s.registry.Config(parts[0])
		if !ok {
			writeError(w, http.StatusNotFound, "unknown block type")
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	case len(parts) == 2 && parts[1] == "preview":
		s.handleBlockPreview(w, r, parts[0])
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// handleBlockPreview renders one block with generated sample props,
// waiting for the implementation to resolve. Lets a block be eyeballed
// without composing a page around it.
func (s *PreviewServer) handleBlockPreview(w http.ResponseWriter, r *http.Request, name string) {
	cfg, ok := s.registry.Config(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown block type")
		return
	}

	desc := types.BlockDescriptor{
		Type:  name,
		Props: s.sampler.PropsFor(cfg.DefaultProps),
	}

	ctx, cancel := context.WithTimeout(r.Context(), previewTimeout)
	defer cancel()

	var fragment bytes.Buffer
	if err := s.renderer.RenderBlock(ctx, &fragment, desc, renderer.RenderOptions{}); err != nil {
		writeError(w, http.StatusGatewayTimeout, "block did not resolve in time")
		return
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString("    <title>Preview: " + html.EscapeString(cfg.Label) + "</title>\n")
	b.WriteString(pageStyles)
	b.WriteString("</head>\n<body>\n<main class=\"page\">\n")
	b.Write(fragment.Bytes())
	b.WriteString("\n</main>\n</body>\n</html>")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(b.String())); err != nil {
		s.logger.Debug(r.Context(), "writing preview response failed", "block", name, "error", err.Error())
	}
}
