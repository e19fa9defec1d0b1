package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"

	"github.com/KCuppens/bedrock-cms-sub001/internal/page"
	"github.com/KCuppens/bedrock-cms-sub001/internal/registry"
	"github.com/KCuppens/bedrock-cms-sub001/internal/renderer"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

func (s *PreviewServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.checkOrigin(r) {
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: false,
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "websocket upgrade failed")
		return
	}

	client := &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		server: s,
	}

	go client.writePump()
	go client.readPump()

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

// checkOrigin validates the request origin. Same-origin requests are
// always accepted; anything else must match the configured allowlist
// or the loopback forms of the bind address.
func (s *PreviewServer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return false
	}

	if originURL.Host == r.Host {
		return true
	}

	allowed := []string{
		s.config.Server.Address(),
		fmt.Sprintf("localhost:%d", s.config.Server.Port),
		fmt.Sprintf("127.0.0.1:%d", s.config.Server.Port),
	}
	for _, entry := range s.config.Server.AllowedOrigins {
		if u, err := url.Parse(entry); err == nil && u.Host != "" {
			allowed = append(allowed, u.Host)
		} else {
			allowed = append(allowed, entry)
		}
	}

	for _, host := range allowed {
		if originURL.Host == host {
			return true
		}
	}
	return false
}

func (s *PreviewServer) runWebSocketHub(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return

		case client := <-s.register:
			if client == nil || client.conn == nil {
				continue
			}
			s.clientsMutex.Lock()
			s.clients[client.conn] = client
			total := len(s.clients)
			s.clientsMutex.Unlock()
			s.logger.Debug(ctx, "websocket client connected", "total", total)

		case conn := <-s.unregister:
			if conn == nil {
				continue
			}
			s.clientsMutex.Lock()
			if client, ok := s.clients[conn]; ok {
				delete(s.clients, conn)
				close(client.send)
				conn.Close(websocket.StatusNormalClosure, "")
				s.logger.Debug(ctx, "websocket client disconnected", "total", len(s.clients))
			}
			s.clientsMutex.Unlock()

		case message := <-s.broadcast:
			s.clientsMutex.RLock()
			var failed []*websocket.Conn
			for conn, client := range s.clients {
				select {
				case client.send <- message:
				default:
					// Send buffer full; drop the client.
					failed = append(failed, conn)
				}
			}
			s.clientsMutex.RUnlock()

			if len(failed) > 0 {
				s.clientsMutex.Lock()
				for _, conn := range failed {
					if client, ok := s.clients[conn]; ok {
						delete(s.clients, conn)
						close(client.send)
						conn.Close(websocket.StatusNormalClosure, "")
					}
				}
				s.clientsMutex.Unlock()
			}
		}
	}
}

// broadcastMessage fans an update out to every connected client. Drops
// the message when the hub is saturated rather than blocking the
// caller.
func (s *PreviewServer) broadcastMessage(msg UpdateMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Warn(context.Background(), err, "dropping unmarshalable update", "type", msg.Type)
		return
	}

	select {
	case s.broadcast <- data:
	case <-s.done:
	default:
		s.logger.Debug(context.Background(), "broadcast queue full, dropping update", "type", msg.Type)
	}
}

// forwardRegistryEvents turns implementation resolutions into browser
// patches: a block that rendered as a pending placeholder gets its
// real fragment pushed the moment the loader settles.
func (s *PreviewServer) forwardRegistryEvents(ctx context.Context) {
	events := s.registry.Watch()
	defer s.registry.Unwatch(events)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			switch event.Type {
			case registry.EventResolved:
				s.pushBlockPatches(ctx, event.Block)
			case registry.EventFailed:
				s.broadcastMessage(UpdateMessage{
					Type:      msgBlockFailed,
					Target:    event.Block,
					Timestamp: time.Now(),
				})
			}
		}
	}
}

// pushBlockPatches re-renders every stored block backed by the freshly
// resolved implementation and ships each fragment addressed as
// "slug#blockID".
func (s *PreviewServer) pushBlockPatches(ctx context.Context, name string) {
	for _, p := range s.store.List() {
		for i, desc := range p.Blocks {
			if desc.ImplementationName() != name {
				continue
			}

			var buf bytes.Buffer
			if err := s.renderer.RenderBlock(ctx, &buf, desc, renderer.RenderOptions{}); err != nil {
				s.logger.Warn(ctx, err, "skipping block patch", "page", p.Slug, "block", name)
				continue
			}

			s.broadcastMessage(UpdateMessage{
				Type:      msgBlockUpdate,
				Target:    p.Slug + "#" + renderer.BlockIdentity(desc, i),
				Content:   buf.String(),
				Timestamp: time.Now(),
			})
		}
	}
}

// forwardPageEvents relays page store changes (API edits and external
// file edits alike) to connected browsers.
func (s *PreviewServer) forwardPageEvents(ctx context.Context) {
	events := s.store.Subscribe()
	defer s.store.Unsubscribe(events)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			msgType := msgPageUpdated
			if event.Type == page.EventRemoved {
				msgType = msgPageRemoved
			}
			s.broadcastMessage(UpdateMessage{
				Type:      msgType,
				Target:    event.Slug,
				Timestamp: time.Now(),
			})
		}
	}
}

// readPump drains the connection so close frames and pings are
// processed; inbound payloads are ignored.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.server.unregister <- c.conn:
		case <-c.server.done:
		}
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		readCtx, readCancel := context.WithTimeout(ctx, pongWait)
		_, _, err := c.conn.Read(readCtx)
		readCancel()

		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure &&
				websocket.CloseStatus(err) != websocket.StatusGoingAway {
				c.server.logger.Debug(ctx, "websocket read ended", "reason", err.Error())
			}
			break
		}
	}
}

// writePump pushes queued messages and keepalive pings to the peer.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := context.Background()

	for {
		select {
		case message, ok := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "")
				cancel()
				return
			}

			if err := c.conn.Write(writeCtx, websocket.MessageText, message); err != nil {
				cancel()
				return
			}
			cancel()

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			if err := c.conn.Ping(pingCtx); err != nil {
				cancel()
				return
			}
			cancel()
		}
	}
}
