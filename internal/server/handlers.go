package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/KCuppens/bedrock-cms-sub001/internal/renderer"
	"github.com/KCuppens/bedrock-cms-sub001/internal/types"
	"github.com/KCuppens/bedrock-cms-sub001/internal/version"
)

const pageStyles = `<style>
    body {
        font-family: system-ui, -apple-system, sans-serif;
        margin: 0;
        background: #f5f6f8;
        color: #1f2430;
    }
    a { color: #007acc; }
    main.page { max-width: 960px; margin: 0 auto; padding: 24px; }
    .block-wrapper { position: relative; margin: 0 0 24px; }
    .block-wrapper.is-selected { outline: 2px solid #007acc; outline-offset: 4px; border-radius: 4px; }
    .block-pending {
        min-height: 48px;
        border-radius: 6px;
        background: #e8ecf1;
        animation: block-pulse 1.2s ease-in-out infinite;
    }
    @keyframes block-pulse {
        0%, 100% { opacity: 1; }
        50% { opacity: 0.55; }
    }
    .block-fallback {
        border: 1px dashed #d9534f;
        border-radius: 6px;
        padding: 12px;
        background: #fdf3f3;
        color: #8a1f1b;
        font-size: 14px;
    }
    .block-fallback pre { overflow-x: auto; font-size: 12px; }
    .status {
        position: fixed;
        top: 16px;
        right: 16px;
        padding: 6px 12px;
        border-radius: 4px;
        color: white;
        font-size: 12px;
        font-weight: 600;
        z-index: 1000;
    }
    .status.connected { background: #28a745; }
    .status.disconnected { background: #dc3545; }
</style>`

// liveScript is the websocket client embedded in every HTML page.
// Placeholders: page slug ("" on the index) and whether the page is an
// editor surface (editors reload on block patches instead of splicing
// non-editing markup into editing chrome).
const liveScript = `<script>
(function() {
    const pageSlug = %q;
    const editing = %t;
    let ws;
    let reconnectInterval;

    function setStatus(state) {
        const el = document.getElementById('status');
        if (!el) return;
        el.className = 'status ' + state;
        el.textContent = state;
    }

    function connect() {
        const protocol = window.location.protocol === 'https:' ? 'wss:' : 'ws:';
        ws = new WebSocket(protocol + '//' + window.location.host + '/ws');

        ws.onopen = function() {
            setStatus('connected');
            clearInterval(reconnectInterval);
        };
        ws.onclose = function() {
            setStatus('disconnected');
            reconnectInterval = setInterval(connect, 2000);
        };
        ws.onmessage = function(event) {
            handleMessage(JSON.parse(event.data));
        };
    }

    function handleMessage(message) {
        switch (message.type) {
        case 'block_update': {
            const sep = message.target.indexOf('#');
            const slug = message.target.slice(0, sep);
            const id = message.target.slice(sep + 1);
            if (pageSlug === '' || slug !== pageSlug) return;
            if (editing) { window.location.reload(); return; }
            const el = document.querySelector('[data-block-id="' + id + '"]');
            if (el) el.innerHTML = message.content;
            break;
        }
        case 'block_failed':
            if (document.querySelector('.block-pending')) window.location.reload();
            break;
        case 'page_updated':
            if (pageSlug === '' || message.target === pageSlug) window.location.reload();
            break;
        case 'page_removed':
            if (pageSlug === '') { window.location.reload(); break; }
            if (message.target === pageSlug) window.location.href = '/';
            break;
        }
    }

    connect();
})();
</script>`

func (s *PreviewServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	resolved := make(map[string]bool)
	for _, name := range s.registry.ResolvedTypes() {
		resolved[name] = true
	}
	stats := s.registry.Stats()

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head>
    <title>Bedrock - Pages</title>
`)
	b.WriteString(pageStyles)
	b.WriteString(`<style>
    .container { max-width: 960px; margin: 0 auto; padding: 24px; }
    h1 { border-bottom: 2px solid #007acc; padding-bottom: 10px; }
    table { width: 100%; border-collapse: collapse; background: white; border-radius: 6px; }
    th, td { text-align: left; padding: 10px 12px; border-bottom: 1px solid #e4e7ec; }
    .cards { display: grid; grid-template-columns: repeat(auto-fill, minmax(260px, 1fr)); gap: 16px; margin-top: 12px; }
    .card { background: white; border: 1px solid #e4e7ec; border-radius: 6px; padding: 14px; }
    .card .name { font-weight: 600; color: #007acc; }
    .card .meta { font-size: 12px; color: #667085; margin-top: 6px; }
    .badge { display: inline-block; font-size: 11px; padding: 2px 8px; border-radius: 10px; background: #eef2f6; margin-right: 6px; }
    .badge.ok { background: #e6f4ea; color: #1e7e34; }
    .failures { background: #fdf3f3; border: 1px solid #f0c4c2; border-radius: 6px; padding: 12px; margin-top: 16px; font-size: 13px; }
    form.create { margin: 12px 0; display: flex; gap: 8px; }
    form.create input { padding: 6px 8px; border: 1px solid #cfd6df; border-radius: 4px; }
</style>
</head>
<body>
<div class="container">
    <div id="status" class="status disconnected">disconnected</div>
    <h1>Bedrock</h1>
`)

	b.WriteString("<h2>Pages</h2>\n")
	pages := s.store.List()
	if len(pages) == 0 {
		b.WriteString("<p>No pages yet.</p>\n")
	} else {
		b.WriteString("<table><tr><th>Slug</th><th>Title</th><th>Blocks</th><th></th></tr>\n")
		for _, p := range pages {
			fmt.Fprintf(&b,
				`<tr><td><a href="/pages/%s">%s</a></td><td>%s</td><td>%d</td><td><a href="/editor/%s">Edit</a></td></tr>`+"\n",
				p.Slug, html.EscapeString(p.Slug), html.EscapeString(p.Title), len(p.Blocks), p.Slug)
		}
		b.WriteString("</table>\n")
	}

	b.WriteString(`<form class="create" id="create-page">
        <input name="slug" placeholder="slug" required pattern="[a-z0-9-]+">
        <input name="title" placeholder="Title">
        <button type="submit">Create page</button>
    </form>
`)

	fmt.Fprintf(&b, "<h2>Blocks</h2>\n<p>%d types, %d resolved, %d load failures</p>\n<div class=\"cards\">\n",
		stats.Known, stats.Resolved, stats.Failures)
	for _, name := range s.registry.KnownTypes() {
		cfg, ok := s.registry.Config(name)
		if !ok {
			continue
		}
		state := `<span class="badge">pending</span>`
		if resolved[name] {
			state = `<span class="badge ok">resolved</span>`
		}
		preloadBadge := ""
		if cfg.Preload {
			preloadBadge = `<span class="badge">preload</span>`
		}
		fmt.Fprintf(&b, `<div class="card">
            <div class="name">%s</div>
            <div class="meta">%s · %s · %s</div>
            <div class="meta">%s</div>
            <div class="meta">%s%s<a href="/api/blocks/%s/preview" target="_blank">Preview</a></div>
        </div>`+"\n",
			html.EscapeString(cfg.Label),
			html.EscapeString(cfg.Type),
			html.EscapeString(cfg.Category),
			html.EscapeString(string(cfg.EditingMode)),
			html.EscapeString(cfg.Description),
			state, preloadBadge, cfg.Type)
	}
	b.WriteString("</div>\n")

	if failures := s.renderer.Failures().Recent(); len(failures) > 0 {
		b.WriteString(`<div class="failures"><strong>Recent block failures</strong><ul>`)
		for _, f := range failures {
			fmt.Fprintf(&b, "<li>%s %s [%s] %s</li>",
				f.Timestamp.Format("15:04:05"),
				html.EscapeString(f.Err.Block),
				html.EscapeString(string(f.Err.Kind)),
				html.EscapeString(f.Err.Message))
		}
		b.WriteString("</ul></div>\n")
	}

	b.WriteString(`<script>
document.getElementById('create-page').addEventListener('submit', function(e) {
    e.preventDefault();
    const form = new FormData(e.target);
    fetch('/api/pages', {
        method: 'POST',
        headers: {'Content-Type': 'application/json'},
        body: JSON.stringify({slug: form.get('slug'), title: form.get('title')})
    }).then(function(resp) {
        if (resp.ok) { window.location.reload(); return; }
        resp.json().then(function(body) { alert(body.error || 'create failed'); });
    });
});
</script>
`)
	fmt.Fprintf(&b, liveScript, "", false)
	b.WriteString("</div>\n</body>\n</html>")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(b.String())); err != nil {
		s.logger.Debug(r.Context(), "writing index response failed", "error", err.Error())
	}
}

// handlePage serves the public render of one page. Unresolved blocks
// come out as placeholders and are patched over the websocket when
// their implementations settle.
func (s *PreviewServer) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	slug := strings.TrimPrefix(r.URL.Path, "/pages/")
	if slug == "" || strings.Contains(slug, "/") {
		http.NotFound(w, r)
		return
	}
	p, ok := s.store.Get(slug)
	if !ok {
		http.NotFound(w, r)
		return
	}

	var body bytes.Buffer
	states, err := s.renderer.RenderBlocks(r.Context(), &body, p.Blocks, renderer.DefaultContainerOptions())
	if err != nil {
		s.logger.Debug(r.Context(), "page render aborted", "page", slug, "error", err.Error())
		return
	}
	pending := 0
	for _, state := range states {
		if state == types.StatePending {
			pending++
		}
	}
	if pending > 0 {
		s.logger.Debug(r.Context(), "page rendered with placeholders", "page", slug, "pending", pending)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<!DOCTYPE html>
<html>
<head>
    <title>%s</title>
`, html.EscapeString(p.Title))
	b.WriteString(pageStyles)
	b.WriteString("</head>\n<body>\n")
	b.WriteString(`<div id="status" class="status disconnected">disconnected</div>` + "\n")
	b.WriteString(`<main class="page">` + "\n")
	b.Write(body.Bytes())
	b.WriteString("</main>\n")
	fmt.Fprintf(&b, liveScript, slug, false)
	b.WriteString("</body>\n</html>")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(b.String())); err != nil {
		s.logger.Debug(r.Context(), "writing page response failed", "page", slug, "error", err.Error())
	}
}

// handleEditor serves the editing surface: blocks rendered with editor
// affordances, a palette for adding blocks, and a props panel for the
// selected block.
func (s *PreviewServer) handleEditor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	slug := strings.TrimPrefix(r.URL.Path, "/editor/")
	if slug == "" || strings.Contains(slug, "/") {
		http.NotFound(w, r)
		return
	}
	p, ok := s.store.Get(slug)
	if !ok {
		http.NotFound(w, r)
		return
	}

	selected := -1
	if raw := r.URL.Query().Get("selected"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 && n < len(p.Blocks) {
			selected = n
		}
	}

	opts := renderer.ContainerOptions{
		IsEditing:     true,
		SelectedIndex: selected,
		WaitForAll:    true,
	}
	var body bytes.Buffer
	if _, err := s.renderer.RenderBlocks(r.Context(), &body, p.Blocks, opts); err != nil {
		s.logger.Debug(r.Context(), "editor render aborted", "page", slug, "error", err.Error())
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<!DOCTYPE html>
<html>
<head>
    <title>Edit: %s</title>
`, html.EscapeString(p.Title))
	b.WriteString(pageStyles)
	b.WriteString(`<style>
    .toolbar { background: white; border-bottom: 1px solid #e4e7ec; padding: 12px 24px; display: flex; align-items: center; gap: 16px; flex-wrap: wrap; }
    .toolbar h1 { font-size: 18px; margin: 0; }
    .toolbar .palette { display: flex; gap: 8px; flex-wrap: wrap; margin-left: auto; }
    .toolbar .palette button { padding: 6px 10px; border: 1px solid #cfd6df; border-radius: 4px; background: #f8fafc; cursor: pointer; }
    .layout { display: grid; grid-template-columns: 1fr 320px; gap: 24px; max-width: 1280px; margin: 0 auto; padding: 24px; }
    .panel { background: white; border: 1px solid #e4e7ec; border-radius: 6px; padding: 16px; align-self: start; position: sticky; top: 16px; }
    .panel textarea { width: 100%; font-family: ui-monospace, monospace; font-size: 12px; box-sizing: border-box; }
    .panel .actions { display: flex; gap: 8px; margin-top: 8px; }
    .panel button { padding: 6px 12px; border-radius: 4px; border: 1px solid #cfd6df; cursor: pointer; }
    .panel button.danger { border-color: #d9534f; color: #d9534f; background: white; }
    .block-wrapper { cursor: pointer; }
</style>
</head>
<body>
`)
	b.WriteString(`<div id="status" class="status disconnected">disconnected</div>` + "\n")

	fmt.Fprintf(&b, `<header class="toolbar">
    <h1>%s</h1>
    <a href="/">All pages</a>
    <a href="/pages/%s">View</a>
    <div class="palette">`, html.EscapeString(p.Title), slug)
	for _, name := range s.registry.KnownTypes() {
		cfg, ok := s.registry.Config(name)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, `<button data-add-type="%s">+ %s</button>`, cfg.Type, html.EscapeString(cfg.Label))
	}
	b.WriteString("</div>\n</header>\n")

	b.WriteString(`<div class="layout">` + "\n")
	b.WriteString(`<main class="page" id="blocks">` + "\n")
	b.Write(body.Bytes())
	b.WriteString("</main>\n")

	b.WriteString(`<aside class="panel">` + "\n")
	if selected >= 0 {
		desc := p.Blocks[selected]
		label := desc.ImplementationName()
		if cfg, ok := s.registry.Config(label); ok {
			label = cfg.Label
		}
		props := desc.Props
		if props == nil {
			props = map[string]any{}
		}
		propsJSON, err := json.MarshalIndent(props, "", "  ")
		if err != nil {
			propsJSON = []byte("{}")
		}
		fmt.Fprintf(&b, "<h2>%s</h2>\n", html.EscapeString(label))
		fmt.Fprintf(&b, `<textarea id="props-editor" rows="16" spellcheck="false">%s</textarea>`+"\n",
			html.EscapeString(string(propsJSON)))
		b.WriteString(`<div class="actions">
    <button id="save-props">Save</button>
    <button id="remove-block" class="danger">Remove</button>
</div>
`)
	} else {
		b.WriteString("<p>Select a block to edit its props.</p>\n")
	}
	b.WriteString("</aside>\n</div>\n")

	fmt.Fprintf(&b, editorScript, slug, selected)
	fmt.Fprintf(&b, liveScript, slug, true)
	b.WriteString("</body>\n</html>")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(b.String())); err != nil {
		s.logger.Debug(r.Context(), "writing editor response failed", "page", slug, "error", err.Error())
	}
}

// editorScript wires the palette, selection, and props panel to the
// JSON API. Placeholders: page slug, selected index.
const editorScript = `<script>
(function() {
    const slug = %q;
    const selected = %d;

    document.querySelectorAll('.block-wrapper').forEach(function(el, i) {
        el.addEventListener('click', function() {
            window.location.search = '?selected=' + i;
        });
    });

    document.querySelectorAll('[data-add-type]').forEach(function(btn) {
        btn.addEventListener('click', function() {
            fetch('/api/pages/' + slug + '/blocks', {
                method: 'POST',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify({type: btn.dataset.addType})
            }).then(function(resp) { return resp.json(); }).then(function(page) {
                if (page.error) { alert(page.error); return; }
                window.location.search = '?selected=' + (page.blocks.length - 1);
            });
        });
    });

    const save = document.getElementById('save-props');
    if (save) save.addEventListener('click', function() {
        let props;
        try {
            props = JSON.parse(document.getElementById('props-editor').value);
        } catch (err) {
            alert('Invalid JSON: ' + err.message);
            return;
        }
        fetch('/api/pages/' + slug + '/blocks/' + selected, {
            method: 'PUT',
            headers: {'Content-Type': 'application/json'},
            body: JSON.stringify(props)
        }).then(function(resp) {
            if (resp.ok) { window.location.reload(); return; }
            resp.json().then(function(body) { alert(body.error || 'save failed'); });
        });
    });

    const remove = document.getElementById('remove-block');
    if (remove) remove.addEventListener('click', function() {
        if (!confirm('Remove this block?')) return;
        fetch('/api/pages/' + slug + '/blocks/' + selected, {method: 'DELETE'})
            .then(function() { window.location.href = '/editor/' + slug; });
    });
})();
</script>`

// handleHealth returns the server health status for health checks.
func (s *PreviewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := s.registry.Stats()
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   version.GetShortVersion(),
		"checks": map[string]interface{}{
			"registry": map[string]interface{}{
				"status":   "healthy",
				"known":    stats.Known,
				"resolved": stats.Resolved,
				"failures": stats.Failures,
			},
			"pages": map[string]interface{}{
				"status": "healthy",
				"count":  len(s.store.Slugs()),
			},
		},
	}

	writeJSON(w, http.StatusOK, health)
}
