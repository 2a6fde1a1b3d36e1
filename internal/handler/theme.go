// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides HTTP handlers for the theme page, the theme API and
// the health endpoints.
package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/themesync/internal/bootstrap"
	"github.com/olegiv/themesync/internal/broadcast"
	"github.com/olegiv/themesync/internal/colorscheme"
	"github.com/olegiv/themesync/internal/document"
	"github.com/olegiv/themesync/internal/middleware"
	"github.com/olegiv/themesync/internal/preference"
	"github.com/olegiv/themesync/internal/provider"
	"github.com/olegiv/themesync/internal/render"
	"github.com/olegiv/themesync/internal/session"
	"github.com/olegiv/themesync/internal/theme"
)

// EventsPath is where the page subscribes to preference changes.
const EventsPath = "/api/theme/events"

// anonymousVisitor scopes requests that reach the handlers without a session.
const anonymousVisitor = "anonymous"

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 10

// serverOrigin tags events published by the handlers themselves rather than a provider.
const serverOrigin = "server"

// ThemeOptions wires a ThemeHandler.
type ThemeOptions struct {
	Config   theme.Config
	Store    preference.Store
	Channel  broadcast.Channel
	Renderer *render.Renderer
	Logger   *slog.Logger
	Version  string

	// Heartbeat is the interval between keep-alive comments on event streams.
	Heartbeat time.Duration
}

// ThemeHandler serves the theme page and the per-visitor theme API. Each request
// works on a short-lived provider mounted on an in-memory document.
type ThemeHandler struct {
	cfg       theme.Config
	store     preference.Store
	channel   broadcast.Channel
	renderer  *render.Renderer
	logger    *slog.Logger
	version   string
	heartbeat time.Duration
	script    string
}

// NewThemeHandler creates a ThemeHandler. The bootstrap script is generated once
// here, so an invalid configuration fails at startup.
func NewThemeHandler(opts ThemeOptions) (*ThemeHandler, error) {
	script, err := bootstrap.Script(opts.Config)
	if err != nil {
		return nil, fmt.Errorf("generating bootstrap script: %w", err)
	}

	h := &ThemeHandler{
		cfg:       opts.Config,
		store:     opts.Store,
		channel:   opts.Channel,
		renderer:  opts.Renderer,
		logger:    opts.Logger,
		version:   opts.Version,
		heartbeat: opts.Heartbeat,
		script:    script,
	}
	if h.store == nil {
		h.store = preference.NewMemoryStore()
	}
	if h.renderer == nil {
		h.renderer = render.New(render.Config{})
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.heartbeat <= 0 {
		h.heartbeat = 25 * time.Second
	}
	return h, nil
}

// themeRequest is the body of PUT /api/theme.
type themeRequest struct {
	Theme string `json:"theme"`
}

func visitorID(r *http.Request) string {
	if id := session.FromContext(r.Context()); id != "" {
		return id
	}
	return anonymousVisitor
}

func (h *ThemeHandler) visitorStore(r *http.Request) preference.Store {
	return preference.Prefixed(h.store, visitorID(r)+":")
}

// mount starts a provider for the requesting visitor. The OS preference comes
// from the color-scheme client hint, light when absent.
func (h *ThemeHandler) mount(r *http.Request, store preference.Store, sync bool) (*provider.Provider, *document.Memory, error) {
	doc := document.NewMemory()
	opts := provider.Options{
		Document:       doc,
		Store:          store,
		Topic:          visitorID(r),
		MediaQueryList: colorscheme.StaticFromRequest(r),
		Scheduler:      &document.ManualScheduler{},
		Logger:         h.logger,
	}
	if sync {
		opts.Channel = h.channel
	}
	p, err := provider.Mount(r.Context(), h.cfg, opts)
	if err != nil {
		return nil, nil, err
	}
	return p, doc, nil
}

// state returns the visitor's current theme state.
func (h *ThemeHandler) state(r *http.Request) (theme.State, error) {
	p, _, err := h.mount(r, h.visitorStore(r), false)
	if err != nil {
		return theme.State{}, err
	}
	defer p.Unmount()
	return p.State(), nil
}

// validate accepts the configured themes, plus system when enabled.
func (h *ThemeHandler) validate(name theme.Name) error {
	if h.cfg.IsTheme(name) || (name == theme.System && h.cfg.EnableSystem) {
		return nil
	}
	return fmt.Errorf("%w: %q", theme.ErrUnknownTheme, name)
}

// set selects name for the visitor through a provider so the change is stored
// and announced to the visitor's other pages.
func (h *ThemeHandler) set(r *http.Request, name theme.Name) (theme.State, error) {
	if err := h.validate(name); err != nil {
		return theme.State{}, err
	}
	p, _, err := h.mount(r, h.visitorStore(r), true)
	if err != nil {
		return theme.State{}, err
	}
	defer p.Unmount()
	if err := p.SetTheme(r.Context(), name); err != nil {
		return theme.State{}, err
	}
	h.logger.Info("theme selected", "visitor", visitorID(r), "theme", name)
	return p.State(), nil
}

// reset clears the visitor's stored selection and announces the deletion.
func (h *ThemeHandler) reset(r *http.Request) (theme.State, error) {
	ctx := r.Context()
	if err := h.visitorStore(r).Delete(ctx, h.cfg.StorageKey); err != nil {
		h.logger.Warn("clearing theme preference", "visitor", visitorID(r), "error", err)
	}
	h.publish(ctx, visitorID(r), broadcast.Event{Key: h.cfg.StorageKey, Deleted: true, Origin: serverOrigin})
	return h.state(r)
}

// readStored returns the visitor's stored selection. known is false when the
// store failed, as opposed to holding nothing.
func (h *ThemeHandler) readStored(r *http.Request) (stored string, known bool) {
	v, err := h.visitorStore(r).Get(r.Context(), h.cfg.StorageKey)
	switch {
	case err == nil:
		return v, true
	case errors.Is(err, preference.ErrNotFound):
		return "", true
	default:
		h.logger.Warn("reading theme preference", "visitor", visitorID(r), "error", err)
		return "", false
	}
}

func (h *ThemeHandler) publish(ctx context.Context, topic string, ev broadcast.Event) {
	if h.channel == nil {
		return
	}
	if err := h.channel.Publish(ctx, topic, ev); err != nil {
		h.logger.Debug("publishing theme change", "error", err)
	}
}

// Page handles GET /. The root element is pre-rendered from the stored
// selection; the inline bootstrap script corrects it for the real OS preference.
func (h *ThemeHandler) Page(w http.ResponseWriter, r *http.Request) {
	stored, known := h.readStored(r)

	// The provider renders from the value read above instead of reading again.
	snapshot := preference.NewMemoryStore()
	if stored != "" {
		_ = snapshot.Set(r.Context(), h.cfg.StorageKey, stored)
	}
	p, doc, err := h.mount(r, snapshot, false)
	if err != nil {
		logAndInternalError(w, "failed to mount theme provider", "error", err)
		return
	}
	state := p.State()
	root := doc.Snapshot()
	p.Unmount()

	events := ""
	if h.channel != nil {
		events = EventsPath
	}

	node, err := render.Page(render.PageData{
		Title:         "Theme",
		Config:        h.cfg,
		State:         state,
		Root:          root,
		Stored:        stored,
		StoredUnknown: !known,
		Nonce:         middleware.Nonce(r.Context()),
		EventsURL:     events,
		Flash:         h.renderer.PopFlash(r),
		Version:       h.version,
	})
	if err != nil {
		logAndInternalError(w, "failed to build theme page", "error", err)
		return
	}
	if err := h.renderer.HTML(w, http.StatusOK, node); err != nil {
		logAndInternalError(w, "failed to render theme page", "error", err)
	}
}

// Submit handles POST /theme from the page form. An empty theme clears the
// stored selection.
func (h *ThemeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, "/", "Invalid form data")
		return
	}

	name := theme.Name(strings.TrimSpace(r.PostForm.Get("theme")))
	if name == "" {
		if _, err := h.reset(r); err != nil {
			logAndInternalError(w, "failed to reset theme", "error", err)
			return
		}
		flashSuccess(w, r, h.renderer, "/", "Theme preference cleared")
		return
	}

	if _, err := h.set(r, name); err != nil {
		if errors.Is(err, theme.ErrUnknownTheme) {
			flashError(w, r, h.renderer, "/", "Unknown theme: "+string(name))
			return
		}
		logAndInternalError(w, "failed to set theme", "error", err)
		return
	}
	flashSuccess(w, r, h.renderer, "/", "Theme set to "+string(name))
}

// Get handles GET /api/theme.
func (h *ThemeHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, err := h.state(r)
	if err != nil {
		h.logger.Error("failed to read theme state", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to read theme state")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Put handles PUT /api/theme with a {"theme": "..."} body.
func (h *ThemeHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	name := theme.Name(strings.TrimSpace(req.Theme))
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "theme is required")
		return
	}

	state, err := h.set(r, name)
	if err != nil {
		if errors.Is(err, theme.ErrUnknownTheme) {
			writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.Error("failed to set theme", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to set theme")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Delete handles DELETE /api/theme.
func (h *ThemeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	state, err := h.reset(r)
	if err != nil {
		h.logger.Error("failed to reset theme", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to reset theme")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Events handles GET /api/theme/events, streaming the visitor's preference
// changes as server-sent events until the client disconnects.
func (h *ThemeHandler) Events(w http.ResponseWriter, r *http.Request) {
	if h.channel == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "sync unavailable")
		return
	}
	ctx := r.Context()
	visitor := visitorID(r)
	events := make(chan broadcast.Event, 16)
	sub, err := h.channel.Subscribe(ctx, visitor, func(ev broadcast.Event) {
		select {
		case events <- ev:
		default:
			h.logger.Warn("dropping theme event for slow client", "visitor", visitor)
		}
	})
	if err != nil {
		h.logger.Warn("subscribing to theme events", "visitor", visitor, "error", err)
		writeJSONError(w, http.StatusServiceUnavailable, "sync unavailable")
		return
	}
	defer func() { _ = sub.Close() }()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})
	_, _ = fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		h.logger.Warn("event stream cannot be flushed", "error", err)
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			_ = rc.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			_ = rc.Flush()
		}
	}
}

// Script handles GET /bootstrap.js, the bootstrap procedure as an external
// blocking script for pages that cannot inline it.
func (h *ThemeHandler) Script(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	_, _ = w.Write([]byte(h.script))
}

// ScriptETag identifies the generated bootstrap script for conditional requests.
func (h *ThemeHandler) ScriptETag() string {
	sum := sha256.Sum256([]byte(h.script))
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}
