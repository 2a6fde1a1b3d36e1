// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render writes gomponents pages and carries flash messages across
// redirects in the visitor session.
package render

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	g "maragu.dev/gomponents"
)

// Renderer writes HTML responses.
type Renderer struct {
	sessionManager *scs.SessionManager
	isDev          bool
}

// Config holds renderer configuration.
type Config struct {
	SessionManager *scs.SessionManager
	IsDev          bool
}

// New creates a Renderer. A nil session manager disables flash messages.
func New(cfg Config) *Renderer {
	return &Renderer{
		sessionManager: cfg.SessionManager,
		isDev:          cfg.IsDev,
	}
}

// Flash is a one-shot message shown on the next page view.
type Flash struct {
	Message string
	Type    string
}

// HTML renders node with the given status. The node is rendered to a buffer
// first so a failure leaves the response untouched.
func (r *Renderer) HTML(w http.ResponseWriter, status int, node g.Node) error {
	buf := new(bytes.Buffer)
	if err := node.Render(buf); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if !r.isDev {
		w.Header().Set("Cache-Control", "no-store")
	}
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}

// SetFlash sets a flash message in the session.
func (r *Renderer) SetFlash(req *http.Request, message, flashType string) {
	if r.sessionManager != nil {
		r.sessionManager.Put(req.Context(), "flash", message)
		r.sessionManager.Put(req.Context(), "flash_type", flashType)
	}
}

// PopFlash returns and clears the pending flash message.
func (r *Renderer) PopFlash(req *http.Request) Flash {
	if r.sessionManager == nil {
		return Flash{}
	}
	msg := r.sessionManager.PopString(req.Context(), "flash")
	if msg == "" {
		return Flash{}
	}
	typ := r.sessionManager.PopString(req.Context(), "flash_type")
	if typ == "" {
		typ = "info"
	}
	return Flash{Message: msg, Type: typ}
}
