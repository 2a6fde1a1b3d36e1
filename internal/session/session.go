// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session issues the anonymous visitor identity preferences are scoped to.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
)

// visitorKey is the session key holding the visitor id.
const visitorKey = "visitor_id"

// Lifetime keeps visitors recognizable for as long as preferences are retained.
const Lifetime = 365 * 24 * time.Hour

// New creates a session manager backed by the sessions table.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()

	sm.Store = sqlite3store.New(db)

	sm.Lifetime = Lifetime
	sm.IdleTimeout = 0
	sm.Cookie.Name = "themesync_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Path = "/"
	sm.Cookie.Persist = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev // Secure cookies in production only
	if !isDev {
		sm.Cookie.Name = "__Host-themesync_session"
	}

	return sm
}

// VisitorID returns the visitor id of the request session, issuing one on first use.
// The request must pass through sm.LoadAndSave.
func VisitorID(ctx context.Context, sm *scs.SessionManager) string {
	if id := sm.GetString(ctx, visitorKey); id != "" {
		return id
	}
	id := uuid.NewString()
	sm.Put(ctx, visitorKey, id)
	return id
}

type ctxKey struct{}

// Visitor ensures every request carries a visitor id, available through FromContext.
func Visitor(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := VisitorID(r.Context(), sm)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
		})
	}
}

// FromContext returns the visitor id stored by Visitor.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// WithVisitor returns a context carrying id, for handlers tested without a session.
func WithVisitor(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}
