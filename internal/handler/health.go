// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"time"

	"github.com/olegiv/themesync/internal/preference"
	"github.com/olegiv/themesync/internal/version"
)

// pinger is implemented by stores backed by a remote service.
type pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        *sql.DB
	store     preference.Store
	info      preference.Info
	version   version.Info
	startTime time.Time
}

// NewHealthHandler creates a new health handler. db may be nil when the
// preference store does not use SQLite.
func NewHealthHandler(db *sql.DB, store preference.Store, info preference.Info, v version.Info) *HealthHandler {
	return &HealthHandler{
		db:        db,
		store:     store,
		info:      info,
		version:   v,
		startTime: time.Now(),
	}
}

// HealthStatus represents the overall health status.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Store     StoreStatus      `json:"store"`
	Checks    map[string]Check `json:"checks"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// StoreStatus describes the active preference backend.
type StoreStatus struct {
	preference.Info
	Stats *preference.Stats `json:"stats,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
}

// Health handles GET /health. A failing check answers 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Check{}
	if h.db != nil {
		checks["database"] = h.checkDatabase(r.Context())
	}
	if p, ok := h.store.(pinger); ok {
		checks["store"] = h.checkStore(r.Context(), p)
	}

	overall := "healthy"
	for _, c := range checks {
		if c.Status != "healthy" {
			overall = "degraded"
		}
	}

	status := HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version.String(),
		Store:     StoreStatus{Info: h.info},
		Checks:    checks,
	}
	if sp, ok := h.store.(preference.StatsProvider); ok {
		stats := sp.Stats()
		status.Store.Stats = &stats
	}
	if r.URL.Query().Get("verbose") == "true" {
		status.System = &SystemInfo{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			NumCPU:       runtime.NumCPU(),
		}
	}

	code := http.StatusOK
	if overall != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// Liveness handles GET /health/live - simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	start := time.Now()
	err := h.db.PingContext(ctx)
	return result(err, "Connected", time.Since(start))
}

func (h *HealthHandler) checkStore(ctx context.Context, p pinger) Check {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	start := time.Now()
	err := p.Ping(ctx)
	return result(err, "Reachable", time.Since(start))
}

func result(err error, ok string, latency time.Duration) Check {
	if err != nil {
		return Check{Status: "unhealthy", Message: err.Error(), Latency: latency.String()}
	}
	return Check{Status: "healthy", Message: ok, Latency: latency.String()}
}
