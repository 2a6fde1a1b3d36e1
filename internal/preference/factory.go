// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package preference

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds configuration for store creation.
type Config struct {
	// Backend is one of "memory", "sqlite" or "redis".
	Backend string

	// DB is the migrated database used by the sqlite backend.
	DB *sql.DB

	// Redis configures the redis backend.
	Redis RedisOptions

	// FallbackToMemory selects the memory backend when the configured one
	// cannot be reached instead of failing.
	FallbackToMemory bool
}

// Info describes the store New actually created.
type Info struct {
	Backend    string `json:"backend"`
	IsFallback bool   `json:"is_fallback"`
}

// New creates a store based on the provided configuration.
func New(cfg Config) (Store, Info, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryStore(), Info{Backend: BackendMemory}, nil

	case BackendSQLite:
		if cfg.DB == nil {
			return fallback(cfg, errors.New("sqlite backend requires a database"))
		}
		return NewSQLiteStore(cfg.DB), Info{Backend: BackendSQLite}, nil

	case BackendRedis:
		s, err := NewRedisStore(cfg.Redis)
		if err != nil {
			return fallback(cfg, fmt.Errorf("connecting to redis: %w", err))
		}
		return s, Info{Backend: BackendRedis}, nil

	default:
		return nil, Info{}, fmt.Errorf("unknown preference backend %q", cfg.Backend)
	}
}

func fallback(cfg Config, err error) (Store, Info, error) {
	if !cfg.FallbackToMemory {
		return nil, Info{}, err
	}
	slog.Warn("preference backend unavailable, using memory", "backend", cfg.Backend, "error", err)
	return NewMemoryStore(), Info{Backend: BackendMemory, IsFallback: true}, nil
}
