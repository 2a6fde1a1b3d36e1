// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package preference persists the selected theme in a single named slot.
package preference

import (
	"context"
	"errors"
	"log/slog"
)

// Store reads and writes preference slots. All implementations must be thread-safe.
type Store interface {
	// Get returns the stored value, or ErrNotFound when the slot is empty.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key.
	Set(ctx context.Context, key, value string) error

	// Delete empties the slot. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the store.
	Close() error
}

// StatsProvider is implemented by stores that count operations.
type StatsProvider interface {
	Stats() Stats
	ResetStats()
}

// Stats holds operation counters.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Sets    int64 `json:"sets"`
	Deletes int64 `json:"deletes"`
	Items   int   `json:"items"`
}

// Error is the error type for store sentinels.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrNotFound indicates the slot holds no value.
	ErrNotFound Error = "preference not found"

	// ErrClosed indicates the store has been closed.
	ErrClosed Error = "preference store closed"
)

// Read returns the stored value. Any failure, including a missing value, is
// reported as absent; storage errors never reach callers.
func Read(ctx context.Context, s Store, key string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, err := s.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Debug("preference read failed", "key", key, "error", err)
		}
		return "", false
	}
	if v == "" {
		return "", false
	}
	return v, true
}

// Write stores value and reports whether it succeeded. Failures are logged and swallowed.
func Write(ctx context.Context, s Store, key, value string) bool {
	if s == nil {
		return false
	}
	if err := s.Set(ctx, key, value); err != nil {
		slog.Debug("preference write failed", "key", key, "error", err)
		return false
	}
	return true
}

// prefixed scopes every key of an underlying store.
type prefixed struct {
	inner  Store
	prefix string
}

// Prefixed returns a view of s whose keys are prefixed, e.g. per visitor.
// Closing the view does not close s.
func Prefixed(s Store, prefix string) Store {
	return &prefixed{inner: s, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) (string, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.prefix+key)
}

func (p *prefixed) Close() error {
	return nil
}
