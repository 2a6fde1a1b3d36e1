// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package preference

import (
	"context"
	"sync"
	"sync/atomic"
)

// MemoryStore keeps preferences in process memory. Values do not expire.
type MemoryStore struct {
	data   sync.Map
	closed atomic.Bool

	hits    atomic.Int64
	misses  atomic.Int64
	sets    atomic.Int64
	deletes atomic.Int64
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	v, ok := s.data.Load(key)
	if !ok {
		s.misses.Add(1)
		return "", ErrNotFound
	}
	s.hits.Add(1)
	return v.(string), nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.data.Store(key, value)
	s.sets.Add(1)
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.data.Delete(key)
	s.deletes.Add(1)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.closed.Store(true)
	return nil
}

// Stats implements StatsProvider.
func (s *MemoryStore) Stats() Stats {
	items := 0
	s.data.Range(func(_, _ any) bool {
		items++
		return true
	})
	return Stats{
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
		Sets:    s.sets.Load(),
		Deletes: s.deletes.Load(),
		Items:   items,
	}
}

// ResetStats implements StatsProvider.
func (s *MemoryStore) ResetStats() {
	s.hits.Store(0)
	s.misses.Store(0)
	s.sets.Store(0)
	s.deletes.Store(0)
}

var (
	_ Store         = (*MemoryStore)(nil)
	_ StatsProvider = (*MemoryStore)(nil)
)
