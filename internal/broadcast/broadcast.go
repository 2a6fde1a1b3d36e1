// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package broadcast carries preference change events between provider
// instances that share a store, within one process or across processes.
package broadcast

import (
	"context"
	"sync"
	"sync/atomic"
)

// Event announces that a stored preference changed.
type Event struct {
	Key     string `json:"key"`
	Value   string `json:"value,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
	// Origin identifies the publisher so it can ignore its own events.
	Origin string `json:"origin"`
}

// Handler receives events. It may be called from any goroutine.
type Handler func(Event)

// Subscription is an active subscription.
type Subscription interface {
	Close() error
}

// Channel publishes and delivers events by topic.
type Channel interface {
	Publish(ctx context.Context, topic string, ev Event) error
	Subscribe(ctx context.Context, topic string, fn Handler) (Subscription, error)
}

// Error is the error type for channel sentinels.
type Error string

func (e Error) Error() string {
	return string(e)
}

// ErrClosed indicates the channel has been closed.
const ErrClosed Error = "broadcast channel closed"

// Hub is an in-process Channel. Publish delivers synchronously to every
// subscriber of the topic, the publisher's own subscriptions included.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*hubSub]struct{}
	closed atomic.Bool
}

type hubSub struct {
	hub   *Hub
	topic string
	fn    Handler
	once  sync.Once
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*hubSub]struct{})}
}

// Publish implements Channel.
func (h *Hub) Publish(_ context.Context, topic string, ev Event) error {
	if h.closed.Load() {
		return ErrClosed
	}

	h.mu.RLock()
	targets := make([]Handler, 0, len(h.subs[topic]))
	for s := range h.subs[topic] {
		targets = append(targets, s.fn)
	}
	h.mu.RUnlock()

	for _, fn := range targets {
		fn(ev)
	}
	return nil
}

// Subscribe implements Channel.
func (h *Hub) Subscribe(_ context.Context, topic string, fn Handler) (Subscription, error) {
	if h.closed.Load() {
		return nil, ErrClosed
	}

	s := &hubSub{hub: h, topic: topic, fn: fn}
	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*hubSub]struct{})
	}
	h.subs[topic][s] = struct{}{}
	h.mu.Unlock()
	return s, nil
}

// Subscribers returns the number of subscriptions on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}

// Close drops all subscriptions.
func (h *Hub) Close() error {
	if h.closed.CompareAndSwap(false, true) {
		h.mu.Lock()
		h.subs = make(map[string]map[*hubSub]struct{})
		h.mu.Unlock()
	}
	return nil
}

func (s *hubSub) Close() error {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		if m := s.hub.subs[s.topic]; m != nil {
			delete(m, s)
			if len(m) == 0 {
				delete(s.hub.subs, s.topic)
			}
		}
	})
	return nil
}

var _ Channel = (*Hub)(nil)
