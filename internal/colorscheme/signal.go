// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package colorscheme

import (
	"slices"
	"sync"
)

// Signal is a settable in-memory MediaQueryList supporting both subscription styles.
type Signal struct {
	mu        sync.Mutex
	media     string
	matches   bool
	listeners []*Listener
}

// NewSignal creates a signal for Query with the given initial state.
func NewSignal(dark bool) *Signal {
	return &Signal{media: Query, matches: dark}
}

// Media implements MediaQueryList.
func (s *Signal) Media() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.media
}

// Matches implements MediaQueryList.
func (s *Signal) Matches() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matches
}

// Set updates the preference and notifies listeners when it changed.
func (s *Signal) Set(dark bool) {
	s.mu.Lock()
	if s.matches == dark {
		s.mu.Unlock()
		return
	}
	s.matches = dark
	ev := ChangeEvent{Media: s.media, Matches: dark}
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.Notify(ev)
	}
}

// Listeners returns the number of active subscriptions.
func (s *Signal) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// AddEventListener implements EventTarget. Only "change" events are delivered.
func (s *Signal) AddEventListener(event string, l *Listener) {
	if event != "change" {
		return
	}
	s.AddListener(l)
}

// RemoveEventListener implements EventTarget.
func (s *Signal) RemoveEventListener(event string, l *Listener) {
	if event != "change" {
		return
	}
	s.RemoveListener(l)
}

// AddListener implements LegacyListenerTarget. Adding the same handle twice is a no-op.
func (s *Signal) AddListener(l *Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.listeners, l) {
		s.listeners = append(s.listeners, l)
	}
}

// RemoveListener implements LegacyListenerTarget.
func (s *Signal) RemoveListener(l *Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = slices.DeleteFunc(s.listeners, func(x *Listener) bool { return x == l })
}

// Static is a fixed MediaQueryList without subscriptions, e.g. built from a
// request client hint.
type Static struct {
	Dark bool
}

// Media implements MediaQueryList.
func (Static) Media() string { return Query }

// Matches implements MediaQueryList.
func (s Static) Matches() bool { return s.Dark }

var (
	_ EventTarget          = (*Signal)(nil)
	_ LegacyListenerTarget = (*Signal)(nil)
	_ MediaQueryList       = Static{}
)
