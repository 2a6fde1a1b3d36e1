// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package colorscheme observes the operating system "prefers dark" signal.
//
// Hosts expose the signal either through a modern event-target style
// subscription or through the legacy addListener/removeListener pair.
// Observe hides the difference from callers.
package colorscheme

import (
	"sync"

	"github.com/olegiv/themesync/internal/theme"
)

// Query is the media query describing a dark preference.
const Query = "(prefers-color-scheme: dark)"

// ChangeEvent is the payload delivered to listeners.
type ChangeEvent struct {
	Media   string
	Matches bool
}

// Listener is a subscription handle. Pointers are compared on removal, so the
// same *Listener must be passed to add and remove.
type Listener struct {
	fn func(ChangeEvent)
}

// NewListener wraps fn in a handle.
func NewListener(fn func(ChangeEvent)) *Listener {
	return &Listener{fn: fn}
}

// Notify invokes the wrapped callback.
func (l *Listener) Notify(ev ChangeEvent) {
	if l != nil && l.fn != nil {
		l.fn(ev)
	}
}

// MediaQueryList is the current state of the query.
type MediaQueryList interface {
	Media() string
	Matches() bool
}

// EventTarget is the modern subscription style.
type EventTarget interface {
	AddEventListener(event string, l *Listener)
	RemoveEventListener(event string, l *Listener)
}

// LegacyListenerTarget is the deprecated subscription style still found on older hosts.
type LegacyListenerTarget interface {
	AddListener(l *Listener)
	RemoveListener(l *Listener)
}

// Detect maps the query state to light or dark. A host that reports a media string
// other than Query did not understand the query and is treated as dark, the same
// rule the bootstrap script applies.
func Detect(mql MediaQueryList) theme.Name {
	if mql == nil {
		return theme.Light
	}
	return detect(mql.Media(), mql.Matches())
}

// DetectEvent is Detect for a change payload.
func DetectEvent(ev ChangeEvent) theme.Name {
	return detect(ev.Media, ev.Matches)
}

func detect(media string, matches bool) theme.Name {
	if media != Query || matches {
		return theme.Dark
	}
	return theme.Light
}

// Observe subscribes fn to changes of mql, preferring the modern style and
// falling back to the legacy one. The returned function unsubscribes and is safe
// to call more than once. When mql supports neither style, Observe subscribes
// nothing and returns a no-op.
func Observe(mql MediaQueryList, fn func(theme.Name)) (stop func()) {
	l := NewListener(func(ev ChangeEvent) { fn(DetectEvent(ev)) })

	switch target := mql.(type) {
	case EventTarget:
		target.AddEventListener("change", l)
		return sync.OnceFunc(func() { target.RemoveEventListener("change", l) })
	case LegacyListenerTarget:
		target.AddListener(l)
		return sync.OnceFunc(func() { target.RemoveListener(l) })
	default:
		return func() {}
	}
}
