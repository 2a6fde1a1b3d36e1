// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package document projects a resolved theme onto a document root element.
package document

import (
	"sync"
	"time"
)

// Element is the document root element as seen by the applicator.
type Element interface {
	SetAttribute(name, value string)
	RemoveAttribute(name string)
	Attribute(name string) (string, bool)

	AddClass(tokens ...string)
	RemoveClass(tokens ...string)
	HasClass(token string) bool

	// SetColorScheme sets the native color-scheme rendering hint.
	SetColorScheme(value string)
	ColorScheme() string
}

// StyleHandle identifies a style rule inserted with Document.InsertStyle.
type StyleHandle uint64

// Document is the host document. A missing root element is a precondition
// violation; implementations must always return one.
type Document interface {
	Root() Element

	// InsertStyle appends a style rule to the document head.
	InsertStyle(css string) StyleHandle

	// RemoveStyle removes a previously inserted rule. Unknown handles are ignored.
	RemoveStyle(h StyleHandle)

	// ForceReflow forces a synchronous style recalculation.
	ForceReflow()
}

// Claimer is implemented by documents that track which provider owns them.
// Claim returns false when another owner already holds the document.
type Claimer interface {
	Claim(owner string) bool
	Release(owner string)
}

// Scheduler defers work to a later tick.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// TimerScheduler runs deferred work on time.AfterFunc goroutines.
type TimerScheduler struct{}

// AfterFunc implements Scheduler.
func (TimerScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

// ManualScheduler queues deferred work until Flush is called.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []func()
}

// AfterFunc implements Scheduler.
func (s *ManualScheduler) AfterFunc(_ time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, f)
}

// Pending returns the number of queued callbacks.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush runs every queued callback in scheduling order.
func (s *ManualScheduler) Flush() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, f := range pending {
		f()
	}
}
