// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package document

import (
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
)

// Memory is a thread-safe in-memory document. The server uses it to pre-render
// the <html> element; tests use it to observe applicator output.
type Memory struct {
	mu          sync.Mutex
	attrs       map[string]string
	classes     []string
	colorScheme string
	styles      map[StyleHandle]string
	nextStyle   StyleHandle
	reflows     int
	owner       string
}

// NewMemory creates an empty document.
func NewMemory() *Memory {
	return &Memory{
		attrs:  make(map[string]string),
		styles: make(map[StyleHandle]string),
	}
}

// Root implements Document.
func (m *Memory) Root() Element {
	return (*memoryRoot)(m)
}

// InsertStyle implements Document.
func (m *Memory) InsertStyle(css string) StyleHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextStyle++
	m.styles[m.nextStyle] = css
	return m.nextStyle
}

// RemoveStyle implements Document.
func (m *Memory) RemoveStyle(h StyleHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.styles, h)
}

// ForceReflow implements Document.
func (m *Memory) ForceReflow() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reflows++
}

// Claim implements Claimer.
func (m *Memory) Claim(owner string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner != "" && m.owner != owner {
		return false
	}
	m.owner = owner
	return true
}

// Release implements Claimer.
func (m *Memory) Release(owner string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner == owner {
		m.owner = ""
	}
}

// Styles returns the style rules currently in the head.
func (m *Memory) Styles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	handles := slices.Sorted(maps.Keys(m.styles))
	out := make([]string, 0, len(handles))
	for _, h := range handles {
		out = append(out, m.styles[h])
	}
	return out
}

// Reflows returns how many times a reflow was forced.
func (m *Memory) Reflows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reflows
}

// Snapshot is the observable theme state of a root element.
type Snapshot struct {
	Attributes  map[string]string
	Classes     []string
	ColorScheme string
}

// Snapshot captures the root element state. Classes are sorted.
func (m *Memory) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	classes := slices.Clone(m.classes)
	sort.Strings(classes)
	return Snapshot{
		Attributes:  maps.Clone(m.attrs),
		Classes:     classes,
		ColorScheme: m.colorScheme,
	}
}

// ClassAttr renders the class list as an attribute value.
func (s Snapshot) ClassAttr() string {
	return strings.Join(s.Classes, " ")
}

// memoryRoot exposes Memory as its own root element.
type memoryRoot Memory

func (r *memoryRoot) SetAttribute(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attrs[name] = value
}

func (r *memoryRoot) RemoveAttribute(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attrs, name)
}

func (r *memoryRoot) Attribute(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.attrs[name]
	return v, ok
}

func (r *memoryRoot) AddClass(tokens ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tokens {
		if t != "" && !slices.Contains(r.classes, t) {
			r.classes = append(r.classes, t)
		}
	}
}

func (r *memoryRoot) RemoveClass(tokens ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes = slices.DeleteFunc(r.classes, func(c string) bool {
		return slices.Contains(tokens, c)
	})
}

func (r *memoryRoot) HasClass(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.classes, token)
}

func (r *memoryRoot) SetColorScheme(value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.colorScheme = value
}

func (r *memoryRoot) ColorScheme() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.colorScheme
}

// Ensure Memory implements Document and Claimer.
var (
	_ Document = (*Memory)(nil)
	_ Claimer  = (*Memory)(nil)
)
