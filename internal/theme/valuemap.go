// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package theme

import (
	"fmt"
	"strings"
)

// ValueEntry maps one theme name to the literal token written to the document.
type ValueEntry struct {
	Theme Name
	Value string
}

// ValueMap is an ordered, immutable mapping from theme name to document token.
// The zero value is an empty map, which means "write theme names verbatim".
type ValueMap struct {
	entries []ValueEntry
	index   map[Name]string
}

// NewValueMap builds a ValueMap from entries. Later duplicates replace earlier ones
// but keep the position of the first occurrence.
func NewValueMap(entries ...ValueEntry) ValueMap {
	m := ValueMap{index: make(map[Name]string, len(entries))}
	for _, e := range entries {
		if _, ok := m.index[e.Theme]; ok {
			for i := range m.entries {
				if m.entries[i].Theme == e.Theme {
					m.entries[i].Value = e.Value
				}
			}
		} else {
			m.entries = append(m.entries, e)
		}
		m.index[e.Theme] = e.Value
	}
	return m
}

// ParseValueMap parses "theme:value" pairs separated by commas,
// e.g. "light:day,dark:night". An empty string yields an empty map.
func ParseValueMap(s string) (ValueMap, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ValueMap{}, nil
	}

	var entries []ValueEntry
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return ValueMap{}, fmt.Errorf("%w: malformed value map entry %q", ErrInvalidConfig, pair)
		}
		entries = append(entries, ValueEntry{Theme: Name(name), Value: strings.TrimSpace(value)})
	}
	return NewValueMap(entries...), nil
}

// Len returns the number of entries.
func (m ValueMap) Len() int {
	return len(m.entries)
}

// IsZero reports whether the map has no entries.
func (m ValueMap) IsZero() bool {
	return len(m.entries) == 0
}

// Lookup returns the token for name.
func (m ValueMap) Lookup(name Name) (string, bool) {
	v, ok := m.index[name]
	return v, ok
}

// Entries returns a copy of the entries in insertion order.
func (m ValueMap) Entries() []ValueEntry {
	out := make([]ValueEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Values returns the distinct non-empty tokens in insertion order.
func (m ValueMap) Values() []string {
	seen := make(map[string]bool, len(m.entries))
	var out []string
	for _, e := range m.entries {
		if e.Value == "" || seen[e.Value] {
			continue
		}
		seen[e.Value] = true
		out = append(out, e.Value)
	}
	return out
}
