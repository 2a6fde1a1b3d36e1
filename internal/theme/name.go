// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package theme decides which concrete theme name is active for a document.
//
// A Config is built once per provider and never changes afterwards. Resolve is
// the pure decision function shared by the provider and, through the bootstrap
// generator, by the inline first-paint script.
package theme

// Name is a theme token. Equality is plain string equality.
type Name string

// Reserved and built-in theme names.
const (
	System Name = "system"
	Light  Name = "light"
	Dark   Name = "dark"
)

// DefaultStorageKey is the preference slot used when none is configured.
const DefaultStorageKey = "theme"

// DefaultAttribute is the root element attribute written when none is configured.
const DefaultAttribute = "data-theme"

// IsColorScheme reports whether name is one of the native color-scheme values.
func IsColorScheme(name Name) bool {
	return name == Light || name == Dark
}

// String implements fmt.Stringer.
func (n Name) String() string {
	return string(n)
}
