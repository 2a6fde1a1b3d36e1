// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package theme

// Resolve returns the concrete theme to apply.
//
// A non-empty forced theme always wins over the selection. The effective value is
// expanded to the system theme when it is System and system support is enabled;
// otherwise it is returned verbatim. An empty selection with no forced theme
// resolves to "", which callers treat as "apply nothing".
func Resolve(selected, forced, system Name, enableSystem bool) Name {
	effective := selected
	if forced != "" {
		effective = forced
	}
	if effective == System && enableSystem {
		return system
	}
	return effective
}

// State is the consumer-facing view of a provider.
type State struct {
	// Theme is the raw selection, possibly System.
	Theme Name `json:"theme"`

	// ResolvedTheme is Theme, or SystemTheme when Theme is System.
	ResolvedTheme Name `json:"resolvedTheme"`

	// SystemTheme is the OS preference; empty when system support is disabled.
	SystemTheme Name `json:"systemTheme,omitempty"`

	// ForcedTheme mirrors the forced override, if any.
	ForcedTheme Name `json:"forcedTheme,omitempty"`

	// Themes lists the selectable themes, System included when enabled.
	Themes []Name `json:"themes"`
}

// NewState derives the consumer view from a selection and the OS preference.
func NewState(c Config, selected, forced, system Name) State {
	s := State{
		Theme:         selected,
		ResolvedTheme: selected,
		ForcedTheme:   forced,
		Themes:        c.SelectableThemes(),
	}
	if c.EnableSystem {
		s.SystemTheme = system
		if selected == System {
			s.ResolvedTheme = system
		}
	}
	return s
}
