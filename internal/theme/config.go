// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package theme

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("invalid theme configuration")

	// ErrUnknownTheme is returned when a name is not one of the configured themes.
	ErrUnknownTheme = errors.New("unknown theme")
)

// AttributeStrategy selects how the resolved theme is attached to the root element:
// either a single named attribute or a CSS class.
type AttributeStrategy struct {
	class bool
	name  string
}

// Attribute returns a strategy writing the theme into the named attribute.
func Attribute(name string) AttributeStrategy {
	return AttributeStrategy{name: name}
}

// Class returns a strategy writing the theme as a CSS class.
func Class() AttributeStrategy {
	return AttributeStrategy{class: true}
}

// ParseAttribute maps "class" to Class and anything else to Attribute.
func ParseAttribute(s string) AttributeStrategy {
	s = strings.TrimSpace(s)
	if s == "class" {
		return Class()
	}
	return Attribute(s)
}

// IsClass reports whether the class strategy is used.
func (a AttributeStrategy) IsClass() bool {
	return a.class
}

// Name returns the attribute name, or "class" for the class strategy.
func (a AttributeStrategy) Name() string {
	if a.class {
		return "class"
	}
	return a.name
}

// Config is the per-provider configuration. Build it with NewConfig and treat it
// as read-only afterwards.
type Config struct {
	// Themes lists the selectable concrete themes, in order. It never contains System.
	Themes []Name

	// DefaultTheme is used when nothing is stored. It may be System.
	DefaultTheme Name

	// ForcedTheme, when non-empty, overrides every other input.
	ForcedTheme Name

	// EnableSystem makes System a legal selection.
	EnableSystem bool

	// EnableColorScheme lets the resolved theme drive the native color-scheme hint.
	EnableColorScheme bool

	// Attribute selects attribute or class projection.
	Attribute AttributeStrategy

	// ValueMap optionally renames themes on the document.
	ValueMap ValueMap

	// StorageKey is the preference slot name.
	StorageKey string

	// DisableTransitionOnChange suspends CSS transitions while applying.
	DisableTransitionOnChange bool

	// Nonce is copied onto the inline bootstrap script tag.
	Nonce string
}

// Option customizes a Config in NewConfig.
type Option func(*Config)

// WithThemes sets the selectable themes.
func WithThemes(names ...Name) Option {
	return func(c *Config) { c.Themes = slices.Clone(names) }
}

// WithDefaultTheme sets the theme used when nothing is stored.
func WithDefaultTheme(name Name) Option {
	return func(c *Config) { c.DefaultTheme = name }
}

// WithForcedTheme sets a theme that always wins.
func WithForcedTheme(name Name) Option {
	return func(c *Config) { c.ForcedTheme = name }
}

// WithSystem toggles the System selection.
func WithSystem(enabled bool) Option {
	return func(c *Config) { c.EnableSystem = enabled }
}

// WithColorScheme toggles the color-scheme hint.
func WithColorScheme(enabled bool) Option {
	return func(c *Config) { c.EnableColorScheme = enabled }
}

// WithAttribute sets the projection strategy.
func WithAttribute(a AttributeStrategy) Option {
	return func(c *Config) { c.Attribute = a }
}

// WithValueMap sets the theme to document token mapping.
func WithValueMap(m ValueMap) Option {
	return func(c *Config) { c.ValueMap = m }
}

// WithStorageKey sets the preference slot name.
func WithStorageKey(key string) Option {
	return func(c *Config) { c.StorageKey = key }
}

// WithTransitionsDisabled toggles transition suppression during application.
func WithTransitionsDisabled(disabled bool) Option {
	return func(c *Config) { c.DisableTransitionOnChange = disabled }
}

// WithNonce sets the CSP nonce for the inline bootstrap script.
func WithNonce(nonce string) Option {
	return func(c *Config) { c.Nonce = nonce }
}

// NewConfig returns a validated Config with the documented defaults applied:
// system and color-scheme enabled, attribute "data-theme", storage key "theme",
// themes light and dark, default theme system (light when system is disabled).
func NewConfig(opts ...Option) (Config, error) {
	c := Config{
		Themes:            []Name{Light, Dark},
		EnableSystem:      true,
		EnableColorScheme: true,
		Attribute:         Attribute(DefaultAttribute),
		StorageKey:        DefaultStorageKey,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.DefaultTheme == "" {
		if c.EnableSystem {
			c.DefaultTheme = System
		} else {
			c.DefaultTheme = Light
		}
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// MustConfig is NewConfig for static configurations; it panics on error.
func MustConfig(opts ...Option) Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if len(c.Themes) == 0 {
		return fmt.Errorf("%w: at least one theme is required", ErrInvalidConfig)
	}
	seen := make(map[Name]bool, len(c.Themes))
	for _, t := range c.Themes {
		switch {
		case t == "":
			return fmt.Errorf("%w: empty theme name", ErrInvalidConfig)
		case t == System:
			return fmt.Errorf("%w: %q is reserved and cannot be listed as a theme", ErrInvalidConfig, System)
		case seen[t]:
			return fmt.Errorf("%w: duplicate theme %q", ErrInvalidConfig, t)
		}
		seen[t] = true
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		return fmt.Errorf("%w: storage key is required", ErrInvalidConfig)
	}
	if !c.Attribute.IsClass() && strings.TrimSpace(c.Attribute.Name()) == "" {
		return fmt.Errorf("%w: attribute name is required", ErrInvalidConfig)
	}
	if c.DefaultTheme == System && !c.EnableSystem {
		return fmt.Errorf("%w: default theme %q requires system support", ErrInvalidConfig, System)
	}
	for _, e := range c.ValueMap.Entries() {
		if e.Theme == System {
			continue
		}
		if !seen[e.Theme] {
			return fmt.Errorf("%w: value map entry %q", ErrUnknownTheme, e.Theme)
		}
	}
	return nil
}

// IsTheme reports whether name is one of the configured concrete themes.
func (c Config) IsTheme(name Name) bool {
	return slices.Contains(c.Themes, name)
}

// SelectableThemes returns the configured themes with System appended when enabled.
func (c Config) SelectableThemes() []Name {
	out := slices.Clone(c.Themes)
	if c.EnableSystem {
		out = append(out, System)
	}
	return out
}

// Project returns the literal token written to the document for a resolved theme.
// With a ValueMap, a theme without an entry projects to "".
func (c Config) Project(resolved Name) string {
	if c.ValueMap.IsZero() {
		return string(resolved)
	}
	v, _ := c.ValueMap.Lookup(resolved)
	return v
}

// ClassTokens returns the mutually exclusive class tokens removed before a class
// is added: the ValueMap values when a map is set, the theme names otherwise.
func (c Config) ClassTokens() []string {
	if !c.ValueMap.IsZero() {
		return c.ValueMap.Values()
	}
	out := make([]string, 0, len(c.Themes))
	for _, t := range c.Themes {
		out = append(out, string(t))
	}
	return out
}

// ColorSchemeFor returns the color-scheme hint for a resolved theme: the theme itself
// when it is light or dark, else the default theme when that is light or dark.
// ok is false when the hint should be left untouched.
func (c Config) ColorSchemeFor(resolved Name) (Name, bool) {
	if IsColorScheme(resolved) {
		return resolved, true
	}
	if IsColorScheme(c.DefaultTheme) {
		return c.DefaultTheme, true
	}
	return "", false
}
