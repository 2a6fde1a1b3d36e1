// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package bootstrap generates the inline script that applies the stored theme
// before the page renders, so the first paint already shows the right theme.
//
// The script is rendered from the same theme.Config the provider uses and
// makes the same decision the provider makes on mount:
//
//	forced theme set          -> apply it (a forced "system" follows the OS)
//	stored "system" or absent
//	  with a "system" default -> follow the OS preference
//	stored value present      -> apply it literally, mapped through the value map
//	absent, concrete default  -> apply the default, leave the color-scheme alone
//
// Every storage and media read happens before the document is touched, and
// any exception is swallowed so a broken storage never breaks the page.
package bootstrap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/olegiv/themesync/internal/colorscheme"
	"github.com/olegiv/themesync/internal/theme"
)

type mode int

const (
	modeForced mode = iota
	modeSystem
	modeStored
)

// plan is the decision table of one configuration with every literal
// already encoded as a JavaScript expression.
type plan struct {
	Mode mode

	StorageKey string
	// SystemCond is the condition on the stored value e that selects the
	// OS branch; empty when system support is disabled.
	SystemCond string

	Query       string
	DarkValue   string
	LightValue  string
	DarkScheme  string
	LightScheme string

	ForcedValue  string
	ForcedScheme string

	// ValueMap is a JSON array of [theme, token] pairs; empty without a map.
	ValueMap       string
	FallbackScheme string
	DefaultValue   string

	ColorScheme bool
	Class       bool
	Tokens      string
	Attr        string
}

var scriptTmpl = template.Must(template.New("bootstrap").Parse(strings.Join([]string{
	`(function(){try{var r=document.documentElement,v="",s="";`,
	`{{if eq .Mode 0}}v={{.ForcedValue}};s={{.ForcedScheme}};`,
	`{{else if eq .Mode 1}}{{template "system" .}}`,
	`{{else}}var e=localStorage.getItem({{.StorageKey}});`,
	`{{if .SystemCond}}if({{.SystemCond}}){{"{"}}{{template "system" .}}}else {{end}}`,
	`if(e){{"{"}}{{if .ValueMap}}var x={{.ValueMap}};for(var i=0;i<x.length;i++)if(x[i][0]===e)v=x[i][1];{{else}}v=e;{{end}}`,
	`{{if .ColorScheme}}s=e==="light"||e==="dark"?e:{{.FallbackScheme}};{{end}}}`,
	`else v={{.DefaultValue}};`,
	`{{end}}`,
	`{{if .Class}}var c=r.classList;c.remove.apply(c,{{.Tokens}});if(v)c.add(v);`,
	`{{else}}if(v)r.setAttribute({{.Attr}},v);else r.removeAttribute({{.Attr}});{{end}}`,
	`{{if .ColorScheme}}if(s)r.style.colorScheme=s;{{end}}`,
	`}catch(_){}})();`,
	`{{define "system"}}var t={{.Query}},m=window.matchMedia(t),k=m.media!==t||m.matches;v=k?{{.DarkValue}}:{{.LightValue}};s=k?{{.DarkScheme}}:{{.LightScheme}};{{end}}`,
}, "")))

// Script renders the bootstrap procedure for cfg. The output has no external
// references and is safe to inline in every page.
func Script(cfg theme.Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	p, err := newPlan(cfg)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := scriptTmpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("rendering bootstrap script: %w", err)
	}
	return buf.String(), nil
}

// MustScript is like Script but panics on an invalid configuration.
func MustScript(cfg theme.Config) string {
	s, err := Script(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

func newPlan(cfg theme.Config) (plan, error) {
	var (
		p   plan
		err error
	)
	lit := func(v any) string {
		if err != nil {
			return ""
		}
		var b []byte
		b, err = json.Marshal(v)
		return string(b)
	}
	scheme := func(resolved theme.Name) string {
		if !cfg.EnableColorScheme {
			return lit("")
		}
		cs, _ := cfg.ColorSchemeFor(resolved)
		return lit(string(cs))
	}

	p.ColorScheme = cfg.EnableColorScheme
	p.Class = cfg.Attribute.IsClass()
	p.Tokens = lit(cfg.ClassTokens())
	p.Attr = lit(cfg.Attribute.Name())
	p.StorageKey = lit(cfg.StorageKey)

	p.Query = lit(colorscheme.Query)
	p.DarkValue = lit(cfg.Project(theme.Dark))
	p.LightValue = lit(cfg.Project(theme.Light))
	p.DarkScheme = scheme(theme.Dark)
	p.LightScheme = scheme(theme.Light)

	switch {
	case cfg.ForcedTheme == theme.System && cfg.EnableSystem:
		p.Mode = modeSystem
	case cfg.ForcedTheme != "":
		p.Mode = modeForced
		p.ForcedValue = lit(cfg.Project(cfg.ForcedTheme))
		p.ForcedScheme = scheme(cfg.ForcedTheme)
	default:
		p.Mode = modeStored
		if cfg.EnableSystem {
			p.SystemCond = `e==="system"`
			if cfg.DefaultTheme == theme.System {
				p.SystemCond = `!e||e==="system"`
			}
		}
		if !cfg.ValueMap.IsZero() {
			pairs := make([][2]string, 0, cfg.ValueMap.Len())
			for _, e := range cfg.ValueMap.Entries() {
				pairs = append(pairs, [2]string{string(e.Theme), e.Value})
			}
			p.ValueMap = lit(pairs)
		}
		fallback := ""
		if theme.IsColorScheme(cfg.DefaultTheme) {
			fallback = string(cfg.DefaultTheme)
		}
		p.FallbackScheme = lit(fallback)
		p.DefaultValue = lit(cfg.Project(cfg.DefaultTheme))
	}

	if err != nil {
		return plan{}, fmt.Errorf("encoding bootstrap literals: %w", err)
	}
	return p, nil
}
