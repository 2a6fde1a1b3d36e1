// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"encoding/json"
	"sort"
	"strings"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/olegiv/themesync/internal/bootstrap"
	"github.com/olegiv/themesync/internal/document"
	"github.com/olegiv/themesync/internal/theme"
)

// PageData is everything the theme page needs.
type PageData struct {
	Title string

	// Config is the theme configuration the bootstrap script is generated from.
	Config theme.Config

	// State is the view of the short-lived provider used to pre-render Root.
	State theme.State

	// Root is the pre-rendered state of the html element.
	Root document.Snapshot

	// Stored is the persisted selection mirrored into localStorage; empty clears it.
	Stored string

	// StoredUnknown omits the localStorage mirror when the server could not
	// read the selection, leaving the browser's own copy in place.
	StoredUnknown bool

	Nonce     string
	EventsURL string
	Flash     Flash
	Version   string
}

// Page renders the theme page. The seed and bootstrap scripts run before the
// body is parsed, so the root carries the right theme on first paint even when
// the server guessed the OS preference wrong.
func Page(d PageData) (g.Node, error) {
	cfg := d.Config
	cfg.Nonce = d.Nonce
	boot, err := bootstrap.Node(cfg)
	if err != nil {
		return nil, err
	}

	return h.Doctype(h.HTML(
		h.Lang("en"),
		rootAttrs(d.Root),
		h.Head(
			h.Meta(h.Charset("utf-8")),
			h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1")),
			g.If(cfg.EnableColorScheme, h.Meta(h.Name("color-scheme"), h.Content("light dark"))),
			h.TitleEl(g.Text(d.Title)),
			g.If(!d.StoredUnknown, bootstrap.InlineScript(bootstrap.SeedScript(cfg.StorageKey, d.Stored), d.Nonce)),
			boot,
			h.StyleEl(g.Raw(Stylesheet(cfg))),
		),
		h.Body(
			h.Main(
				h.H1(g.Text(d.Title)),
				flash(d.Flash),
				stateList(d.State),
				themeForm(d.State),
			),
			h.Footer(h.Small(g.Text("themesync "+d.Version))),
			g.If(d.EventsURL != "", bootstrap.InlineScript(SyncScript(cfg.StorageKey, d.EventsURL), d.Nonce)),
		),
	)), nil
}

func rootAttrs(s document.Snapshot) g.Node {
	names := make([]string, 0, len(s.Attributes))
	for name := range s.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	nodes := make([]g.Node, 0, len(names)+2)
	for _, name := range names {
		nodes = append(nodes, g.Attr(name, s.Attributes[name]))
	}
	if len(s.Classes) > 0 {
		nodes = append(nodes, h.Class(s.ClassAttr()))
	}
	if s.ColorScheme != "" {
		nodes = append(nodes, h.Style("color-scheme: "+s.ColorScheme))
	}
	return g.Group(nodes)
}

func flash(f Flash) g.Node {
	if f.Message == "" {
		return nil
	}
	return h.P(h.Class("flash flash-"+f.Type), h.Role("status"), g.Text(f.Message))
}

func stateList(s theme.State) g.Node {
	row := func(label string, value theme.Name) g.Node {
		if value == "" {
			return nil
		}
		return g.Group{h.Dt(g.Text(label)), h.Dd(h.Code(g.Text(string(value))))}
	}
	return h.Dl(
		h.ID("theme-state"),
		row("Selected", s.Theme),
		row("Resolved", s.ResolvedTheme),
		row("System", s.SystemTheme),
		row("Forced", s.ForcedTheme),
	)
}

func themeForm(s theme.State) g.Node {
	buttons := g.Map(s.Themes, func(name theme.Name) g.Node {
		return h.Button(
			h.Type("submit"), h.Name("theme"), h.Value(string(name)),
			h.Aria("pressed", ariaBool(name == s.Theme)),
			g.Text(label(name)),
		)
	})
	return h.Form(
		h.Method("post"), h.Action("/theme"),
		g.If(s.ForcedTheme != "", h.P(g.Text("This page forces the "+string(s.ForcedTheme)+" theme."))),
		buttons,
		h.Button(h.Type("submit"), h.Name("theme"), h.Value(""), g.Text("Reset")),
	)
}

func label(name theme.Name) string {
	s := string(name)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func ariaBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Stylesheet returns the page palette keyed on each theme's document projection.
func Stylesheet(cfg theme.Config) string {
	const (
		light = "background:#ffffff;color:#111827"
		dark  = "background:#111827;color:#f9fafb"
	)
	var b strings.Builder
	b.WriteString("body{font-family:system-ui,sans-serif;margin:0 auto;max-width:40rem;padding:2rem;")
	b.WriteString(light)
	b.WriteString(";transition:background .2s,color .2s}")
	b.WriteString("button[aria-pressed=true]{font-weight:bold}")
	for _, name := range cfg.Themes {
		v := cfg.Project(name)
		if v == "" {
			continue
		}
		palette := light
		if name == theme.Dark {
			palette = dark
		}
		b.WriteString(selector(cfg.Attribute, v))
		b.WriteString(" body{")
		b.WriteString(palette)
		b.WriteString("}")
	}
	return b.String()
}

func selector(a theme.AttributeStrategy, value string) string {
	if a.IsClass() {
		return "html." + value
	}
	q, _ := json.Marshal(value)
	return "html[" + a.Name() + "=" + string(q) + "]"
}

// SyncScript keeps the page in step with selections made elsewhere. Events from
// the server stream are mirrored into localStorage and the page reloads so the
// bootstrap procedure applies them. Other tabs reload on the storage event.
func SyncScript(key, eventsURL string) string {
	k, _ := json.Marshal(key)
	u, _ := json.Marshal(eventsURL)
	return `(function(){var k=` + string(k) + `;` +
		`function cur(){try{return localStorage.getItem(k)}catch(_){return null}}` +
		`if(window.EventSource){var es=new EventSource(` + string(u) + `);` +
		`es.onmessage=function(m){var e;try{e=JSON.parse(m.data)}catch(_){return}` +
		`if(e.key!==k)return;var v=e.deleted?null:(e.value||null);if(cur()===v)return;` +
		`try{if(v===null)localStorage.removeItem(k);else localStorage.setItem(k,v)}catch(_){}` +
		`location.reload()}}` +
		`window.addEventListener("storage",function(e){if(e.key===k)location.reload()})})();`
}
