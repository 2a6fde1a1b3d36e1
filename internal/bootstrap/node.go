// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package bootstrap

import (
	"encoding/json"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/olegiv/themesync/internal/theme"
)

// Node renders the bootstrap procedure as an inline script element carrying
// the configured nonce.
func Node(cfg theme.Config) (g.Node, error) {
	src, err := Script(cfg)
	if err != nil {
		return nil, err
	}
	return InlineScript(src, cfg.Nonce), nil
}

// InlineScript wraps src in a script element. The nonce attribute is omitted
// when nonce is empty.
func InlineScript(src, nonce string) g.Node {
	return h.Script(
		g.If(nonce != "", g.Attr("nonce", nonce)),
		g.Raw(src),
	)
}

// SeedScript mirrors a server-held preference into localStorage so the
// bootstrap procedure that follows reads it. An empty value clears the slot.
func SeedScript(key, value string) string {
	k, _ := json.Marshal(key)
	if value == "" {
		return `(function(){try{localStorage.removeItem(` + string(k) + `)}catch(_){}})();`
	}
	v, _ := json.Marshal(value)
	return `(function(){try{localStorage.setItem(` + string(k) + `,` + string(v) + `)}catch(_){}})();`
}
