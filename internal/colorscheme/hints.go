// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package colorscheme

import (
	"net/http"
	"strings"

	"github.com/olegiv/themesync/internal/theme"
)

// HintHeader is the user preference client hint carrying the OS color scheme.
const HintHeader = "Sec-CH-Prefers-Color-Scheme"

// FromRequest reads the color-scheme client hint. ok is false when the browser
// did not send it or sent an unknown value.
func FromRequest(r *http.Request) (name theme.Name, ok bool) {
	v := strings.Trim(strings.TrimSpace(r.Header.Get(HintHeader)), `"`)
	switch strings.ToLower(v) {
	case "dark":
		return theme.Dark, true
	case "light":
		return theme.Light, true
	default:
		return "", false
	}
}

// StaticFromRequest returns a fixed MediaQueryList for the request, light when the
// hint is missing.
func StaticFromRequest(r *http.Request) Static {
	name, _ := FromRequest(r)
	return Static{Dark: name == theme.Dark}
}

// Hints asks supporting browsers to send the color-scheme hint on later requests
// and to retry the current one with it.
func Hints(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Accept-CH", HintHeader)
		h.Set("Critical-CH", HintHeader)
		h.Add("Vary", HintHeader)
		next.ServeHTTP(w, r)
	})
}
