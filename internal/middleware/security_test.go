// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		name     string
		isDev    bool
		wantHSTS bool
	}{
		{"production mode enables HSTS", false, true},
		{"development mode disables HSTS", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var nonce string
			handler := SecurityHeaders(DefaultSecurityHeadersConfig(tt.isDev))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nonce = Nonce(r.Context())
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			hsts := rec.Header().Get("Strict-Transport-Security")
			if tt.wantHSTS != (hsts != "") {
				t.Errorf("Strict-Transport-Security = %q, want present=%v", hsts, tt.wantHSTS)
			}

			if nonce == "" {
				t.Fatal("handler saw no nonce")
			}
			csp := rec.Header().Get("Content-Security-Policy")
			if !strings.Contains(csp, "script-src 'self' 'nonce-"+nonce+"'") {
				t.Errorf("CSP %q does not carry the request nonce", csp)
			}
			if !strings.HasPrefix(csp, "default-src 'self'; script-src") {
				t.Errorf("CSP directives out of order: %q", csp)
			}

			if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
				t.Errorf("X-Content-Type-Options = %q", got)
			}
			if got := rec.Header().Get("X-Frame-Options"); got != "SAMEORIGIN" {
				t.Errorf("X-Frame-Options = %q", got)
			}
		})
	}
}

func TestSecurityHeaders_NonceChangesPerRequest(t *testing.T) {
	var seen []string
	handler := SecurityHeaders(DefaultSecurityHeadersConfig(true))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, Nonce(r.Context()))
	}))

	for range 2 {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	if seen[0] == seen[1] {
		t.Error("nonce reused across requests")
	}
}

func TestNonce_Outside(t *testing.T) {
	if n := Nonce(httptest.NewRequest(http.MethodGet, "/", nil).Context()); n != "" {
		t.Errorf("Nonce() = %q, want empty", n)
	}
}

func TestBuildPermissionsPolicy_Sorted(t *testing.T) {
	got := buildPermissionsPolicy(map[string]string{"usb": "()", "camera": "()"})
	if got != "camera=(), usb=()" {
		t.Errorf("buildPermissionsPolicy() = %q", got)
	}
}
