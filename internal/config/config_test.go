// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/olegiv/themesync/internal/theme"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setEnv(t, "THEMESYNC_SESSION_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/themesync.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/themesync.db")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.StoreBackend != "sqlite" {
		t.Errorf("StoreBackend = %q, want %q", cfg.StoreBackend, "sqlite")
	}
	if cfg.RetentionDays != 365 {
		t.Errorf("RetentionDays = %d, want %d", cfg.RetentionDays, 365)
	}

	tc, err := cfg.Theme()
	if err != nil {
		t.Fatalf("Theme() error: %v", err)
	}
	if len(tc.Themes) != 2 || tc.Themes[0] != theme.Light || tc.Themes[1] != theme.Dark {
		t.Errorf("Themes = %v, want [light dark]", tc.Themes)
	}
	if tc.DefaultTheme != theme.System {
		t.Errorf("DefaultTheme = %q, want %q", tc.DefaultTheme, theme.System)
	}
	if !tc.EnableSystem || !tc.EnableColorScheme {
		t.Error("system and color-scheme support should be enabled by default")
	}
	if tc.Attribute.Name() != "data-theme" || tc.StorageKey != "theme" {
		t.Errorf("Attribute = %q, StorageKey = %q", tc.Attribute.Name(), tc.StorageKey)
	}
}

func TestLoad_ThemeOptions(t *testing.T) {
	os.Clearenv()
	setEnv(t, "THEMESYNC_SESSION_SECRET", testSecret)
	setEnv(t, "THEMESYNC_THEMES", "light, dark, sepia")
	setEnv(t, "THEMESYNC_ENABLE_SYSTEM", "false")
	setEnv(t, "THEMESYNC_DEFAULT_THEME", "sepia")
	setEnv(t, "THEMESYNC_ATTRIBUTE", "class")
	setEnv(t, "THEMESYNC_VALUE_MAP", "dark:theme-dark,sepia:theme-sepia")
	setEnv(t, "THEMESYNC_STORAGE_KEY", "site-theme")
	setEnv(t, "THEMESYNC_DISABLE_TRANSITION_ON_CHANGE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	tc, err := cfg.Theme()
	if err != nil {
		t.Fatalf("Theme() error: %v", err)
	}

	if len(tc.Themes) != 3 || tc.Themes[2] != "sepia" {
		t.Errorf("Themes = %v", tc.Themes)
	}
	if tc.DefaultTheme != "sepia" {
		t.Errorf("DefaultTheme = %q, want sepia", tc.DefaultTheme)
	}
	if !tc.Attribute.IsClass() {
		t.Error("Attribute should use the class strategy")
	}
	if got := tc.Project(theme.Dark); got != "theme-dark" {
		t.Errorf("Project(dark) = %q, want theme-dark", got)
	}
	if tc.StorageKey != "site-theme" || !tc.DisableTransitionOnChange {
		t.Errorf("StorageKey = %q, DisableTransitionOnChange = %v", tc.StorageKey, tc.DisableTransitionOnChange)
	}
}

func TestLoad_InvalidTheme(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"system listed", "THEMESYNC_THEMES", "light,system"},
		{"unknown value map key", "THEMESYNC_VALUE_MAP", "sepia:x"},
		{"malformed value map", "THEMESYNC_VALUE_MAP", "dark"},
		{"empty storage key", "THEMESYNC_STORAGE_KEY", " "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "THEMESYNC_SESSION_SECRET", testSecret)
			setEnv(t, tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !errors.Is(err, theme.ErrInvalidConfig) && !errors.Is(err, theme.ErrUnknownTheme) {
				t.Errorf("Load() error = %v, want a theme configuration error", err)
			}
		})
	}
}

func TestLoad_StoreBackend(t *testing.T) {
	os.Clearenv()
	setEnv(t, "THEMESYNC_SESSION_SECRET", testSecret)
	setEnv(t, "THEMESYNC_STORE", "redis")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail when redis is selected without a URL")
	}

	setEnv(t, "THEMESYNC_REDIS_URL", "redis://localhost:6379/0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.UseRedis() {
		t.Error("UseRedis() = false, want true")
	}

	setEnv(t, "THEMESYNC_STORE", "etcd")
	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject unknown backends")
	}
}

func TestLoad_RequiredSessionSecret(t *testing.T) {
	os.Clearenv()

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail when THEMESYNC_SESSION_SECRET is not set")
	}
}

func TestLoad_SessionSecretTooShort(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"empty", ""},
		{"short", "short"},
		{"31_bytes", "1234567890123456789012345678901"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "THEMESYNC_SESSION_SECRET", tt.secret)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load() should fail with %d-byte secret", len(tt.secret))
			}
		})
	}
}

func TestLoad_WeakSecretRejected(t *testing.T) {
	for _, weak := range knownWeakSecrets {
		os.Clearenv()
		setEnv(t, "THEMESYNC_SESSION_SECRET", weak)

		if _, err := Load(); err == nil {
			t.Errorf("Load() should reject %q", weak)
		}
	}
}

func TestConfig_ServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"localhost", 8080, "localhost:8080"},
		{"0.0.0.0", 3000, "0.0.0.0:3000"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			cfg := Config{ServerHost: tt.host, ServerPort: tt.port}
			if got := cfg.ServerAddr(); got != tt.want {
				t.Errorf("ServerAddr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := (Config{LogLevel: tt.level}).SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	if hasMinimumEntropy("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa") {
		t.Error("single character class should be low entropy")
	}
	if !hasMinimumEntropy(testSecret) {
		t.Error("mixed secret should pass")
	}
}
