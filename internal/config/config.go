// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/olegiv/themesync/internal/theme"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"THEMESYNC_DB_PATH" envDefault:"./data/themesync.db"`
	SessionSecret string `env:"THEMESYNC_SESSION_SECRET,required"`
	ServerHost    string `env:"THEMESYNC_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"THEMESYNC_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"THEMESYNC_ENV" envDefault:"development"`
	LogLevel      string `env:"THEMESYNC_LOG_LEVEL" envDefault:"info"`

	// Preference storage
	StoreBackend  string `env:"THEMESYNC_STORE" envDefault:"sqlite"`            // memory, sqlite or redis
	RedisURL      string `env:"THEMESYNC_REDIS_URL"`                            // Required for the redis backend
	RedisPrefix   string `env:"THEMESYNC_REDIS_PREFIX" envDefault:"themesync:"` // Key and channel prefix
	RetentionDays int    `env:"THEMESYNC_RETENTION_DAYS" envDefault:"365"`      // 0 disables pruning
	PruneSchedule string `env:"THEMESYNC_PRUNE_SCHEDULE" envDefault:"@daily"`   // cron spec for pruning
	WriteRateRPS  int    `env:"THEMESYNC_WRITE_RATE" envDefault:"5"`            // Theme changes per second per visitor

	// Theme behavior
	Themes                    []string `env:"THEMESYNC_THEMES" envDefault:"light,dark" envSeparator:","`
	DefaultTheme              string   `env:"THEMESYNC_DEFAULT_THEME"`
	ForcedTheme               string   `env:"THEMESYNC_FORCED_THEME"`
	EnableSystem              bool     `env:"THEMESYNC_ENABLE_SYSTEM" envDefault:"true"`
	EnableColorScheme         bool     `env:"THEMESYNC_ENABLE_COLOR_SCHEME" envDefault:"true"`
	Attribute                 string   `env:"THEMESYNC_ATTRIBUTE" envDefault:"data-theme"` // attribute name or "class"
	ValueMap                  string   `env:"THEMESYNC_VALUE_MAP"`                         // e.g. light:day,dark:night
	StorageKey                string   `env:"THEMESYNC_STORAGE_KEY" envDefault:"theme"`
	DisableTransitionOnChange bool     `env:"THEMESYNC_DISABLE_TRANSITION_ON_CHANGE" envDefault:"false"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedis returns true if the redis backend is selected.
func (c Config) UseRedis() bool {
	return c.StoreBackend == "redis"
}

// Theme builds the validated theme configuration.
func (c Config) Theme() (theme.Config, error) {
	names := make([]theme.Name, 0, len(c.Themes))
	for _, t := range c.Themes {
		if t = strings.TrimSpace(t); t != "" {
			names = append(names, theme.Name(t))
		}
	}

	vm, err := theme.ParseValueMap(c.ValueMap)
	if err != nil {
		return theme.Config{}, fmt.Errorf("THEMESYNC_VALUE_MAP: %w", err)
	}

	return theme.NewConfig(
		theme.WithThemes(names...),
		theme.WithDefaultTheme(theme.Name(c.DefaultTheme)),
		theme.WithForcedTheme(theme.Name(c.ForcedTheme)),
		theme.WithSystem(c.EnableSystem),
		theme.WithColorScheme(c.EnableColorScheme),
		theme.WithAttribute(theme.ParseAttribute(c.Attribute)),
		theme.WithValueMap(vm),
		theme.WithStorageKey(c.StorageKey),
		theme.WithTransitionsDisabled(c.DisableTransitionOnChange),
	)
}

// SlogLevel maps the configured level name to a slog level.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("THEMESYNC_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("THEMESYNC_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("THEMESYNC_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	switch cfg.StoreBackend {
	case "memory", "sqlite":
	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("THEMESYNC_REDIS_URL is required when THEMESYNC_STORE=redis")
		}
	default:
		return nil, fmt.Errorf("THEMESYNC_STORE must be memory, sqlite or redis, got %q", cfg.StoreBackend)
	}

	if cfg.RetentionDays < 0 {
		return nil, fmt.Errorf("THEMESYNC_RETENTION_DAYS must not be negative")
	}

	if _, err := cfg.Theme(); err != nil {
		return nil, fmt.Errorf("theme configuration: %w", err)
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
