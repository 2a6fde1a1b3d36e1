// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/themesync/internal/broadcast"
	"github.com/olegiv/themesync/internal/colorscheme"
	"github.com/olegiv/themesync/internal/config"
	"github.com/olegiv/themesync/internal/handler"
	"github.com/olegiv/themesync/internal/middleware"
	"github.com/olegiv/themesync/internal/preference"
	"github.com/olegiv/themesync/internal/render"
	"github.com/olegiv/themesync/internal/scheduler"
	"github.com/olegiv/themesync/internal/session"
	"github.com/olegiv/themesync/internal/store"
	"github.com/olegiv/themesync/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "themesync - theme preference server\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  THEMESYNC_SESSION_SECRET  Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  THEMESYNC_DB_PATH         SQLite database path (default: ./data/themesync.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  THEMESYNC_SERVER_PORT     Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  THEMESYNC_STORE           Preference store: memory|sqlite|redis (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  THEMESYNC_REDIS_URL       Redis URL for the redis store and cross-instance sync\n")
		_, _ = fmt.Fprintf(os.Stderr, "  THEMESYNC_THEMES          Selectable themes (default: light,dark)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  THEMESYNC_DEFAULT_THEME   Theme used when nothing is stored\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("themesync %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	themeCfg, err := cfg.Theme()
	if err != nil {
		return fmt.Errorf("building theme config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	ctx := context.Background()
	if err := store.Migrate(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	redisOpts := preference.DefaultRedisOptions()
	redisOpts.URL = cfg.RedisURL
	redisOpts.Prefix = cfg.RedisPrefix + "pref:"
	prefStore, storeInfo, err := preference.New(preference.Config{
		Backend:          cfg.StoreBackend,
		DB:               db,
		Redis:            redisOpts,
		FallbackToMemory: cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing preference store: %w", err)
	}
	defer func() { _ = prefStore.Close() }()
	slog.Info("preference store ready", "backend", storeInfo.Backend, "fallback", storeInfo.IsFallback)

	// Redis pub/sub reaches every instance; the hub only this process.
	var channel broadcast.Channel
	if rs, ok := prefStore.(*preference.RedisStore); ok {
		channel = broadcast.NewRedisChannel(rs.Client(), cfg.RedisPrefix+"events:", logger)
	} else {
		hub := broadcast.NewHub()
		defer func() { _ = hub.Close() }()
		channel = hub
	}

	if sq, ok := prefStore.(*preference.SQLiteStore); ok {
		sched := scheduler.New(sq, scheduler.Options{
			Schedule:  cfg.PruneSchedule,
			Retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		}, logger)
		if err := sched.Start(); err != nil {
			return fmt.Errorf("starting scheduler: %w", err)
		}
		defer sched.Stop()
	}

	sessionManager := session.New(db, cfg.IsDevelopment())
	renderer := render.New(render.Config{SessionManager: sessionManager, IsDev: cfg.IsDevelopment()})

	themeHandler, err := handler.NewThemeHandler(handler.ThemeOptions{
		Config:   themeCfg,
		Store:    prefStore,
		Channel:  channel,
		Renderer: renderer,
		Logger:   logger,
		Version:  versionInfo.String(),
	})
	if err != nil {
		return fmt.Errorf("creating theme handler: %w", err)
	}
	healthHandler := handler.NewHealthHandler(db, prefStore, storeInfo, versionInfo)

	r := newRouter(routerDeps{
		cfg:      cfg,
		sessions: sessionManager,
		theme:    themeHandler,
		health:   healthHandler,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // event streams clear their own deadline
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

type routerDeps struct {
	cfg      *config.Config
	sessions *scs.SessionManager
	theme    *handler.ThemeHandler
	health   *handler.HealthHandler
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.StripTrailingSlash)
	r.Use(colorscheme.Hints)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(d.cfg.IsDevelopment())))

	r.Get("/health", d.health.Health)
	r.Get("/health/live", d.health.Liveness)
	r.With(
		chimw.Compress(5),
		middleware.PublicCache(5*time.Minute, d.theme.ScriptETag()),
	).Get("/bootstrap.js", d.theme.Script)

	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(d.cfg.SessionSecret), d.cfg.IsDevelopment()))
	writeLimits := func(next http.Handler) http.Handler { return next }
	if d.cfg.WriteRateRPS > 0 {
		limiter := middleware.NewRateLimiter(float64(d.cfg.WriteRateRPS), d.cfg.WriteRateRPS*2, func(r *http.Request) string {
			return session.FromContext(r.Context())
		})
		writeLimits = limiter.Middleware()
	}

	r.Group(func(r chi.Router) {
		r.Use(d.sessions.LoadAndSave)
		r.Use(session.Visitor(d.sessions))
		r.Use(csrfMiddleware)

		// Event streams stay open; everything else is bounded.
		r.Get(handler.EventsPath, d.theme.Events)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			r.Use(chimw.Compress(5))
			r.Get("/", d.theme.Page)
			r.Get("/api/theme", d.theme.Get)

			r.Group(func(r chi.Router) {
				r.Use(writeLimits)
				r.Post("/theme", d.theme.Submit)
				r.Put("/api/theme", d.theme.Put)
				r.Delete("/api/theme", d.theme.Delete)
			})
		})
	})

	return r
}
