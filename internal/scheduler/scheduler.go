// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs background maintenance on the preference store.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner removes preferences not written since a cutoff.
type Pruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Options configures the retention job.
type Options struct {
	// Schedule is a standard cron expression or descriptor such as "@daily".
	Schedule string

	// Retention is how long an untouched preference is kept. Zero disables pruning.
	Retention time.Duration
}

// DefaultOptions returns a daily job keeping preferences for a year.
func DefaultOptions() Options {
	return Options{
		Schedule:  "@daily",
		Retention: 365 * 24 * time.Hour,
	}
}

// Scheduler prunes stale preferences on a cron schedule.
type Scheduler struct {
	pruner Pruner
	opts   Options
	cron   *cron.Cron
	logger *slog.Logger
	now    func() time.Time
}

// New creates a scheduler. A nil pruner yields a scheduler with no jobs.
func New(pruner Pruner, opts Options, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		pruner: pruner,
		opts:   opts,
		cron:   cron.New(),
		logger: logger,
		now:    time.Now,
	}
}

// Start registers the prune job and starts the cron runner.
func (s *Scheduler) Start() error {
	if s.pruner != nil && s.opts.Retention > 0 {
		if _, err := s.cron.AddFunc(s.opts.Schedule, func() {
			if _, err := s.Prune(context.Background()); err != nil {
				s.logger.Error("failed to prune preferences", "error", err)
			}
		}); err != nil {
			return fmt.Errorf("scheduling prune job %q: %w", s.opts.Schedule, err)
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop waits for running jobs and stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Prune deletes preferences older than the retention window once.
func (s *Scheduler) Prune(ctx context.Context) (int64, error) {
	if s.pruner == nil || s.opts.Retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.opts.Retention)
	n, err := s.pruner.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("pruned stale preferences", "count", n, "cutoff", cutoff)
	}
	return n, nil
}
