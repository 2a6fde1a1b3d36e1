// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/themesync/internal/preference"
	"github.com/olegiv/themesync/internal/testutil"
)

type fakePruner struct {
	cutoff time.Time
	n      int64
	err    error
}

func (f *fakePruner) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.n, f.err
}

func TestNew(t *testing.T) {
	logger := testutil.TestLogger()

	s := New(nil, DefaultOptions(), logger)
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.cron == nil {
		t.Error("New() scheduler has nil cron")
	}
	if s.logger != logger {
		t.Error("New() scheduler has wrong logger")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(&fakePruner{}, DefaultOptions(), testutil.TestLogger())

	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}

func TestScheduler_StartWithoutPruner(t *testing.T) {
	s := New(nil, DefaultOptions(), testutil.TestLogger())

	require.NoError(t, s.Start())
	assert.Empty(t, s.cron.Entries())
	s.Stop()
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := New(&fakePruner{}, Options{Schedule: "every now and then", Retention: time.Hour}, testutil.TestLogger())
	assert.Error(t, s.Start())
}

func TestScheduler_PruneCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := &fakePruner{n: 3}
	s := New(p, Options{Schedule: "@daily", Retention: 48 * time.Hour}, testutil.TestLogger())
	s.now = func() time.Time { return now }

	n, err := s.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, now.Add(-48*time.Hour), p.cutoff)
}

func TestScheduler_PruneDisabled(t *testing.T) {
	p := &fakePruner{n: 3}
	s := New(p, Options{Schedule: "@daily"}, testutil.TestLogger())

	n, err := s.Prune(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, p.cutoff.IsZero(), "pruner must not be called")
}

func TestScheduler_PruneError(t *testing.T) {
	s := New(&fakePruner{err: errors.New("disk full")}, DefaultOptions(), testutil.TestLogger())

	_, err := s.Prune(context.Background())
	assert.Error(t, err)
}

func TestScheduler_PruneSQLite(t *testing.T) {
	ctx := context.Background()
	st := preference.NewSQLiteStore(testutil.TestMemoryDB(t))
	require.NoError(t, st.Set(ctx, "visitor-1:theme", "dark"))

	s := New(st, Options{Schedule: "@daily", Retention: time.Hour}, testutil.TestLogger())
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	n, err := s.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = st.Get(ctx, "visitor-1:theme")
	assert.ErrorIs(t, err, preference.ErrNotFound)
}
