// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/themesync/internal/broadcast"
	"github.com/olegiv/themesync/internal/colorscheme"
	"github.com/olegiv/themesync/internal/document"
	"github.com/olegiv/themesync/internal/preference"
	"github.com/olegiv/themesync/internal/testutil"
	"github.com/olegiv/themesync/internal/theme"
)

type env struct {
	store *preference.MemoryStore
	hub   *broadcast.Hub
	os    *colorscheme.Signal
}

func newEnv(dark bool) *env {
	return &env{
		store: preference.NewMemoryStore(),
		hub:   broadcast.NewHub(),
		os:    colorscheme.NewSignal(dark),
	}
}

func (e *env) mount(t *testing.T, cfg theme.Config) (*Provider, *document.Memory) {
	t.Helper()
	doc := document.NewMemory()
	p, err := Mount(context.Background(), cfg, Options{
		Document:       doc,
		Store:          e.store,
		Channel:        e.hub,
		MediaQueryList: e.os,
		Scheduler:      &document.ManualScheduler{},
		Logger:         testutil.TestLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(p.Unmount)
	return p, doc
}

func dataTheme(doc *document.Memory) string {
	v, _ := doc.Root().Attribute("data-theme")
	return v
}

func TestMount_SystemDefaultFollowsOS(t *testing.T) {
	e := newEnv(true)
	p, doc := e.mount(t, theme.MustConfig())

	st := p.State()
	assert.Equal(t, theme.System, st.Theme)
	assert.Equal(t, theme.Dark, st.ResolvedTheme)
	assert.Equal(t, theme.Dark, st.SystemTheme)
	assert.Equal(t, []theme.Name{theme.Light, theme.Dark, theme.System}, st.Themes)
	assert.Equal(t, "dark", dataTheme(doc))
	assert.Equal(t, "dark", doc.Root().ColorScheme())
}

func TestMount_ReadsStoredSelection(t *testing.T) {
	e := newEnv(true)
	require.NoError(t, e.store.Set(context.Background(), "theme", "light"))

	p, doc := e.mount(t, theme.MustConfig())
	assert.Equal(t, theme.Light, p.State().Theme)
	assert.Equal(t, "light", dataTheme(doc))
}

func TestMount_StorageFailureFallsBackToDefault(t *testing.T) {
	e := newEnv(false)
	require.NoError(t, e.store.Close())

	p, doc := e.mount(t, theme.MustConfig(theme.WithSystem(false)))
	assert.Equal(t, theme.Light, p.State().Theme)
	assert.Equal(t, "light", dataTheme(doc))

	require.NoError(t, p.SetTheme(context.Background(), theme.Dark), "write failure is swallowed")
	assert.Equal(t, theme.Dark, p.State().Theme)
	assert.Equal(t, "dark", dataTheme(doc))
}

func TestSetTheme_RoundTrip(t *testing.T) {
	e := newEnv(false)
	ctx := context.Background()

	first, _ := e.mount(t, theme.MustConfig())
	require.NoError(t, first.SetTheme(ctx, theme.Dark))
	first.Unmount()

	second, doc := e.mount(t, theme.MustConfig())
	assert.Equal(t, theme.Dark, second.State().Theme)
	assert.Equal(t, "dark", dataTheme(doc))
}

func TestUpdateTheme(t *testing.T) {
	e := newEnv(false)
	p, doc := e.mount(t, theme.MustConfig(theme.WithDefaultTheme(theme.Light)))

	toggle := func(prev theme.Name) theme.Name {
		if prev == theme.Dark {
			return theme.Light
		}
		return theme.Dark
	}
	require.NoError(t, p.UpdateTheme(context.Background(), toggle))
	assert.Equal(t, "dark", dataTheme(doc))
	require.NoError(t, p.UpdateTheme(context.Background(), toggle))
	assert.Equal(t, "light", dataTheme(doc))

	err := p.UpdateTheme(context.Background(), func(theme.Name) theme.Name { return "" })
	assert.ErrorIs(t, err, ErrEmptyTheme)
	assert.Equal(t, theme.Light, p.State().Theme)
}

func TestUpdateTheme_UpdaterCallsProvider(t *testing.T) {
	e := newEnv(false)
	p, doc := e.mount(t, theme.MustConfig(theme.WithDefaultTheme(theme.Light)))

	done := make(chan error, 1)
	go func() {
		done <- p.UpdateTheme(context.Background(), func(prev theme.Name) theme.Name {
			if p.State().Theme != prev {
				return ""
			}
			return theme.Dark
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("UpdateTheme did not return while the updater read State")
	}
	assert.Equal(t, "dark", dataTheme(doc))
	assert.Equal(t, theme.Dark, p.State().Theme)
}

func TestUpdateTheme_UnmountedDuringUpdater(t *testing.T) {
	e := newEnv(false)
	p, doc := e.mount(t, theme.MustConfig(theme.WithDefaultTheme(theme.Light)))

	err := p.UpdateTheme(context.Background(), func(theme.Name) theme.Name {
		p.Unmount()
		return theme.Dark
	})
	assert.ErrorIs(t, err, ErrUnmounted)
	assert.Equal(t, "light", dataTheme(doc))
	_, err = e.store.Get(context.Background(), theme.DefaultStorageKey)
	assert.ErrorIs(t, err, preference.ErrNotFound, "nothing is stored after unmount")
}

func TestExternalSync(t *testing.T) {
	e := newEnv(false)
	ctx := context.Background()
	cfg := theme.MustConfig()

	a, docA := e.mount(t, cfg)
	b, docB := e.mount(t, cfg)

	require.NoError(t, a.SetTheme(ctx, theme.Dark))
	assert.Equal(t, theme.Dark, b.State().Theme)
	assert.Equal(t, "dark", dataTheme(docB))
	assert.Equal(t, "dark", dataTheme(docA))
}

func TestExternalSync_IgnoresOtherKeys(t *testing.T) {
	e := newEnv(false)
	p, doc := e.mount(t, theme.MustConfig(theme.WithDefaultTheme(theme.Light)))

	require.NoError(t, e.hub.Publish(context.Background(), "theme",
		broadcast.Event{Key: "accent", Value: "dark", Origin: "other"}))
	assert.Equal(t, theme.Light, p.State().Theme)
	assert.Equal(t, "light", dataTheme(doc))
}

func TestDeletionSync(t *testing.T) {
	e := newEnv(true)
	ctx := context.Background()
	require.NoError(t, e.store.Set(ctx, "theme", "light"))
	p, doc := e.mount(t, theme.MustConfig())
	require.Equal(t, "light", dataTheme(doc))

	require.NoError(t, e.store.Delete(ctx, "theme"))
	require.NoError(t, e.hub.Publish(ctx, "theme",
		broadcast.Event{Key: "theme", Deleted: true, Origin: "other"}))

	assert.Equal(t, theme.System, p.State().Theme)
	assert.Equal(t, "dark", dataTheme(doc))

	_, err := e.store.Get(ctx, "theme")
	assert.ErrorIs(t, err, preference.ErrNotFound, "external changes are not re-persisted")
}

func TestForcedTheme(t *testing.T) {
	e := newEnv(false)
	ctx := context.Background()
	require.NoError(t, e.store.Set(ctx, "theme", "dark"))

	p, doc := e.mount(t, theme.MustConfig(theme.WithForcedTheme(theme.Light)))
	assert.Equal(t, "light", dataTheme(doc))

	require.NoError(t, p.SetTheme(ctx, theme.Dark))
	stored, err := e.store.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", stored)
	assert.Equal(t, "light", dataTheme(doc), "forced theme still wins")

	require.NoError(t, p.SetForcedTheme(""))
	assert.Equal(t, "dark", dataTheme(doc))
	assert.Equal(t, theme.Dark, p.State().Theme)

	require.NoError(t, p.SetForcedTheme(theme.Light))
	assert.Equal(t, theme.Light, p.State().ForcedTheme)
	assert.Equal(t, "light", dataTheme(doc))
}

func TestSystemChange(t *testing.T) {
	e := newEnv(false)
	p, doc := e.mount(t, theme.MustConfig())
	require.Equal(t, "light", dataTheme(doc))

	e.os.Set(true)
	assert.Equal(t, "dark", dataTheme(doc))
	assert.Equal(t, theme.Dark, p.State().SystemTheme)

	require.NoError(t, p.SetTheme(context.Background(), theme.Light))
	e.os.Set(false)
	e.os.Set(true)
	assert.Equal(t, "light", dataTheme(doc), "explicit selection ignores OS changes")
	assert.Equal(t, theme.Dark, p.State().SystemTheme)
}

func TestSystemChange_IgnoredWhileForced(t *testing.T) {
	e := newEnv(false)
	p, doc := e.mount(t, theme.MustConfig())
	require.NoError(t, p.SetForcedTheme(theme.Light))

	e.os.Set(true)
	assert.Equal(t, "light", dataTheme(doc))
}

func TestSystemChange_ForcedSystemFollowsOS(t *testing.T) {
	e := newEnv(false)
	p, doc := e.mount(t, theme.MustConfig(
		theme.WithDefaultTheme(theme.Light),
		theme.WithForcedTheme(theme.System),
	))
	require.Equal(t, "light", dataTheme(doc))

	e.os.Set(true)
	assert.Equal(t, "dark", dataTheme(doc))
	assert.Equal(t, theme.Light, p.State().Theme, "the selection is untouched")

	e.os.Set(false)
	assert.Equal(t, "light", dataTheme(doc))
}

func TestClassStrategy(t *testing.T) {
	e := newEnv(false)
	cfg := theme.MustConfig(
		theme.WithThemes("a", "b"),
		theme.WithAttribute(theme.Class()),
		theme.WithDefaultTheme("a"),
	)
	p, doc := e.mount(t, cfg)
	assert.True(t, doc.Root().HasClass("a"))

	require.NoError(t, p.SetTheme(context.Background(), "b"))
	assert.False(t, doc.Root().HasClass("a"))
	assert.True(t, doc.Root().HasClass("b"))

	require.NoError(t, p.SetTheme(context.Background(), "c"))
	assert.Empty(t, doc.Snapshot().Classes)
}

func TestUnmount(t *testing.T) {
	e := newEnv(false)
	p, doc := e.mount(t, theme.MustConfig())
	before := doc.Snapshot()

	p.Unmount()
	p.Unmount()

	assert.Zero(t, e.os.Listeners())
	assert.Zero(t, e.hub.Subscribers("theme"))

	e.os.Set(true)
	require.NoError(t, e.hub.Publish(context.Background(), "theme",
		broadcast.Event{Key: "theme", Value: "dark", Origin: "other"}))
	assert.Equal(t, before, doc.Snapshot())

	assert.True(t, errors.Is(p.SetTheme(context.Background(), theme.Dark), ErrUnmounted))
	assert.ErrorIs(t, p.SetForcedTheme(theme.Dark), ErrUnmounted)
}

func TestMount_AlreadyMounted(t *testing.T) {
	e := newEnv(false)
	doc := document.NewMemory()
	opts := Options{Document: doc, Store: e.store, Logger: testutil.TestLogger()}

	p, err := Mount(context.Background(), theme.MustConfig(), opts)
	require.NoError(t, err)

	_, err = Mount(context.Background(), theme.MustConfig(), opts)
	assert.ErrorIs(t, err, ErrAlreadyMounted)

	p.Unmount()
	again, err := Mount(context.Background(), theme.MustConfig(), opts)
	require.NoError(t, err)
	again.Unmount()
}

func TestMount_Validation(t *testing.T) {
	_, err := Mount(context.Background(), theme.MustConfig(), Options{})
	assert.Error(t, err)

	_, err = Mount(context.Background(), theme.Config{}, Options{Document: document.NewMemory()})
	assert.ErrorIs(t, err, theme.ErrInvalidConfig)
}

func TestTransitionsRestored(t *testing.T) {
	e := newEnv(false)
	sched := &document.ManualScheduler{}
	doc := document.NewMemory()
	p, err := Mount(context.Background(), theme.MustConfig(theme.WithTransitionsDisabled(true)), Options{
		Document:  doc,
		Store:     e.store,
		Scheduler: sched,
		Logger:    testutil.TestLogger(),
	})
	require.NoError(t, err)
	defer p.Unmount()

	require.NoError(t, p.SetTheme(context.Background(), theme.Dark))
	assert.Len(t, doc.Styles(), 2)
	assert.Equal(t, 2, sched.Pending())

	sched.Flush()
	assert.Empty(t, doc.Styles())
}
