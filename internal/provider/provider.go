// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package provider keeps a document's applied theme in sync with the stored
// selection, the OS color-scheme preference and other instances sharing the
// same storage slot.
package provider

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/olegiv/themesync/internal/broadcast"
	"github.com/olegiv/themesync/internal/colorscheme"
	"github.com/olegiv/themesync/internal/document"
	"github.com/olegiv/themesync/internal/preference"
	"github.com/olegiv/themesync/internal/theme"
)

var (
	// ErrAlreadyMounted is returned when the document already has a provider.
	ErrAlreadyMounted = errors.New("document already has a theme provider")

	// ErrUnmounted is returned by mutators after Unmount.
	ErrUnmounted = errors.New("theme provider unmounted")

	// ErrEmptyTheme is returned when an empty theme name is selected.
	ErrEmptyTheme = errors.New("theme name is empty")
)

// Options wires a provider to its collaborators. Document is required.
type Options struct {
	Document document.Document

	// Store persists the selection. Nil keeps the selection in memory only.
	Store preference.Store

	// Channel delivers storage changes from other instances on Topic.
	// Nil disables cross-instance sync. Topic defaults to the storage key.
	Channel broadcast.Channel
	Topic   string

	// MediaQueryList reports the OS color-scheme preference. Nil means light.
	MediaQueryList colorscheme.MediaQueryList

	Scheduler document.Scheduler
	Logger    *slog.Logger
}

// Provider owns the theme state of one document.
type Provider struct {
	id      string
	cfg     theme.Config
	doc     document.Document
	store   preference.Store
	channel broadcast.Channel
	topic   string
	apply   *document.Applicator
	logger  *slog.Logger

	mu        sync.Mutex
	selected  theme.Name
	forced    theme.Name
	system    theme.Name
	unmounted bool

	stopMedia func()
	sub       broadcast.Subscription
}

// Mount reads the stored selection, subscribes to the OS preference and the
// sync channel, and applies the resolved theme to the document.
func Mount(ctx context.Context, cfg theme.Config, opts Options) (*Provider, error) {
	if opts.Document == nil {
		return nil, errors.New("provider requires a document")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	topic := opts.Topic
	if topic == "" {
		topic = cfg.StorageKey
	}

	p := &Provider{
		id:      uuid.NewString(),
		cfg:     cfg,
		doc:     opts.Document,
		store:   opts.Store,
		channel: opts.Channel,
		topic:   topic,
		apply:   document.NewApplicator(opts.Document, cfg, opts.Scheduler),
		logger:  logger.With("provider", topic),
		forced:  cfg.ForcedTheme,
		system:  colorscheme.Detect(opts.MediaQueryList),
	}

	if c, ok := p.doc.(document.Claimer); ok && !c.Claim(p.id) {
		return nil, ErrAlreadyMounted
	}

	p.selected = cfg.DefaultTheme
	if v, ok := preference.Read(ctx, p.store, cfg.StorageKey); ok {
		p.selected = theme.Name(v)
	}

	p.stopMedia = colorscheme.Observe(opts.MediaQueryList, p.handleSystemChange)

	if p.channel != nil {
		sub, err := p.channel.Subscribe(ctx, topic, p.handleStorageEvent)
		if err != nil {
			p.logger.Warn("cross-instance sync unavailable", "error", err)
		} else {
			p.sub = sub
		}
	}

	p.mu.Lock()
	p.applyLocked()
	p.mu.Unlock()

	p.logger.Debug("theme provider mounted", "id", p.id, "theme", p.selected, "system", p.system)
	return p, nil
}

// ID identifies this instance as the origin of the events it publishes.
func (p *Provider) ID() string {
	return p.id
}

// Config returns the configuration the provider was mounted with.
func (p *Provider) Config() theme.Config {
	return p.cfg
}

// State returns the consumer view of the current state.
func (p *Provider) State() theme.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return theme.NewState(p.cfg, p.selected, p.forced, p.system)
}

// SetTheme selects name, persists it and re-applies. Persistence failures are
// logged and otherwise ignored.
func (p *Provider) SetTheme(ctx context.Context, name theme.Name) error {
	return p.UpdateTheme(ctx, func(theme.Name) theme.Name { return name })
}

// UpdateTheme selects the theme returned by fn, which receives the current
// selection. fn runs without the provider lock held and may call back into p.
func (p *Provider) UpdateTheme(ctx context.Context, fn func(prev theme.Name) theme.Name) error {
	p.mu.Lock()
	if p.unmounted {
		p.mu.Unlock()
		return ErrUnmounted
	}
	prev := p.selected
	p.mu.Unlock()

	name := fn(prev)
	if name == "" {
		return ErrEmptyTheme
	}

	p.mu.Lock()
	if p.unmounted {
		p.mu.Unlock()
		return ErrUnmounted
	}
	p.selected = name
	preference.Write(ctx, p.store, p.cfg.StorageKey, string(name))
	p.applyLocked()
	p.mu.Unlock()

	p.publish(ctx, broadcast.Event{Key: p.cfg.StorageKey, Value: string(name), Origin: p.id})
	return nil
}

// SetForcedTheme overrides the selection until cleared with "". The stored
// selection is not touched.
func (p *Provider) SetForcedTheme(name theme.Name) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unmounted {
		return ErrUnmounted
	}
	p.forced = name
	p.applyLocked()
	return nil
}

// Unmount drops every subscription. The document is not mutated afterwards.
func (p *Provider) Unmount() {
	p.mu.Lock()
	if p.unmounted {
		p.mu.Unlock()
		return
	}
	p.unmounted = true
	stop, sub := p.stopMedia, p.sub
	p.mu.Unlock()

	if stop != nil {
		stop()
	}
	if sub != nil {
		if err := sub.Close(); err != nil {
			p.logger.Debug("closing sync subscription", "error", err)
		}
	}
	if c, ok := p.doc.(document.Claimer); ok {
		c.Release(p.id)
	}
	p.logger.Debug("theme provider unmounted", "id", p.id)
}

func (p *Provider) handleSystemChange(system theme.Name) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unmounted {
		return
	}
	p.system = system
	if p.forced == theme.System || (p.forced == "" && p.selected == theme.System) {
		p.applyLocked()
	}
}

func (p *Provider) handleStorageEvent(ev broadcast.Event) {
	if ev.Origin == p.id || ev.Key != p.cfg.StorageKey {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unmounted {
		return
	}
	if ev.Deleted || ev.Value == "" {
		p.selected = p.cfg.DefaultTheme
	} else {
		p.selected = theme.Name(ev.Value)
	}
	p.applyLocked()
}

func (p *Provider) applyLocked() {
	p.apply.Apply(theme.Resolve(p.selected, p.forced, p.system, p.cfg.EnableSystem))
}

func (p *Provider) publish(ctx context.Context, ev broadcast.Event) {
	if p.channel == nil {
		return
	}
	if err := p.channel.Publish(ctx, p.topic, ev); err != nil {
		p.logger.Debug("publishing theme change", "error", err)
	}
}
