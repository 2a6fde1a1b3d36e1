// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package document

import (
	"time"

	"github.com/olegiv/themesync/internal/theme"
)

// DisableTransitionsCSS suppresses every transition while a theme is applied.
const DisableTransitionsCSS = `*{-webkit-transition:none!important;-moz-transition:none!important;-o-transition:none!important;-ms-transition:none!important;transition:none!important}`

// transitionRestoreDelay is the "next tick" after which the suppression rule is removed.
const transitionRestoreDelay = time.Millisecond

// Applicator writes resolved themes onto a document root element.
type Applicator struct {
	doc   Document
	cfg   theme.Config
	sched Scheduler
}

// NewApplicator creates an applicator. A nil scheduler uses TimerScheduler.
func NewApplicator(doc Document, cfg theme.Config, sched Scheduler) *Applicator {
	if sched == nil {
		sched = TimerScheduler{}
	}
	return &Applicator{doc: doc, cfg: cfg, sched: sched}
}

// Apply projects resolved onto the root element. Applying the same value twice
// leaves the element in the same state as applying it once. An empty value is a no-op.
func (a *Applicator) Apply(resolved theme.Name) {
	if resolved == "" {
		return
	}

	var style StyleHandle
	if a.cfg.DisableTransitionOnChange {
		style = a.doc.InsertStyle(DisableTransitionsCSS)
	}

	root := a.doc.Root()
	projected := a.cfg.Project(resolved)

	if a.cfg.Attribute.IsClass() {
		root.RemoveClass(a.cfg.ClassTokens()...)
		if projected != "" {
			root.AddClass(projected)
		}
	} else {
		name := a.cfg.Attribute.Name()
		if projected != "" {
			root.SetAttribute(name, projected)
		} else {
			root.RemoveAttribute(name)
		}
	}

	if a.cfg.EnableColorScheme {
		if cs, ok := a.cfg.ColorSchemeFor(resolved); ok {
			root.SetColorScheme(string(cs))
		}
	}

	if a.cfg.DisableTransitionOnChange {
		a.doc.ForceReflow()
		// Each removal fires at its own scheduled time; a newer application
		// inserts and removes its own rule.
		a.sched.AfterFunc(transitionRestoreDelay, func() {
			a.doc.RemoveStyle(style)
		})
	}
}
