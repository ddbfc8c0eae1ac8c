// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app implements the cordial terminal client as a bubbletea program.
//
// The program is a single Model in the Elm style: every mutation flows
// through Update, every frame through View. Three panes make up the screen:
// a sidebar listing favorites, direct messages, and servers; a transcript
// viewport showing the selected channel; and a one-line status bar.
//
// # Loading
//
// Channel switches run through session.Manager. Selecting a channel bumps
// the load generation, cancels the previous in-flight load, and starts a
// command that fetches a message page, resolves author colors, and delivers
// everything as one transcriptMsg. Update discards any transcriptMsg whose
// generation is no longer current, so a stale load can never paint over the
// channel the user switched to. A failed load keeps the current transcript
// on screen and surfaces the error in the status bar.
//
// # Offline and cached data
//
// With the offline flag set, loads read only the persistent cache. When a
// network fetch fails online and the coordinator serves cached messages
// instead, the status bar shows a CACHED badge until a live load succeeds.
//
// # Wiring
//
//	model := app.New(ctx, app.Deps{...})
//	p := tea.NewProgram(model, tea.WithAltScreen())
//	watcher, _ := config.NewWatcher(path, logger, func(cfg *config.Config) {
//		p.Send(app.ConfigReloaded{Config: cfg})
//	})
//	_, err := p.Run()
//
// The config watcher delivers reloads as messages, so key bindings, layout,
// and rendering options change without a restart.
package app
