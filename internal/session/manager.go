// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the current view selection and load lifecycle.
package session

import (
	"context"
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// =============================================================================
// VIEW SESSION MANAGER
// =============================================================================

// Selection is the committed view: which guild and channel the transcript
// shows. A zero GuildID with a non-zero ChannelID is a direct message; a
// fully zero Selection means nothing is open yet.
type Selection struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
}

// IsZero reports whether nothing is selected.
func (s Selection) IsZero() bool {
	return s.GuildID == 0 && s.ChannelID == 0
}

// Manager tracks the current selection, a monotonically increasing load
// generation, and the cancel function of the in-flight load. Every
// load result carries the generation it was started under; a result whose
// generation no longer matches is stale and must be discarded before
// render. Store and cache writes of a stale load are kept: they are
// upserts, and fresher data never hurts.
type Manager struct {
	mu         sync.Mutex
	selection  Selection
	generation uint64
	cancel     context.CancelFunc
}

// NewManager creates an empty view session.
func NewManager() *Manager {
	return &Manager{}
}

// =============================================================================
// SELECTION AND LOAD LIFECYCLE
// =============================================================================

// Select commits a new selection and starts its load: the previous
// in-flight load is cancelled, the generation advances, and the returned
// context is bound to the new load. The caller attaches the returned
// generation to the load's result.
func (m *Manager) Select(parent context.Context, guildID, channelID snowflake.ID) (context.Context, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.selection = Selection{GuildID: guildID, ChannelID: channelID}
	return m.startLoadLocked(parent, true)
}

// Refresh starts a fresh load of the current selection. The generation
// advances so any still-running load for the old view discards itself.
func (m *Manager) Refresh(parent context.Context) (context.Context, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.startLoadLocked(parent, true)
}

// Extend starts a follow-up load within the current view, such as an
// older-history page. The generation does not advance: the view is
// unchanged and the result still applies. Navigating away afterwards
// advances the generation, which both cancels this load and marks its
// result stale.
func (m *Manager) Extend(parent context.Context) (context.Context, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.startLoadLocked(parent, false)
}

func (m *Manager) startLoadLocked(parent context.Context, bump bool) (context.Context, uint64) {
	if m.cancel != nil {
		m.cancel()
	}
	if bump {
		m.generation++
	}

	ctx, cancel := context.WithCancel(parent)
	m.cancel = cancel
	return ctx, m.generation
}

// CancelInFlight cancels the current load, if any, without changing the
// selection or generation.
func (m *Manager) CancelInFlight() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// =============================================================================
// QUERIES
// =============================================================================

// Current returns the committed selection.
func (m *Manager) Current() Selection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selection
}

// Generation returns the current load generation.
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// IsCurrent reports whether a load started under gen is still the one the
// view is waiting for. Stale results must not reach the renderer.
func (m *Manager) IsCurrent(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen == m.generation
}
