// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app implements the cordial terminal client as a bubbletea program.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/disgoorg/snowflake/v2"

	"github.com/jeranaias/cordial-tui/internal/fetch"
	"github.com/jeranaias/cordial-tui/internal/model"
)

// =============================================================================
// LOAD COMMANDS
// =============================================================================

// loadSidebar fetches the guild and DM lists. Offline it reads the
// persistent cache instead so the sidebar still populates.
func (m Model) loadSidebar() tea.Cmd {
	ctx := m.ctx
	coord := m.coord
	cache := m.cache
	offline := m.offline

	return func() tea.Msg {
		if offline {
			if cache == nil {
				return sidebarLoadedMsg{}
			}
			cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			guilds, gerr := cache.Guilds(cctx)
			dms, derr := cache.DMChannels(cctx)
			return sidebarLoadedMsg{guilds: guilds, dms: dms, err: errors.Join(gerr, derr)}
		}

		guilds, err := coord.Guilds(ctx)
		if err != nil {
			return sidebarLoadedMsg{err: err}
		}
		dms, err := coord.DMChannels(ctx)
		if err != nil {
			return sidebarLoadedMsg{guilds: guilds, err: err}
		}
		return sidebarLoadedMsg{guilds: guilds, dms: dms}
	}
}

// loadGuildChannels fetches one guild's channel list for a sidebar expand.
func (m Model) loadGuildChannels(guildID snowflake.ID) tea.Cmd {
	ctx := m.ctx
	coord := m.coord
	cache := m.cache
	offline := m.offline

	return func() tea.Msg {
		if offline {
			if cache == nil {
				return channelsLoadedMsg{guildID: guildID}
			}
			cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			channels, err := cache.Channels(cctx, guildID)
			return channelsLoadedMsg{guildID: guildID, channels: channels, err: err}
		}

		channels, err := coord.Channels(ctx, guildID)
		return channelsLoadedMsg{guildID: guildID, channels: channels, err: err}
	}
}

// loadTranscript fetches one message page and resolves author colors for
// it, delivering both as a single transcriptMsg. ctx and gen come from the
// session manager; a navigation away cancels ctx and retires gen, so a
// stale completion is dropped in Update. Color resolution is skipped for
// cached pages because the role data behind it needs the same network that
// just failed.
func (m Model) loadTranscript(ctx context.Context, gen uint64, ch model.Channel, before snowflake.ID, older bool) tea.Cmd {
	coord := m.coord
	cache := m.cache
	resolver := m.resolver
	offline := m.offline
	limit := m.cfg.MessagesLimit

	return func() tea.Msg {
		var (
			page  []model.Message
			err   error
			stale bool
		)

		switch {
		case offline:
			stale = true
			if cache != nil {
				page, err = cache.Messages(ctx, ch.ID, limit, before)
			}
		default:
			page, err = coord.Messages(ctx, ch.ID, limit, before)
			if errors.Is(err, fetch.ErrStale) {
				stale = true
				err = nil
			}
		}

		out := transcriptMsg{gen: gen, channelID: ch.ID, page: page, older: older, stale: stale, err: err}
		if err != nil || stale || len(page) == 0 {
			return out
		}

		authors := make([]snowflake.ID, 0, len(page))
		for _, msg := range page {
			authors = append(authors, msg.Author.ID)
		}
		out.colors = resolver.ResolveBatch(ctx, ch.GuildID, authors)
		return out
	}
}

// =============================================================================
// SIDE-EFFECT COMMANDS
// =============================================================================

// markRead persists the read marker for a channel. No-op without a cache.
func (m Model) markRead(channelID, messageID snowflake.ID) tea.Cmd {
	cache := m.cache
	ctx := m.ctx
	if cache == nil {
		return nil
	}
	return func() tea.Msg {
		cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return readMarkedMsg{err: cache.MarkRead(cctx, channelID, messageID)}
	}
}

// toggleStar flips a channel's favorite mark in the persistent cache.
func (m Model) toggleStar(channelID snowflake.ID, starred bool) tea.Cmd {
	cache := m.cache
	ctx := m.ctx
	if cache == nil {
		return nil
	}
	return func() tea.Msg {
		cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if starred {
			return readMarkedMsg{err: cache.Star(cctx, channelID)}
		}
		return readMarkedMsg{err: cache.Unstar(cctx, channelID)}
	}
}

// yank writes text to the system clipboard.
func yank(text string) tea.Cmd {
	return func() tea.Msg {
		return yankedMsg{err: clipboard.WriteAll(text)}
	}
}

// expireNote schedules the transient status note to clear.
func expireNote(seq int) tea.Cmd {
	return tea.Tick(noteLifetime, func(time.Time) tea.Msg {
		return noteExpiredMsg{seq: seq}
	})
}
