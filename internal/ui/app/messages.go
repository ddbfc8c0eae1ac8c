// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app implements the cordial terminal client as a bubbletea program.
package app

import (
	"github.com/disgoorg/snowflake/v2"

	"github.com/jeranaias/cordial-tui/internal/config"
	"github.com/jeranaias/cordial-tui/internal/model"
)

// =============================================================================
// MESSAGES
// =============================================================================

// ConfigReloaded delivers a config picked up by the file watcher. It is the
// one exported message type because the watcher callback lives outside the
// program and injects it with Program.Send.
type ConfigReloaded struct {
	Config *config.Config
}

// sidebarLoadedMsg carries the guild and DM lists. Offline these come from
// the persistent cache rather than the API.
type sidebarLoadedMsg struct {
	guilds []model.Guild
	dms    []model.Channel
	err    error
}

// channelsLoadedMsg carries one guild's channel list after an expand.
type channelsLoadedMsg struct {
	guildID  snowflake.ID
	channels []model.Channel
	err      error
}

// transcriptMsg is the single completion event for a channel load: the
// message page and the author colors resolved for it. gen ties the result
// to the load generation that started it; Update drops the message when
// the generation is no longer current. older marks a history page that
// extends the transcript upward instead of replacing it. stale marks data
// served from the persistent cache.
type transcriptMsg struct {
	gen       uint64
	channelID snowflake.ID
	page      []model.Message
	colors    map[snowflake.ID]model.Color
	older     bool
	stale     bool
	err       error
}

// yankedMsg reports the clipboard write outcome.
type yankedMsg struct {
	err error
}

// readMarkedMsg reports the read-state persistence outcome; failures are
// logged and otherwise ignored.
type readMarkedMsg struct {
	err error
}

// noteExpiredMsg clears a transient status note. seq guards against an old
// timer wiping a newer note.
type noteExpiredMsg struct {
	seq int
}
