// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app implements the cordial terminal client as a bubbletea program.
package app

import (
	"sort"
	"strings"

	"github.com/disgoorg/snowflake/v2"

	"github.com/jeranaias/cordial-tui/internal/model"
	"github.com/jeranaias/cordial-tui/internal/ui/styles"
	"github.com/jeranaias/cordial-tui/internal/util"
)

// =============================================================================
// SIDEBAR ROWS
// =============================================================================

type rowKind int

const (
	rowHeader rowKind = iota
	rowGuild
	rowChannel
	rowDM
)

// sidebarRow is one renderable line in the sidebar. Exactly one of label,
// guild, or channel is meaningful depending on kind.
type sidebarRow struct {
	kind    rowKind
	label   string
	guild   model.Guild
	channel model.Channel
}

// selectable reports whether the cursor may rest on this row.
func (r sidebarRow) selectable() bool {
	return r.kind != rowHeader
}

// sidebarModel tracks the row list, cursor, and scroll window. Row content
// is rebuilt by the app whenever the underlying lists change; navigation
// and rendering live here.
type sidebarModel struct {
	rows     []sidebarRow
	cursor   int
	offset   int
	width    int
	height   int
	hidden   bool
	expanded map[snowflake.ID]bool
}

func newSidebar() sidebarModel {
	return sidebarModel{
		cursor:   -1,
		expanded: map[snowflake.ID]bool{},
	}
}

// =============================================================================
// ROW BUILDING
// =============================================================================

// rebuildSidebar reassembles the row list from the in-memory store:
// favorites first, then direct messages, then servers with their channels
// indented under them. Guilds start collapsed; expanding one triggers a
// channel fetch if the list is not in the store yet.
func (m *Model) rebuildSidebar() {
	var rows []sidebarRow

	if len(m.favorites) > 0 {
		var favs []model.Channel
		for id := range m.favorites {
			if ch, ok := m.state.Channel(id); ok {
				favs = append(favs, ch)
			}
		}
		sortChannelsByName(favs)
		if len(favs) > 0 {
			rows = append(rows, sidebarRow{kind: rowHeader, label: "FAVORITES"})
			for _, ch := range favs {
				kind := rowChannel
				if ch.IsDM() {
					kind = rowDM
				}
				rows = append(rows, sidebarRow{kind: kind, channel: ch})
			}
		}
	}

	dms := m.state.DMChannels()
	if len(dms) > 0 {
		rows = append(rows, sidebarRow{kind: rowHeader, label: "DIRECT MESSAGES"})
		for _, ch := range dms {
			rows = append(rows, sidebarRow{kind: rowDM, channel: ch})
		}
	}

	guilds := m.state.Guilds()
	if len(guilds) > 0 {
		rows = append(rows, sidebarRow{kind: rowHeader, label: "SERVERS"})
		for _, g := range guilds {
			rows = append(rows, sidebarRow{kind: rowGuild, guild: g})
			if !m.sidebar.expanded[g.ID] {
				continue
			}
			for _, ch := range m.state.ChannelsByGuild(g.ID) {
				if !ch.Kind.HasMessages() {
					continue
				}
				rows = append(rows, sidebarRow{kind: rowChannel, channel: ch})
			}
		}
	}

	m.sidebar.rows = rows
	m.sidebar.clampCursor()
}

// sortChannelsByName orders favorites for a stable pinned section.
func sortChannelsByName(channels []model.Channel) {
	sort.Slice(channels, func(i, j int) bool {
		a, b := strings.ToLower(channels[i].Name), strings.ToLower(channels[j].Name)
		if a != b {
			return a < b
		}
		return channels[i].ID < channels[j].ID
	})
}

// =============================================================================
// NAVIGATION
// =============================================================================

// clampCursor keeps the cursor on a selectable row after a rebuild, seeding
// it onto the first selectable row when unset.
func (s *sidebarModel) clampCursor() {
	if len(s.rows) == 0 {
		s.cursor = -1
		return
	}
	if s.cursor >= len(s.rows) {
		s.cursor = len(s.rows) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
	if !s.rows[s.cursor].selectable() {
		if next := s.nextSelectable(s.cursor, +1); next >= 0 {
			s.cursor = next
		} else if prev := s.nextSelectable(s.cursor, -1); prev >= 0 {
			s.cursor = prev
		} else {
			s.cursor = -1
		}
	}
	s.scrollToCursor()
}

// nextSelectable walks from index i (exclusive when moving, inclusive as a
// seed) in the given direction and returns the first selectable row, or -1.
func (s *sidebarModel) nextSelectable(from, dir int) int {
	for i := from; i >= 0 && i < len(s.rows); i += dir {
		if s.rows[i].selectable() {
			return i
		}
	}
	return -1
}

// move shifts the cursor by dir, skipping headers.
func (s *sidebarModel) move(dir int) {
	if s.cursor < 0 {
		s.clampCursor()
		return
	}
	if next := s.nextSelectable(s.cursor+dir, dir); next >= 0 {
		s.cursor = next
	}
	s.scrollToCursor()
}

// moveHome and moveEnd jump to the first and last selectable row.
func (s *sidebarModel) moveHome() {
	if next := s.nextSelectable(0, +1); next >= 0 {
		s.cursor = next
	}
	s.scrollToCursor()
}

func (s *sidebarModel) moveEnd() {
	if next := s.nextSelectable(len(s.rows)-1, -1); next >= 0 {
		s.cursor = next
	}
	s.scrollToCursor()
}

// scrollToCursor adjusts the window so the cursor row is visible.
func (s *sidebarModel) scrollToCursor() {
	if s.height <= 0 || s.cursor < 0 {
		return
	}
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+s.height {
		s.offset = s.cursor - s.height + 1
	}
	if s.offset < 0 {
		s.offset = 0
	}
}

// current returns the row under the cursor.
func (s *sidebarModel) current() (sidebarRow, bool) {
	if s.cursor < 0 || s.cursor >= len(s.rows) {
		return sidebarRow{}, false
	}
	return s.rows[s.cursor], true
}

// =============================================================================
// UNREAD STATE
// =============================================================================

// isUnread reports whether a channel has activity past the user's read
// marker. Channels that never reported a message are never unread.
func (m Model) isUnread(ch model.Channel) bool {
	if ch.LastMessageID == 0 {
		return false
	}
	return ch.LastMessageID > m.readStates[ch.ID]
}

// guildHasUnread reports whether any known channel of the guild is unread,
// used to mark collapsed guild rows.
func (m Model) guildHasUnread(guildID snowflake.ID) bool {
	for _, ch := range m.state.ChannelsByGuild(guildID) {
		if ch.Kind.HasMessages() && m.isUnread(ch) {
			return true
		}
	}
	return false
}

// =============================================================================
// RENDERING
// =============================================================================

// renderSidebar draws the visible slice of rows into a fixed-width column.
func (m Model) renderSidebar() string {
	s := m.sidebar
	var b strings.Builder

	visible := s.rows
	if s.offset < len(visible) {
		visible = visible[s.offset:]
	} else {
		visible = nil
	}
	if len(visible) > s.height {
		visible = visible[:s.height]
	}

	for i, row := range visible {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.renderSidebarRow(row, s.offset+i == s.cursor))
	}

	// Pad the column to full height so the border runs the whole pane.
	for i := len(visible); i < s.height; i++ {
		if i > 0 || len(visible) > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat(" ", s.width))
	}

	return m.theme.Sidebar.Render(b.String())
}

// renderSidebarRow formats one row, padded to the sidebar width.
func (m Model) renderSidebarRow(row sidebarRow, selected bool) string {
	var text string
	unread := false

	switch row.kind {
	case rowHeader:
		text = " " + row.label
	case rowGuild:
		marker := "+"
		if m.sidebar.expanded[row.guild.ID] {
			marker = "-"
		}
		unread = m.guildHasUnread(row.guild.ID)
		text = unreadPrefix(unread) + marker + " " + row.guild.Name
	case rowChannel:
		unread = m.isUnread(row.channel)
		text = unreadPrefix(unread) + "  # " + row.channel.Name
	case rowDM:
		unread = m.isUnread(row.channel)
		text = unreadPrefix(unread) + "@ " + row.channel.Name
	}

	if row.kind != rowHeader && m.favorites[row.channel.ID] && row.channel.ID != 0 {
		text += " " + styles.StatusIndicators.Star
	}

	text = util.TruncateWidth(text, m.sidebar.width)
	if pad := m.sidebar.width - util.StringWidth(text); pad > 0 {
		text += strings.Repeat(" ", pad)
	}

	switch {
	case selected:
		return m.theme.SidebarSelected.Render(text)
	case row.kind == rowHeader:
		return m.theme.SidebarHeader.Render(text)
	case unread:
		return m.theme.SidebarUnread.Render(text)
	case row.kind == rowGuild:
		return m.theme.SidebarGuild.Render(text)
	default:
		return m.theme.SidebarItem.Render(text)
	}
}

// unreadPrefix is the two-column activity marker at the left edge of a row.
func unreadPrefix(unread bool) string {
	if unread {
		return styles.StatusIndicators.Unread + " "
	}
	return "  "
}
