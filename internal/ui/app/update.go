// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app implements the cordial terminal client as a bubbletea program.
package app

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/disgoorg/snowflake/v2"
	"golang.org/x/text/cases"

	"github.com/jeranaias/cordial-tui/internal/discord"
	"github.com/jeranaias/cordial-tui/internal/model"
	"github.com/jeranaias/cordial-tui/internal/render"
	"github.com/jeranaias/cordial-tui/internal/ui/styles"
	"github.com/jeranaias/cordial-tui/internal/util"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update is the single mutation point of the program.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(v.Width, v.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(v)

	case tea.MouseMsg:
		if !m.cfg.Mouse {
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(v)
		return m, cmd

	case spinner.TickMsg:
		if !m.loading && !m.loadingOlder {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(v)
		return m, cmd

	case sidebarLoadedMsg:
		return m.handleSidebarLoaded(v)

	case channelsLoadedMsg:
		return m.handleChannelsLoaded(v)

	case transcriptMsg:
		return m.handleTranscript(v)

	case ConfigReloaded:
		return m.handleConfigReloaded(v)

	case yankedMsg:
		if v.err != nil {
			m.logger.Warn("clipboard write failed", "error", v.err)
			return m, m.setNote("clipboard unavailable")
		}
		return m, m.setNote("copied to clipboard")

	case readMarkedMsg:
		if v.err != nil {
			m.logger.Warn("cache write failed", "error", v.err)
		}
		return m, nil

	case noteExpiredMsg:
		if v.seq == m.noteSeq {
			m.note = ""
		}
		return m, nil
	}

	return m, nil
}

// =============================================================================
// LOAD COMPLETIONS
// =============================================================================

func (m Model) handleSidebarLoaded(v sidebarLoadedMsg) (tea.Model, tea.Cmd) {
	m.state.PutGuilds(v.guilds)
	m.state.PutChannels(v.dms)
	m.rebuildSidebar()

	if v.err != nil && len(v.guilds) == 0 && len(v.dms) == 0 {
		m.logger.Warn("sidebar load failed", "error", v.err)
		m.errNote = friendlyLoadError(v.err)
		return m, nil
	}
	return m, nil
}

func (m Model) handleChannelsLoaded(v channelsLoadedMsg) (tea.Model, tea.Cmd) {
	if v.err != nil {
		m.logger.Warn("channel list load failed", "guild", v.guildID, "error", v.err)
		return m, m.setNote("could not load channels")
	}
	m.state.PutChannels(v.channels)
	m.rebuildSidebar()
	return m, nil
}

// handleTranscript applies a completed message load. Two guards keep stale
// work off the screen: the generation must still be current and the payload
// must belong to the channel on display. Load errors keep the existing
// transcript and only surface in the status bar.
func (m Model) handleTranscript(v transcriptMsg) (tea.Model, tea.Cmd) {
	if !m.sessions.IsCurrent(v.gen) {
		return m, nil
	}
	if v.channelID != m.channel.ID {
		return m, nil
	}

	m.loading = false
	m.loadingOlder = false

	if v.err != nil {
		if errors.Is(v.err, context.Canceled) || errors.Is(v.err, context.DeadlineExceeded) {
			return m, nil
		}
		m.logger.Warn("message load failed", "channel", v.channelID, "error", v.err)
		m.errNote = friendlyLoadError(v.err)
		return m, nil
	}
	m.errNote = ""

	if v.older {
		return m.appendOlderPage(v)
	}

	m.msgs = v.page
	m.colors = v.colors
	m.cached = v.stale
	m.loaded = true
	m.cursor = -1
	if len(m.msgs) > 0 {
		m.cursor = 0
	}
	m.rerender()
	m.viewport.GotoBottom()
	if m.query != "" {
		m.runSearch(m.query)
	}

	if v.stale || len(v.page) == 0 {
		return m, nil
	}
	newest := v.page[0].ID
	if newest <= m.readStates[m.channel.ID] {
		return m, nil
	}
	m.readStates[m.channel.ID] = newest
	m.rebuildSidebar()
	return m, m.markRead(m.channel.ID, newest)
}

// appendOlderPage extends the transcript upward with a history page,
// keeping the viewport anchored on the line the user was reading.
func (m Model) appendOlderPage(v transcriptMsg) (tea.Model, tea.Cmd) {
	var oldest model.Message
	if len(m.msgs) > 0 {
		oldest = m.msgs[len(m.msgs)-1]
	}

	added := 0
	for _, msg := range v.page {
		if oldest.ID == 0 || msg.ID < oldest.ID {
			m.msgs = append(m.msgs, msg)
			added++
		}
	}
	if added == 0 {
		return m, m.setNote("beginning of history")
	}

	if len(v.colors) > 0 {
		if m.colors == nil {
			m.colors = map[snowflake.ID]model.Color{}
		}
		for id, c := range v.colors {
			m.colors[id] = c
		}
	}

	prevLines := len(m.lines)
	m.rerender()
	m.viewport.SetYOffset(m.viewport.YOffset + len(m.lines) - prevLines)
	if m.query != "" {
		m.runSearch(m.query)
	}
	return m, nil
}

func (m Model) handleConfigReloaded(v ConfigReloaded) (tea.Model, tea.Cmd) {
	if v.Config == nil {
		return m, nil
	}
	m.cfg = v.Config
	m.keys = newKeyMap(v.Config.Keys)
	m.theme = styles.NewTheme(v.Config.UI.Theme)
	m.spin.Style = m.theme.Spinner

	if m.width > 0 {
		m.handleResize(m.width, m.height)
	} else {
		m.renderer = render.NewTranscript(m.renderOptions())
		m.rerender()
	}
	m.rebuildSidebar()
	m.logger.Info("config applied", "theme", v.Config.UI.Theme)
	return m, m.setNote("config reloaded")
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	// Overlays capture everything until dismissed.
	if m.showHelp {
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Expand) {
			m.showHelp = false
		}
		return m, nil
	}
	if m.expand != nil {
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Expand) || key.Matches(msg, m.keys.Help) {
			m.expand = nil
			m.expandView = ""
		}
		return m, nil
	}

	if m.focus == focusSearch {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.helpView = m.renderHelpMarkdown()
		return m, nil

	case key.Matches(msg, m.keys.ToggleSidebar):
		m.sidebar.hidden = !m.sidebar.hidden
		if m.sidebar.hidden && m.focus == focusSidebar {
			m.focus = focusTranscript
		}
		if m.width > 0 {
			m.handleResize(m.width, m.height)
		}
		return m, nil

	case key.Matches(msg, m.keys.FocusNext), key.Matches(msg, m.keys.FocusPrevious):
		if m.focus == focusSidebar {
			m.focus = focusTranscript
		} else if !m.sidebar.hidden {
			m.focus = focusSidebar
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		if !m.loaded {
			return m, m.setNote("open a channel first")
		}
		m.focus = focusSearch
		m.resizePanes()
		return m, tea.Batch(m.searchInput.Focus(), textinput.Blink)

	case key.Matches(msg, m.keys.ToggleStar):
		return m.handleToggleStar()
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleTranscriptKey(msg)
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.sidebar.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.sidebar.move(+1)
	case key.Matches(msg, m.keys.Home):
		m.sidebar.moveHome()
	case key.Matches(msg, m.keys.End):
		m.sidebar.moveEnd()
	case key.Matches(msg, m.keys.Expand):
		return m.activateSidebarRow()
	}
	return m, nil
}

// activateSidebarRow opens the channel under the cursor, or toggles a
// guild's collapse state, fetching its channel list on first expand.
func (m Model) activateSidebarRow() (tea.Model, tea.Cmd) {
	row, ok := m.sidebar.current()
	if !ok {
		return m, nil
	}

	switch row.kind {
	case rowGuild:
		id := row.guild.ID
		m.sidebar.expanded[id] = !m.sidebar.expanded[id]
		m.rebuildSidebar()
		if m.sidebar.expanded[id] && len(m.state.ChannelsByGuild(id)) == 0 {
			return m, m.loadGuildChannels(id)
		}
		return m, nil

	case rowChannel, rowDM:
		return m.openChannel(row.channel)
	}
	return m, nil
}

// openChannel starts a fresh transcript load through the session manager.
// The selection bump cancels whatever load was still in flight.
func (m Model) openChannel(ch model.Channel) (tea.Model, tea.Cmd) {
	if ch.ID == m.channel.ID && m.loaded {
		m.focus = focusTranscript
		return m, nil
	}

	ctx, gen := m.sessions.Select(m.ctx, ch.GuildID, ch.ID)

	m.channel = ch
	m.guild = model.Guild{}
	if !ch.IsDM() {
		m.guild, _ = m.state.Guild(ch.GuildID)
	}
	m.msgs = nil
	m.colors = nil
	m.lines = nil
	m.cursor = -1
	m.loaded = false
	m.cached = false
	m.loading = true
	m.loadingOlder = false
	m.errNote = ""
	m.clearSearch()
	m.focus = focusTranscript
	m.setViewportContent()

	return m, tea.Batch(m.loadTranscript(ctx, gen, ch, 0, false), m.spin.Tick)
}

func (m Model) handleTranscriptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(+1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(-1)

	case key.Matches(msg, m.keys.PageUp):
		if m.viewport.AtTop() {
			return m.startOlderLoad()
		}
		m.viewport.ViewUp()
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
	case key.Matches(msg, m.keys.Home):
		m.viewport.GotoTop()
	case key.Matches(msg, m.keys.End):
		m.viewport.GotoBottom()
		if len(m.msgs) > 0 {
			m.cursor = 0
			m.setViewportContent()
		}

	case key.Matches(msg, m.keys.LoadOlder):
		return m.startOlderLoad()

	case key.Matches(msg, m.keys.Yank):
		return m.yankSelected()

	case key.Matches(msg, m.keys.Expand):
		if sel, ok := m.selectedMessage(); ok {
			m.expand = &sel
			m.expandView = m.renderExpandMarkdown(sel)
		}

	case key.Matches(msg, m.keys.Back):
		if m.query != "" {
			m.clearSearch()
			return m, nil
		}
		if !m.sidebar.hidden {
			m.focus = focusSidebar
		}
	}
	return m, nil
}

// moveCursor shifts the message selection; dir +1 moves toward older
// messages (visually up), -1 toward newer.
func (m *Model) moveCursor(dir int) {
	if len(m.msgs) == 0 {
		return
	}
	next := m.cursor + dir
	if next < 0 {
		next = 0
	}
	if next >= len(m.msgs) {
		next = len(m.msgs) - 1
	}
	if next == m.cursor {
		return
	}
	m.cursor = next
	m.ensureCursorVisible()
	m.setViewportContent()
}

func (m Model) selectedMessage() (model.Message, bool) {
	if m.cursor < 0 || m.cursor >= len(m.msgs) {
		return model.Message{}, false
	}
	return m.msgs[m.cursor], true
}

func (m Model) yankSelected() (tea.Model, tea.Cmd) {
	sel, ok := m.selectedMessage()
	if !ok {
		return m, nil
	}
	text := sel.Content
	if text == "" && len(sel.Attachments) > 0 {
		text = sel.Attachments[0].Filename
	}
	if text == "" {
		return m, m.setNote("nothing to copy")
	}
	return m, yank(text)
}

// startOlderLoad extends the transcript with the page before the oldest
// message on screen. The load shares the current generation: navigating
// away still retires it, but its own completion stays valid.
func (m Model) startOlderLoad() (tea.Model, tea.Cmd) {
	if !m.loaded || m.loading || m.loadingOlder || len(m.msgs) == 0 {
		return m, nil
	}
	ctx, gen := m.sessions.Extend(m.ctx)
	m.loadingOlder = true
	before := m.msgs[len(m.msgs)-1].ID
	return m, tea.Batch(m.loadTranscript(ctx, gen, m.channel, before, true), m.spin.Tick)
}

func (m Model) handleToggleStar() (tea.Model, tea.Cmd) {
	var target model.Channel
	if m.focus == focusSidebar {
		if row, ok := m.sidebar.current(); ok && (row.kind == rowChannel || row.kind == rowDM) {
			target = row.channel
		}
	} else if m.loaded {
		target = m.channel
	}
	if target.ID == 0 {
		return m, nil
	}

	starred := !m.favorites[target.ID]
	if starred {
		m.favorites[target.ID] = true
	} else {
		delete(m.favorites, target.ID)
	}
	m.rebuildSidebar()

	note := "unstarred " + target.Name
	if starred {
		note = "starred " + target.Name
	}
	return m, tea.Batch(m.toggleStar(target.ID, starred), m.setNote(note))
}

// =============================================================================
// SEARCH
// =============================================================================

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		q := strings.TrimSpace(m.searchInput.Value())
		if q == "" {
			m.clearSearch()
			m.focus = focusTranscript
			return m, nil
		}
		if q != m.query {
			m.runSearch(q)
		}
		m.jumpToNextMatch()
		return m, nil

	case "esc":
		m.clearSearch()
		m.focus = focusTranscript
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// runSearch recomputes the match set for a query. Matching is caseless via
// Unicode case folding and covers author names and message content.
func (m *Model) runSearch(query string) {
	m.query = query
	m.matches = m.matches[:0]
	m.matchIdx = -1

	fold := cases.Fold()
	needle := fold.String(query)
	for i, msg := range m.msgs {
		hay := fold.String(msg.Author.DisplayName() + " " + msg.Content)
		if strings.Contains(hay, needle) {
			m.matches = append(m.matches, i)
		}
	}
	m.resizePanes()
}

// jumpToNextMatch selects the next match, newest first, wrapping around.
func (m *Model) jumpToNextMatch() {
	if len(m.matches) == 0 {
		return
	}
	m.matchIdx = (m.matchIdx + 1) % len(m.matches)
	m.cursor = m.matches[m.matchIdx]
	m.ensureCursorVisible()
	m.setViewportContent()
}

func (m *Model) clearSearch() {
	m.query = ""
	m.matches = nil
	m.matchIdx = -1
	m.searchInput.SetValue("")
	m.searchInput.Blur()
	if m.focus == focusSearch {
		m.focus = focusTranscript
	}
	m.resizePanes()
}

// =============================================================================
// TRANSCRIPT CONTENT
// =============================================================================

// rerender rebuilds the line list from the current page run and refreshes
// the viewport.
func (m *Model) rerender() {
	if m.renderer == nil {
		m.renderer = render.NewTranscript(m.renderOptions())
	}
	m.lines = m.renderer.Render(m.msgs, m.colors)
	m.setViewportContent()
}

// setViewportContent joins the rendered lines behind a two-column gutter
// that carries the selection marker.
func (m *Model) setViewportContent() {
	if len(m.lines) == 0 {
		m.viewport.SetContent(m.emptyTranscriptText())
		return
	}

	var selected snowflake.ID
	if m.cursor >= 0 && m.cursor < len(m.msgs) {
		selected = m.msgs[m.cursor].ID
	}

	marker := m.theme.Gutter.Render(">") + " "
	var b strings.Builder
	for i, ln := range m.lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if selected != 0 && ln.MessageID == selected {
			b.WriteString(marker)
		} else {
			b.WriteString("  ")
		}
		b.WriteString(ln.Text)
	}
	m.viewport.SetContent(b.String())
}

func (m Model) emptyTranscriptText() string {
	switch {
	case m.loading:
		return ""
	case !m.loaded:
		return m.theme.Placeholder.Render("select a channel to begin, ? for help")
	default:
		return m.theme.Placeholder.Render("(no messages yet)")
	}
}

// ensureCursorVisible scrolls the viewport so every line of the selected
// message is on screen.
func (m *Model) ensureCursorVisible() {
	sel, ok := m.selectedMessage()
	if !ok {
		return
	}
	first, last := -1, -1
	for i, ln := range m.lines {
		if ln.MessageID != sel.ID {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return
	}
	if first < m.viewport.YOffset {
		m.viewport.SetYOffset(first)
		return
	}
	if bottom := m.viewport.YOffset + m.viewport.Height; last >= bottom {
		m.viewport.SetYOffset(last - m.viewport.Height + 1)
	}
}

// =============================================================================
// STATUS NOTES AND ERRORS
// =============================================================================

// setNote installs a transient status note and returns its expiry timer.
func (m *Model) setNote(text string) tea.Cmd {
	m.noteSeq++
	m.note = text
	return expireNote(m.noteSeq)
}

// friendlyLoadError maps API failures onto short status-bar text.
func friendlyLoadError(err error) string {
	switch {
	case discord.IsUnauthorized(err):
		return "unauthorized: run 'cordial login'"
	case discord.IsNotFound(err):
		return "not found"
	case discord.IsRateLimited(err):
		return "rate limited, retries exhausted"
	case discord.IsNetwork(err):
		return "network unavailable"
	default:
		return util.TruncateRunes(err.Error(), 60)
	}
}
