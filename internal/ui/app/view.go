// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app implements the cordial terminal client as a bubbletea program.
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/cordial-tui/internal/ui/styles"
	"github.com/jeranaias/cordial-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View composes the frame: sidebar and transcript side by side, search bar
// below the viewport when active, status bar at the bottom. Overlays take
// over the whole screen.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "starting cordial..."
	}

	if m.showHelp {
		return m.renderOverlay("keys", m.helpView)
	}
	if m.expand != nil {
		return m.renderOverlay("message", m.expandView)
	}

	column := []string{m.renderTitle(), m.viewport.View()}
	if m.searchBarHeight() > 0 {
		column = append(column, m.renderSearchBar())
	}
	right := lipgloss.JoinVertical(lipgloss.Left, column...)

	body := right
	if !m.sidebar.hidden {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), right)
	}

	if m.cfg.UI.ShowStatusBar {
		return lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatusBar())
	}
	return body
}

// =============================================================================
// TITLE LINE
// =============================================================================

// renderTitle draws the channel header above the viewport: channel name,
// owning server, and the spinner while a load runs.
func (m Model) renderTitle() string {
	width := m.viewport.Width

	var label string
	switch {
	case m.channel.ID == 0:
		label = "cordial"
	case m.channel.IsDM():
		label = "@" + m.channel.Name
	default:
		label = "#" + m.channel.Name
	}

	content := m.theme.TitleAccent.Render(util.TruncateWidth(label, width/2))
	if m.guild.ID != 0 {
		content += "  " + util.TruncateWidth(m.guild.Name, width/3)
	}
	if m.loading || m.loadingOlder {
		content += "  " + m.spin.View() + " loading"
	}

	return m.theme.Title.Width(width).Render(content)
}

// =============================================================================
// SEARCH BAR
// =============================================================================

func (m Model) renderSearchBar() string {
	var count string
	switch {
	case m.query == "":
	case len(m.matches) == 0:
		count = "  no matches"
	case m.matchIdx < 0:
		count = fmt.Sprintf("  %d matches", len(m.matches))
	default:
		count = fmt.Sprintf("  %d/%d", m.matchIdx+1, len(m.matches))
	}
	return m.theme.SearchBar.Render(m.searchInput.View()) + m.theme.SearchCount.Render(count)
}

// =============================================================================
// STATUS BAR
// =============================================================================

// renderStatusBar draws the one-line footer: state, location, transient
// note on the left; request counters on the right. Segments drop from the
// right when the terminal is too narrow.
func (m Model) renderStatusBar() string {
	contentWidth := m.width - 2
	if contentWidth < 10 {
		contentWidth = 10
	}
	sep := m.theme.StatusMuted.Render("  ")

	var left []string
	switch {
	case m.errNote != "":
		left = append(left, m.theme.StatusError.Render(styles.StatusIndicators.Error+" "+m.errNote))
	case m.loading || m.loadingOlder:
		left = append(left, m.theme.StatusLoading.Render(m.spin.View()+" loading"))
	default:
		left = append(left, m.theme.StatusReady.Render(styles.StatusIndicators.Ready+" ready"))
	}

	switch {
	case m.offline:
		left = append(left, m.theme.StatusBadge.Render("OFFLINE"))
	case m.cached:
		left = append(left, m.theme.StatusBadge.Render("CACHED"))
	}

	if m.channel.ID != 0 {
		loc := m.channel.Name
		if m.channel.IsDM() {
			loc = "@" + loc
		} else {
			loc = "#" + loc
			if m.guild.ID != 0 {
				loc = m.guild.Name + " / " + loc
			}
		}
		left = append(left, m.theme.StatusLocation.Render(util.TruncateWidth(loc, contentWidth/2)))
	}

	if m.note != "" {
		left = append(left, m.theme.StatusMuted.Render(m.note))
	}

	leftStr := strings.Join(left, sep)
	rightStr := m.renderCounters()

	gap := contentWidth - lipgloss.Width(leftStr) - lipgloss.Width(rightStr)
	if gap < 1 {
		rightStr = ""
		gap = contentWidth - lipgloss.Width(leftStr)
	}
	if gap < 0 {
		gap = 0
	}

	line := leftStr + strings.Repeat(" ", gap) + rightStr
	return m.theme.StatusBar.Width(m.width).Render(line)
}

// renderCounters summarizes this session's fetch activity from the
// metrics tracker.
func (m Model) renderCounters() string {
	if m.tracker == nil {
		return ""
	}
	snap := m.tracker.Snapshot()
	text := fmt.Sprintf("net %d  cache %d  dedup %d", snap.Requests, snap.CacheHits, snap.DedupJoins)
	if snap.RateLimitWait > 0 {
		text += fmt.Sprintf("  rl %s", snap.RateLimitWait.Round(time.Second))
	}
	return m.theme.StatusMuted.Render(text)
}
