// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app implements the cordial terminal client as a bubbletea program.
package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/cordial-tui/internal/model"
)

// =============================================================================
// OVERLAYS
// =============================================================================

// renderOverlay centers a bordered box over the whole screen.
func (m Model) renderOverlay(title, body string) string {
	box := m.theme.Overlay.
		Width(m.overlayWidth()).
		MaxHeight(m.height).
		Render(m.theme.OverlayTitle.Render(title) + "\n\n" + body + "\n\n" + m.theme.OverlayHint.Render("esc to close"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// overlayWidth keeps overlays readable: most of the screen on narrow
// terminals, capped on wide ones.
func (m Model) overlayWidth() int {
	w := m.width - 8
	if w > 72 {
		w = 72
	}
	if w < 30 {
		w = 30
	}
	return w
}

// =============================================================================
// HELP
// =============================================================================

// renderHelpMarkdown lays out the active bindings as markdown and styles
// it through glamour.
func (m Model) renderHelpMarkdown() string {
	sections := []struct {
		title string
		keys  []key.Binding
	}{
		{"General", []key.Binding{m.keys.Help, m.keys.FocusNext, m.keys.FocusPrevious, m.keys.ToggleSidebar, m.keys.Quit}},
		{"Sidebar", []key.Binding{m.keys.Up, m.keys.Down, m.keys.Home, m.keys.End, m.keys.Expand, m.keys.ToggleStar}},
		{"Transcript", []key.Binding{m.keys.Up, m.keys.Down, m.keys.PageUp, m.keys.PageDown, m.keys.LoadOlder, m.keys.Search, m.keys.Yank, m.keys.Expand, m.keys.Back}},
	}

	var b strings.Builder
	for i, sec := range sections {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "## %s\n\n", sec.title)
		for _, k := range sec.keys {
			h := k.Help()
			fmt.Fprintf(&b, "- **%s**: %s\n", h.Key, h.Desc)
		}
	}
	return m.markdownView(b.String())
}

// =============================================================================
// MESSAGE EXPANSION
// =============================================================================

// renderExpandMarkdown shows one message in full: author, timestamp,
// unwrapped content, and attachment names.
func (m Model) renderExpandMarkdown(msg model.Message) string {
	ts := msg.Timestamp.In(m.cfg.Location()).Format(m.cfg.Timestamps.Layout())
	head := fmt.Sprintf("### %s at %s", msg.Author.DisplayName(), ts)
	if msg.Edited {
		head += " (edited)"
	}

	var b strings.Builder
	b.WriteString(head)
	b.WriteString("\n\n")
	if msg.Content != "" {
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}

	if len(msg.Attachments) > 0 {
		b.WriteString("\n**Attachments**\n\n")
		for _, a := range msg.Attachments {
			fmt.Fprintf(&b, "- %s\n", a.Filename)
		}
	}
	if msg.EmbedCount > 0 || msg.ReactionCount > 0 {
		fmt.Fprintf(&b, "\n*%d embeds, %d reactions*\n", msg.EmbedCount, msg.ReactionCount)
	}

	return m.markdownView(b.String())
}

// =============================================================================
// GLAMOUR
// =============================================================================

// markdownView styles markdown for overlay display. Plain mode and any
// renderer failure fall back to the raw text.
func (m Model) markdownView(src string) string {
	if m.plain {
		return src
	}

	wrap := m.overlayWidth() - 4
	if wrap < 20 {
		wrap = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return src
	}
	out, err := renderer.Render(src)
	if err != nil {
		return src
	}
	return strings.TrimRight(out, "\n")
}
