// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the color palette and theme for the cordial TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// THEME
// =============================================================================

// Theme bundles every lipgloss style the TUI renders with, built once at
// startup and again on config reload. Styles live here rather than at call
// sites so a background or profile change replaces all of them together.
type Theme struct {
	// Terminal capabilities detected at construction.
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// =====================================================================
	// SIDEBAR
	// =====================================================================

	Sidebar         lipgloss.Style // pane container with right border
	SidebarHeader   lipgloss.Style // section headers (favorites, dms, servers)
	SidebarItem     lipgloss.Style // plain row
	SidebarSelected lipgloss.Style // row under the cursor
	SidebarUnread   lipgloss.Style // row with unread activity
	SidebarGuild    lipgloss.Style // collapsed or expanded guild row

	// =====================================================================
	// TRANSCRIPT
	// =====================================================================

	Title       lipgloss.Style // channel header line above the viewport
	TitleAccent lipgloss.Style // channel name inside the header
	Gutter      lipgloss.Style // selection marker in the transcript gutter
	Placeholder lipgloss.Style // empty-transcript notice

	// =====================================================================
	// STATUS BAR
	// =====================================================================

	StatusBar      lipgloss.Style // full-width bottom bar
	StatusReady    lipgloss.Style // nominal state segment
	StatusLoading  lipgloss.Style // in-flight state segment
	StatusError    lipgloss.Style // error text
	StatusBadge    lipgloss.Style // OFFLINE / CACHED badge
	StatusMuted    lipgloss.Style // counters and separators
	StatusLocation lipgloss.Style // current guild and channel

	// =====================================================================
	// OVERLAYS AND SEARCH
	// =====================================================================

	Overlay      lipgloss.Style // bordered box for help and expanded messages
	OverlayTitle lipgloss.Style // overlay heading
	OverlayHint  lipgloss.Style // dismiss hint at the overlay foot
	SearchBar    lipgloss.Style // search input row
	SearchCount  lipgloss.Style // match counter next to the input

	// Spinner frames while a load is in flight.
	Spinner lipgloss.Style
}

// NewTheme builds a theme for the requested mode: "dark" and "light" force
// the background assumption, anything else keeps terminal detection.
func NewTheme(mode string) *Theme {
	switch mode {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	}

	profile := termenv.ColorProfile()
	t := &Theme{
		IsDark:       lipgloss.HasDarkBackground(),
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

// initStyles populates every style field from the adaptive palette.
func (t *Theme) initStyles() {
	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay)
	t.SidebarHeader = lipgloss.NewStyle().
		Foreground(TextMuted).
		Bold(true)
	t.SidebarItem = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.SidebarSelected = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Blurple).
		Bold(true)
	t.SidebarUnread = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Bold(true)
	t.SidebarGuild = lipgloss.NewStyle().
		Foreground(TextPrimary)

	// Transcript
	t.Title = lipgloss.NewStyle().
		Foreground(TextSecondary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay)
	t.TitleAccent = lipgloss.NewStyle().
		Foreground(Blurple).
		Bold(true)
	t.Gutter = lipgloss.NewStyle().
		Foreground(Blurple)
	t.Placeholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.StatusReady = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(Green)
	t.StatusLoading = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(Amber)
	t.StatusError = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(Red).
		Bold(true)
	t.StatusBadge = lipgloss.NewStyle().
		Background(Amber).
		Foreground(lipgloss.Color("#000000")).
		Bold(true).
		Padding(0, 1)
	t.StatusMuted = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextMuted)
	t.StatusLocation = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextPrimary).
		Bold(true)

	// Overlays and search
	t.Overlay = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Blurple).
		Padding(1, 2)
	t.OverlayTitle = lipgloss.NewStyle().
		Foreground(Blurple).
		Bold(true)
	t.OverlayHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)
	t.SearchBar = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.SearchCount = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Blurple)
}
