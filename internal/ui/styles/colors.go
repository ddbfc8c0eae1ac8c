// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the color palette and theme for the cordial TUI.
package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// ADAPTIVE COLOR PALETTE
// =============================================================================

// Every color carries a light and a dark variant; lipgloss picks the right
// one from the detected terminal background. Accent values follow the
// Discord brand palette so the client feels like the service it fronts.

// Blurple is the primary accent, used for selections and the app identity.
var Blurple = lipgloss.AdaptiveColor{Light: "#4752c4", Dark: "#5865f2"}

// Green marks success and the online state.
var Green = lipgloss.AdaptiveColor{Light: "#1a8546", Dark: "#23a55a"}

// Red marks errors and destructive hints.
var Red = lipgloss.AdaptiveColor{Light: "#c03537", Dark: "#f23f43"}

// Amber marks warnings and degraded states such as cached data.
var Amber = lipgloss.AdaptiveColor{Light: "#b8860b", Dark: "#f0b232"}

// Cyan marks informational accents such as key hints.
var Cyan = lipgloss.AdaptiveColor{Light: "#0e7490", Dark: "#22d3ee"}

// Surface is the base background for panes.
var Surface = lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#313338"}

// SurfaceDim is the recessed background used by the sidebar.
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#f2f3f5", Dark: "#2b2d31"}

// SurfaceBright is the raised background used by overlays.
var SurfaceBright = lipgloss.AdaptiveColor{Light: "#e3e5e8", Dark: "#383a40"}

// Overlay is the border and separator tone.
var Overlay = lipgloss.AdaptiveColor{Light: "#d7d9dc", Dark: "#3f4147"}

// TextPrimary is the main foreground.
var TextPrimary = lipgloss.AdaptiveColor{Light: "#060607", Dark: "#f2f3f5"}

// TextSecondary is the softer foreground for labels and headers.
var TextSecondary = lipgloss.AdaptiveColor{Light: "#4e5058", Dark: "#b5bac1"}

// TextMuted is the faint foreground for hints and timestamps.
var TextMuted = lipgloss.AdaptiveColor{Light: "#80848e", Dark: "#80848e"}

// TextInverse is the foreground for text on accent backgrounds.
var TextInverse = lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#ffffff"}

// =============================================================================
// STATUS INDICATORS
// =============================================================================

// StatusIndicators holds ASCII-safe state glyphs. Shapes stay distinct so
// state remains readable without color.
var StatusIndicators = struct {
	Ready   string
	Loading string
	Error   string
	Star    string
	Unread  string
}{
	Ready:   "+",
	Loading: "o",
	Error:   "x",
	Star:    "*",
	Unread:  "!",
}
