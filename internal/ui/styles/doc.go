// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the color palette and theme for the cordial TUI.
//
// The palette is a set of lipgloss.AdaptiveColor values with light and dark
// variants, so the same styles read well on both terminal backgrounds. The
// accent colors follow the Discord brand palette.
//
// Theme bundles every style the TUI uses. Construct one with NewTheme at
// startup and rebuild it when the configured theme mode changes:
//
//	theme := styles.NewTheme(cfg.UI.Theme)
//	title := theme.TitleAccent.Render("#general")
//
// The theme mode "dark" or "light" forces the background assumption;
// "auto" (or any other value) keeps termenv's detection. Color degradation
// for 256-color and 16-color terminals is handled by lipgloss itself.
package styles
