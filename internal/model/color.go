// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the normalized domain entities for the client.
package model

import "fmt"

// =============================================================================
// COLOR
// =============================================================================

// Color is a resolved display color in #RRGGBB form. A Color is computed,
// never ground truth: every message reaching the renderer carries either a
// concrete role color or DefaultColor, so there is no unresolved sentinel.
type Color string

// DefaultColor is Discord's blurple, used for DM authors and members with no
// colored role.
const DefaultColor Color = "#5865F2"

// ColorFromInt formats a packed 0xRRGGBB role color. Role color zero means
// "unset" and should be filtered before calling; formatting it anyway yields
// #000000, which is a legal (black) color.
func ColorFromInt(c int) Color {
	return Color(fmt.Sprintf("#%06x", c&0xFFFFFF))
}

// String returns the #RRGGBB string.
func (c Color) String() string {
	return string(c)
}

// IsDefault reports whether the color is the fallback blurple.
func (c Color) IsDefault() bool {
	return c == DefaultColor
}
