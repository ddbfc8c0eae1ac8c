// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app implements the cordial terminal client as a bubbletea program.
package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/jeranaias/cordial-tui/internal/config"
)

// =============================================================================
// KEY BINDINGS
// =============================================================================

// KeyMap holds every binding the program responds to. The first group comes
// from the [keys] config table; the second is fixed navigation that stays
// stable regardless of configuration.
type KeyMap struct {
	Quit          key.Binding
	Help          key.Binding
	FocusNext     key.Binding
	FocusPrevious key.Binding
	ToggleSidebar key.Binding
	Search        key.Binding
	Yank          key.Binding
	Expand        key.Binding
	LoadOlder     key.Binding
	ToggleStar    key.Binding

	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Back     key.Binding
}

// newKeyMap builds bindings from the configured key strings. A config value
// may list alternates separated by commas, e.g. "pgup,ctrl+u".
func newKeyMap(keys config.KeysConfig) KeyMap {
	return KeyMap{
		Quit:          binding(keys.Quit, "quit"),
		Help:          binding(keys.Help, "help"),
		FocusNext:     binding(keys.FocusNext, "next pane"),
		FocusPrevious: binding(keys.FocusPrevious, "previous pane"),
		ToggleSidebar: binding(keys.ToggleSidebar, "toggle sidebar"),
		Search:        binding(keys.Search, "search transcript"),
		Yank:          binding(keys.YankMessage, "copy message"),
		Expand:        binding(keys.ExpandMessage, "expand message"),
		LoadOlder:     binding(keys.LoadOlder, "older messages"),
		ToggleStar:    binding(keys.ToggleStar, "star channel"),

		Up:       binding("up,k", "up"),
		Down:     binding("down,j", "down"),
		PageUp:   binding("pgup", "page up"),
		PageDown: binding("pgdown", "page down"),
		Home:     binding("home,g", "top"),
		End:      binding("end,G", "bottom"),
		Back:     binding("esc", "back"),
	}
}

// binding turns a comma-separated key spec into a bubbles binding. The help
// label shows only the first alternate to keep the overlay tidy.
func binding(spec, desc string) key.Binding {
	parts := strings.Split(spec, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	label := spec
	if len(parts) > 0 && parts[0] != "" {
		label = parts[0]
	}
	return key.NewBinding(
		key.WithKeys(parts...),
		key.WithHelp(label, desc),
	)
}

// ShortHelp lists the bindings worth showing in a one-line hint.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.FocusNext, k.Search, k.Quit}
}

// FullHelp groups bindings for the help overlay: general, sidebar,
// transcript.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Help, k.FocusNext, k.FocusPrevious, k.ToggleSidebar, k.Quit},
		{k.Up, k.Down, k.Home, k.End, k.ToggleStar},
		{k.Search, k.Yank, k.Expand, k.LoadOlder, k.PageUp, k.PageDown, k.Back},
	}
}
