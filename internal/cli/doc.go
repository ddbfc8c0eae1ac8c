// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses command-line arguments and implements the cordial
// subcommands that run outside the TUI.
//
// The default invocation (no subcommand) starts the terminal client; main
// wires that path. Everything else is handled here:
//
//	login    Store a Discord token, interactively or via flags
//	logout   Remove the stored token
//	status   Show paths, account state, cache and session counters
//	config   Show, locate, or initialize the config file
//	cache    Inspect or clear the local message cache
//	version  Print build information
//
// Parsing follows a two-level scheme: Parse recognizes the subcommand and
// global flags (--config, --debug, --offline, --plain, --json), and each
// handler feeds its remaining arguments through ArgParser for per-command
// flags. Handlers print human output by default and structured JSON when
// --json is set, so scripts can consume them.
package cli
