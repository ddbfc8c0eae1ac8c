// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for cordial.
//
// Configuration is TOML with sensible defaults, environment variable
// overrides, and validation. Display settings hot-reload through a
// filesystem watcher.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - TimestampsConfig: Timestamp column toggle and layout
//   - UIConfig: Theme and chrome settings
//   - KeysConfig: Keybindings
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (CORDIAL_*)
//   - ~/.cordial/config.toml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	limit := cfg.MessagesLimit
//	layout := cfg.Timestamps.Layout()
package config
