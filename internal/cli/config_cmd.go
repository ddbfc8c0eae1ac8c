// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses command-line arguments and implements the cordial
// subcommands that run outside the TUI.
//
// Command: config
// Short:   Show, locate, or initialize the config file
//
// Examples:
//   cordial config show            Print the effective configuration
//   cordial config show --json     Configuration as JSON
//   cordial config path            Print the config file location
//   cordial config init            Write a default config file
//   cordial config init --force    Overwrite an existing config file
//
// Edits to the config file are picked up by a running client without a
// restart, so there is no "set" subcommand; open the file instead.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/cordial-tui/internal/config"
)

// =============================================================================
// HANDLE CONFIG
// =============================================================================

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	p := NewArgParser(args.Raw)

	switch p.Subcommand() {
	case "", "show":
		return showConfig(args)
	case "path":
		return showConfigPath(args)
	case "init":
		return initConfig(args, p.BoolFlag("force"))
	default:
		return fmt.Errorf("unknown config subcommand: %s (want show, path, or init)", p.Subcommand())
	}
}

// effectiveConfig loads the configuration the TUI would run with.
func effectiveConfig(args Args) (*config.Config, error) {
	if args.ConfigPath != "" {
		return config.LoadFromPath(args.ConfigPath)
	}
	return config.Load()
}

func showConfig(args Args) error {
	cfg, err := effectiveConfig(args)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}

	if args.JSON {
		return NewJSONResponse("config show", cfg).Print()
	}

	enc := toml.NewEncoder(os.Stdout)
	enc.Indent = ""
	return enc.Encode(cfg)
}

func showConfigPath(args Args) error {
	path := args.ConfigPath
	if path == "" {
		var err error
		path, err = config.ConfigPath()
		if err != nil {
			return fmt.Errorf("cannot determine config path: %w", err)
		}
	}

	if args.JSON {
		return NewJSONResponse("config path", map[string]string{"path": path}).Print()
	}
	fmt.Println(path)
	return nil
}

func initConfig(args Args, force bool) error {
	path := args.ConfigPath
	if path == "" {
		var err error
		path, err = config.ConfigPath()
		if err != nil {
			return fmt.Errorf("cannot determine config path: %w", err)
		}
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	if err := config.SaveTOML(config.Default(), path); err != nil {
		return fmt.Errorf("cannot write config: %w", err)
	}

	if args.JSON {
		return NewJSONResponse("config init", map[string]string{"path": path}).Print()
	}
	fmt.Printf("Wrote default config to %s\n", path)
	return nil
}
