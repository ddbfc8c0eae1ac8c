// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses command-line arguments and implements the cordial
// subcommands that run outside the TUI.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdLogout
	CmdStatus
	CmdConfig
	CmdCache
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string // --config PATH overrides the default config location
	Debug      bool   // --debug lowers log level and adds the JSON log
	Offline    bool   // --offline serves everything from the local cache
	Plain      bool   // --plain disables color and markdown styling
	JSON       bool   // --json switches command output to structured JSON

	// Subcommand is the first positional after the command, when one exists.
	Subcommand string

	// Raw args remaining after the command name, for ArgParser.
	Raw []string
}

const usageText = `cordial - a Discord client for the terminal

Cordial renders your guilds, channels, and DMs as a keyboard-driven
terminal interface. Message history is cached locally in SQLite, so
previously viewed channels stay readable when the network is not.

Usage:
  cordial                    Start the client (default)
  cordial login              Store a Discord token
  cordial logout             Remove the stored token
  cordial status, s          Show paths, account, cache, and session info
  cordial config [show|path|init]  Configuration management
  cordial cache [stats|clear]      Local cache management
  cordial version            Print version information
  cordial help               Show this help

Login:
  cordial login                     Interactive: paste a token, or press
                                    enter to log in with email + password
  cordial login --token TOKEN       Non-interactive token storage
  cordial login --email ADDR        Email login (prompts for password)
    --totp-secret SECRET            Generate the MFA code locally instead
                                    of prompting for one

  Tokens are encrypted at rest under the config directory. The
  CORDIAL_TOKEN environment variable overrides the stored token.

Status:
  cordial status                    Human-readable status
  cordial status --json             Structured output for scripts
  cordial status --verify           Also call the API to check the token

Cache:
  cordial cache stats               Entry counts and database size
  cordial cache clear --confirm     Drop cached entities and messages
                                    (stars and read markers survive)

Config:
  cordial config show               Print the effective configuration
  cordial config path               Print the config file location
  cordial config init               Write a default config file

Global flags:
  --config PATH              Use an alternate config file
  --debug                    Verbose logging plus a JSON debug log
  --offline                  Never touch the network; cache only
  --plain                    No colors, no markdown rendering
  --json                     JSON output (status, cache, config show)

Examples:
  CORDIAL_TOKEN=xxx cordial           One-off run with an env token
  cordial --offline                   Read cached channels on a plane
  cordial --config ./dev.toml --debug Development profile
  cordial status --json | jq .data    Script the status output

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("cordial version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses os.Args and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given argument list. Split out from Parse so tests
// can drive it without touching os.Args.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)

	// No subcommand: run the TUI.
	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsed.Raw = remaining
	if len(remaining) > 0 && !strings.HasPrefix(remaining[0], "-") {
		parsed.Subcommand = remaining[0]
	}

	switch cmd {
	case "tui":
		return CmdTUI, parsed

	case "login":
		return CmdLogin, parsed

	case "logout":
		return CmdLogout, parsed

	case "status", "s", "info":
		return CmdStatus, parsed

	case "config", "cfg":
		return CmdConfig, parsed

	case "cache":
		return CmdCache, parsed

	case "version", "-v", "--version":
		return CmdVersion, parsed

	case "help", "-h", "--help":
		return CmdHelp, parsed

	default:
		fmt.Fprintf(os.Stderr, "cordial: unknown command %q (see 'cordial help')\n", cmd)
		return CmdHelp, parsed
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "--debug":
			parsed.Debug = true
		case "--offline":
			parsed.Offline = true
		case "--plain", "--no-color":
			parsed.Plain = true
		case "--json":
			parsed.JSON = true
		case "--config", "-c":
			if i+1 < len(args) {
				i++
				parsed.ConfigPath = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--config=") {
				parsed.ConfigPath = strings.TrimPrefix(arg, "--config=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	// NO_COLOR is honored the same as --plain.
	if os.Getenv("NO_COLOR") != "" {
		parsed.Plain = true
	}

	return remaining, parsed
}
