// cordial - a Discord client for the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/cordial-tui/internal/cli"
	"github.com/jeranaias/cordial-tui/internal/color"
	"github.com/jeranaias/cordial-tui/internal/config"
	"github.com/jeranaias/cordial-tui/internal/discord"
	"github.com/jeranaias/cordial-tui/internal/fetch"
	"github.com/jeranaias/cordial-tui/internal/logging"
	"github.com/jeranaias/cordial-tui/internal/metrics"
	"github.com/jeranaias/cordial-tui/internal/secret"
	"github.com/jeranaias/cordial-tui/internal/session"
	"github.com/jeranaias/cordial-tui/internal/state"
	"github.com/jeranaias/cordial-tui/internal/storage"
	"github.com/jeranaias/cordial-tui/internal/ui/app"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdLogin:
		exitOn(cli.HandleLogin(args))
	case cli.CmdLogout:
		exitOn(cli.HandleLogout(args))
	case cli.CmdStatus:
		exitOn(cli.HandleStatus(args))
	case cli.CmdConfig:
		exitOn(cli.HandleConfig(args))
	case cli.CmdCache:
		exitOn(cli.HandleCache(args))
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	}
}

// exitOn prints the error and exits non-zero, for subcommand handlers.
func exitOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runTUI assembles the client and runs it until quit.
func runTUI(args cli.Args) {
	cfg := loadConfig(args)
	config.SetGlobal(cfg)

	logger, closeLogs := setupLogging(args)
	defer closeLogs()

	token := loadToken(args)

	// The persistent cache backs warm start and offline reads. A broken
	// database degrades to network-only operation instead of refusing to
	// start, except in offline mode where it is all we have.
	var cache *storage.Store
	if path, err := storage.DefaultPath(); err == nil {
		if cache, err = storage.Open(path); err != nil {
			logger.Warn("message cache unavailable", "path", path, "error", err)
			cache = nil
		}
	}
	if cache != nil {
		defer cache.Close()
	}
	if args.Offline && cache == nil {
		fmt.Fprintln(os.Stderr, "Error: offline mode needs the cache database, and it could not be opened.")
		os.Exit(1)
	}

	tracker, err := metrics.NewTracker("")
	if err != nil {
		logger.Warn("session metrics not persisted", "error", err)
		tracker = metrics.NewMemoryTracker()
	}
	defer func() {
		if err := tracker.EndSession(); err != nil {
			logger.Warn("session summary not saved", "error", err)
		}
	}()

	store := state.NewStore()
	coord := fetch.NewCoordinator(fetch.Config{
		Client:  discord.NewClient(token),
		Store:   store,
		Cache:   cacheOrNil(cache),
		Tracker: tracker,
		Logger:  logger,
	})
	resolver := color.NewResolver(color.Config{
		Fetcher: coord,
		Logger:  logger,
	})

	ctx := context.Background()
	program := app.NewProgram(ctx, app.Deps{
		Config:   cfg,
		Coord:    coord,
		Colors:   resolver,
		State:    store,
		Cache:    cache,
		Tracker:  tracker,
		Sessions: session.NewManager(),
		Logger:   logger,
		Offline:  args.Offline,
		Plain:    args.Plain,
	})

	// Config edits apply to the running client through the watcher.
	if watcher := watchConfig(args, logger, program); watcher != nil {
		defer watcher.Close()
	}

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running cordial: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the startup configuration. An explicit --config path
// must load cleanly; the default path quietly falls back to defaults.
func loadConfig(args cli.Args) *config.Config {
	if args.ConfigPath != "" {
		cfg, err := config.LoadFromPath(args.ConfigPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot load %s: %v\n", args.ConfigPath, err)
			os.Exit(1)
		}
		return cfg
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (using defaults)\n", err)
		return config.Default()
	}
	return cfg
}

// setupLogging builds the session logger. Log failures never block startup;
// the client just runs without a log file.
func setupLogging(args cli.Args) (*slog.Logger, func() error) {
	dir, err := config.LogDir()
	if err != nil {
		dir = os.TempDir()
	}

	logger, closeLogs, err := logging.Setup(logging.Config{Dir: dir, Debug: args.Debug})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
		return logging.Nop(), func() error { return nil }
	}
	return logger, closeLogs
}

// loadToken reads the stored token. Offline mode skips it entirely.
func loadToken(args cli.Args) string {
	if args.Offline {
		return ""
	}

	store, err := secret.DefaultStore()
	if err == nil {
		var token string
		token, err = store.Load()
		if err == nil {
			return token
		}
	}

	if errors.Is(err, secret.ErrNoToken) {
		fmt.Fprintln(os.Stderr, "No token found. Run 'cordial login', or start with --offline to read the cache.")
	} else {
		fmt.Fprintf(os.Stderr, "Error: cannot load token: %v\n", err)
	}
	os.Exit(1)
	return ""
}

// cacheOrNil adapts the concrete store to the coordinator's cache port
// without handing it a typed nil.
func cacheOrNil(cache *storage.Store) fetch.Cache {
	if cache == nil {
		return nil
	}
	return cache
}

// watchConfig starts the config file watcher when possible. A watcher that
// cannot start is logged and skipped; manual restarts still work.
func watchConfig(args cli.Args, logger *slog.Logger, program *tea.Program) *config.Watcher {
	path := args.ConfigPath
	if path == "" {
		var err error
		path, err = config.ConfigPath()
		if err != nil {
			return nil
		}
		// The watcher needs the directory to exist, even before the
		// first config file is written.
		if err := config.EnsureConfigDir(); err != nil {
			logger.Warn("config watcher disabled", "error", err)
			return nil
		}
	}

	watcher, err := config.NewWatcher(path, logger, func(next *config.Config) {
		program.Send(app.ConfigReloaded{Config: next})
	})
	if err != nil {
		logger.Warn("config watcher disabled", "error", err)
		return nil
	}
	if err := watcher.Watch(); err != nil {
		logger.Warn("config watcher disabled", "error", err)
		watcher.Close()
		return nil
	}
	return watcher
}
