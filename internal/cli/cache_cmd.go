// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses command-line arguments and implements the cordial
// subcommands that run outside the TUI.
//
// Command: cache
// Short:   Inspect or clear the local message cache
//
// Examples:
//   cordial cache                  Show cache statistics (default)
//   cordial cache stats --json     Statistics as JSON
//   cordial cache clear --confirm  Drop cached entities and messages
//
// Clearing removes guilds, channels, and messages but keeps starred
// channels and read markers, so the sidebar state survives a reset.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jeranaias/cordial-tui/internal/storage"
)

// cacheTimeout bounds each database operation.
const cacheTimeout = 10 * time.Second

// =============================================================================
// HANDLE CACHE
// =============================================================================

// HandleCache handles the "cache" command.
func HandleCache(args Args) error {
	p := NewArgParser(args.Raw)

	switch p.Subcommand() {
	case "", "stats":
		return showCacheStats(args)
	case "clear":
		return clearCache(args, p.BoolFlag("confirm"))
	default:
		return fmt.Errorf("unknown cache subcommand: %s (want stats or clear)", p.Subcommand())
	}
}

// =============================================================================
// CACHE STATISTICS
// =============================================================================

// CacheStatsData is the JSON form of cache statistics.
type CacheStatsData struct {
	Path      string `json:"path"`
	Guilds    int    `json:"guilds"`
	Channels  int    `json:"channels"`
	Messages  int    `json:"messages"`
	Favorites int    `json:"favorites"`
	SizeBytes int64  `json:"size_bytes"`
	Modified  string `json:"modified,omitempty"`
}

func showCacheStats(args Args) error {
	path, err := storage.DefaultPath()
	if err != nil {
		return fmt.Errorf("cannot determine cache path: %w", err)
	}

	fileInfo, statErr := os.Stat(path)
	if statErr != nil {
		if args.JSON {
			return NewJSONResponse("cache stats", CacheStatsData{Path: path}).Print()
		}
		fmt.Printf("No cache database yet (%s)\n", path)
		return nil
	}

	store, err := storage.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open cache: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()

	stats, err := store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("cannot read cache statistics: %w", err)
	}

	if args.JSON {
		return NewJSONResponse("cache stats", CacheStatsData{
			Path:      path,
			Guilds:    stats.Guilds,
			Channels:  stats.Channels,
			Messages:  stats.Messages,
			Favorites: stats.Favorites,
			SizeBytes: stats.SizeBytes,
			Modified:  fileInfo.ModTime().UTC().Format(time.RFC3339),
		}).Print()
	}

	fmt.Println()
	fmt.Println("cordial Cache Statistics")
	fmt.Println(strings.Repeat("=", 39))
	fmt.Println()
	fmt.Printf("  Location:   %s\n", path)
	fmt.Printf("  Guilds:     %d\n", stats.Guilds)
	fmt.Printf("  Channels:   %d\n", stats.Channels)
	fmt.Printf("  Messages:   %d\n", stats.Messages)
	fmt.Printf("  Stars:      %d\n", stats.Favorites)
	fmt.Printf("  Size:       %s\n", formatBytes(stats.SizeBytes))
	fmt.Printf("  Updated:    %s\n", formatTimeAgo(fileInfo.ModTime()))
	fmt.Println()

	return nil
}

// =============================================================================
// CACHE CLEAR
// =============================================================================

func clearCache(args Args, confirmed bool) error {
	if !confirmed {
		return fmt.Errorf("cache clear requires --confirm")
	}

	path, err := storage.DefaultPath()
	if err != nil {
		return fmt.Errorf("cannot determine cache path: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Println("No cache database to clear.")
		return nil
	}

	store, err := storage.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open cache: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()

	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("cache clear failed: %w", err)
	}

	if args.JSON {
		return NewJSONResponse("cache clear", map[string]string{"path": path}).Print()
	}
	fmt.Println("Cache cleared. Stars and read markers were kept.")
	return nil
}
