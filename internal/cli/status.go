// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses command-line arguments and implements the cordial
// subcommands that run outside the TUI.
//
// Command: status
// Short:   Display paths, account, cache, and session information
// Aliases: s, info
//
// Examples:
//   cordial status                Show status
//   cordial s                     Show status (short alias)
//   cordial status --verify       Also call the API to check the token
//   cordial status --json         Structured output for scripts
//
// Status Sections:
//   Paths:    Config file, log directory, cache database
//   Account:  Token presence and source, verified username
//   Cache:    Cached guild/channel/message counts and database size
//   Sessions: Aggregated request counters from recent sessions
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/cordial-tui/internal/config"
	"github.com/jeranaias/cordial-tui/internal/discord"
	"github.com/jeranaias/cordial-tui/internal/metrics"
	"github.com/jeranaias/cordial-tui/internal/secret"
	"github.com/jeranaias/cordial-tui/internal/storage"
)

// historyWindow is how far back the Sessions section aggregates.
const historyWindow = 7 * 24 * time.Hour

// =============================================================================
// STYLES
// =============================================================================

var (
	// Title style for the header
	statusTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")). // Cyan
				MarginBottom(1)

	// Section header style
	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")). // White
			MarginTop(1)

	// Label style for field names
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")). // Light gray
			Width(14)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")) // White

	valueGreenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")) // Green

	valueYellowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("220")) // Yellow

	valueRedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // Red

	valueDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")) // Dim

	statusSeparatorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))
)

// statusRow renders one aligned "label: value" line.
func statusRow(label string, value string, style lipgloss.Style) string {
	return "  " + labelStyle.Render(label) + style.Render(value)
}

// =============================================================================
// HANDLE STATUS
// =============================================================================

// HandleStatus handles the "status" command.
func HandleStatus(args Args) error {
	p := NewArgParser(args.Raw)
	verify := p.BoolFlag("verify") && !args.Offline

	paths := collectPaths(args)
	account := collectAccount(verify)
	cacheInfo := collectCacheStatus(paths.CacheDB)
	history := collectHistory()

	if args.JSON {
		resp := NewJSONResponse("status", StatusData{
			Paths:   paths,
			Account: account,
			Cache:   cacheInfo,
			History: history,
		})
		return resp.Print()
	}

	separator := strings.Repeat("=", 41)
	fmt.Println()
	fmt.Println(statusTitleStyle.Render("cordial Status"))
	fmt.Println(statusSeparatorStyle.Render(separator))
	fmt.Println()

	configLine := paths.Config
	if !paths.ConfigExists {
		configLine += " (defaults in effect)"
	}

	fmt.Println(sectionStyle.Render("Paths"))
	fmt.Println(statusRow("Config:", configLine, pathStyle(paths.ConfigExists)))
	fmt.Println(statusRow("Logs:", paths.Logs, valueStyle))
	fmt.Println(statusRow("Cache DB:", paths.CacheDB, pathStyle(cacheInfo.Present)))
	fmt.Println()

	fmt.Println(sectionStyle.Render("Account"))
	fmt.Println(statusRow("Token:", account.Token, tokenStyle(account)))
	if account.Username != "" {
		fmt.Println(statusRow("Verified:", "@"+account.Username, valueGreenStyle))
	} else if account.VerifyError != "" {
		fmt.Println(statusRow("Verified:", account.VerifyError, valueRedStyle))
	}
	fmt.Println()

	fmt.Println(sectionStyle.Render("Cache"))
	if cacheInfo.Present {
		fmt.Println(statusRow("Guilds:", fmt.Sprintf("%d", cacheInfo.Guilds), valueStyle))
		fmt.Println(statusRow("Channels:", fmt.Sprintf("%d", cacheInfo.Channels), valueStyle))
		fmt.Println(statusRow("Messages:", fmt.Sprintf("%d", cacheInfo.Messages), valueStyle))
		fmt.Println(statusRow("Stars:", fmt.Sprintf("%d", cacheInfo.Favorites), valueStyle))
		fmt.Println(statusRow("Size:", formatBytes(cacheInfo.SizeBytes), valueDimStyle))
	} else {
		fmt.Println(statusRow("Entries:", "no cache database yet", valueDimStyle))
	}
	fmt.Println()

	fmt.Println(sectionStyle.Render("Sessions (last 7 days)"))
	if history.Sessions > 0 {
		fmt.Println(statusRow("Sessions:", fmt.Sprintf("%d", history.Sessions), valueStyle))
		fmt.Println(statusRow("Requests:", fmt.Sprintf("%d", history.Requests), valueStyle))
		fmt.Println(statusRow("Cache Hits:", formatHitRate(history.CacheHits, history.Requests), valueGreenStyle))
		fmt.Println(statusRow("Retries:", fmt.Sprintf("%d", history.Retries), retryStyle(history.Retries)))
		fmt.Println(statusRow("Rate Limit:", history.RateLimitWait+" waited", valueDimStyle))
	} else {
		fmt.Println(statusRow("Sessions:", "none recorded", valueDimStyle))
	}
	fmt.Println()

	return nil
}

func pathStyle(exists bool) lipgloss.Style {
	if exists {
		return valueStyle
	}
	return valueDimStyle
}

func tokenStyle(a StatusAccount) lipgloss.Style {
	switch a.TokenSource {
	case "none":
		return valueYellowStyle
	case "environment":
		return valueYellowStyle
	default:
		return valueGreenStyle
	}
}

func retryStyle(retries int) lipgloss.Style {
	if retries > 0 {
		return valueYellowStyle
	}
	return valueStyle
}

func formatHitRate(hits, requests int) string {
	// Hits are counted alongside requests, not within them.
	total := hits + requests
	if total == 0 {
		return "0"
	}
	return fmt.Sprintf("%d (%.0f%%)", hits, float64(hits)/float64(total)*100)
}

// =============================================================================
// COLLECTORS (SHARED BY TEXT AND JSON OUTPUT)
// =============================================================================

// StatusData is the structured form of the status report.
type StatusData struct {
	Paths   StatusPaths   `json:"paths"`
	Account StatusAccount `json:"account"`
	Cache   StatusCache   `json:"cache"`
	History StatusHistory `json:"history"`
}

// StatusPaths lists the file locations cordial reads and writes.
type StatusPaths struct {
	Config       string `json:"config"`
	ConfigExists bool   `json:"config_exists"`
	Logs         string `json:"logs"`
	CacheDB      string `json:"cache_db"`
}

// StatusAccount describes token presence without exposing the token.
type StatusAccount struct {
	Token       string `json:"token"`        // "stored (encrypted)", "environment", "none"
	TokenSource string `json:"token_source"` // "file", "environment", "none"
	Username    string `json:"username,omitempty"`
	VerifyError string `json:"verify_error,omitempty"`
}

// StatusCache mirrors storage.Stats plus presence.
type StatusCache struct {
	Present   bool  `json:"present"`
	Guilds    int   `json:"guilds"`
	Channels  int   `json:"channels"`
	Messages  int   `json:"messages"`
	Favorites int   `json:"favorites"`
	SizeBytes int64 `json:"size_bytes"`
}

// StatusHistory aggregates recent session summaries.
type StatusHistory struct {
	Sessions      int    `json:"sessions"`
	Requests      int    `json:"requests"`
	CacheHits     int    `json:"cache_hits"`
	Retries       int    `json:"retries"`
	Failures      int    `json:"failures"`
	RateLimitWait string `json:"rate_limit_wait"`
}

func collectPaths(args Args) StatusPaths {
	paths := StatusPaths{}

	if args.ConfigPath != "" {
		paths.Config = args.ConfigPath
	} else if p, err := config.ConfigPath(); err == nil {
		paths.Config = p
	}
	if paths.Config != "" {
		_, err := os.Stat(paths.Config)
		paths.ConfigExists = err == nil
	}

	if d, err := config.LogDir(); err == nil {
		paths.Logs = d
	}
	if p, err := storage.DefaultPath(); err == nil {
		paths.CacheDB = p
	}

	return paths
}

func collectAccount(verify bool) StatusAccount {
	account := StatusAccount{Token: "none - run 'cordial login'", TokenSource: "none"}

	store, err := secret.DefaultStore()
	if err != nil {
		account.Token = "unavailable: " + err.Error()
		return account
	}

	switch {
	case store.FromEnv():
		account.Token = "environment (" + secret.EnvToken + ")"
		account.TokenSource = "environment"
	case store.Present():
		account.Token = "stored (encrypted)"
		account.TokenSource = "file"
	default:
		return account
	}

	if !verify {
		return account
	}

	token, err := store.Load()
	if err != nil {
		account.VerifyError = err.Error()
		return account
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	me, err := discord.NewClient(token).Me(ctx)
	switch {
	case discord.IsUnauthorized(err):
		account.VerifyError = "token rejected"
	case err != nil:
		account.VerifyError = "unreachable"
	default:
		account.Username = me.Username
	}
	return account
}

func collectCacheStatus(path string) StatusCache {
	info := StatusCache{}
	if path == "" {
		return info
	}
	if _, err := os.Stat(path); err != nil {
		return info
	}

	store, err := storage.Open(path)
	if err != nil {
		return info
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := store.Stats(ctx)
	if err != nil {
		return info
	}

	info.Present = true
	info.Guilds = stats.Guilds
	info.Channels = stats.Channels
	info.Messages = stats.Messages
	info.Favorites = stats.Favorites
	info.SizeBytes = stats.SizeBytes
	return info
}

func collectHistory() StatusHistory {
	history := StatusHistory{RateLimitWait: "0s"}

	tracker, err := metrics.NewTracker("")
	if err != nil {
		return history
	}

	now := time.Now()
	var waited time.Duration
	for _, s := range tracker.History(now.Add(-historyWindow), now) {
		history.Sessions++
		waited += s.RateLimitWait
		for _, k := range s.Kinds {
			history.Requests += k.Requests
			history.CacheHits += k.CacheHits
			history.Retries += k.Retries
			history.Failures += k.Failures
		}
	}
	history.RateLimitWait = waited.Round(time.Second).String()
	return history
}
