// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management.
//
// Configuration lives in TOML at ~/.cordial/config.toml, with sensible
// defaults, environment variable overrides, and validation. Display
// settings (timestamps, timezone, theme) can be hot-reloaded while the
// program runs; see watcher.go.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete application configuration.
type Config struct {
	// Mouse enables terminal mouse support
	Mouse bool `toml:"mouse"`

	// Markdown enables inline markdown styling in the transcript
	Markdown bool `toml:"markdown"`

	// MessagesLimit is the page size for history fetches (1-100)
	MessagesLimit int `toml:"messages_limit"`

	// ShowAttachmentLinks renders a placeholder line for attachment-only messages
	ShowAttachmentLinks bool `toml:"show_attachment_links"`

	// Timezone for rendered timestamps: "local" or an IANA name like
	// "Europe/Berlin". Invalid names fall back to the system zone.
	Timezone string `toml:"timezone"`

	// Timestamps configuration
	Timestamps TimestampsConfig `toml:"timestamps"`

	// UI configuration
	UI UIConfig `toml:"ui"`

	// Keys configuration
	Keys KeysConfig `toml:"keys"`
}

// TimestampsConfig controls the time prefix on transcript lines.
type TimestampsConfig struct {
	// Enabled toggles the timestamp column
	Enabled bool `toml:"enabled"`
	// Format is a Go reference-time layout (default "3:04PM")
	Format string `toml:"format"`
}

// UIConfig contains presentation configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// SidebarWidth is the guild/channel sidebar width in cells
	SidebarWidth int `toml:"sidebar_width"`
	// ShowStatusBar toggles the bottom status bar
	ShowStatusBar bool `toml:"show_status_bar"`
}

// KeysConfig contains the keybindings. Values are single keys or
// bubbletea-style chords ("ctrl+b").
type KeysConfig struct {
	Quit          string `toml:"quit"`
	Help          string `toml:"help"`
	FocusNext     string `toml:"focus_next"`
	FocusPrevious string `toml:"focus_previous"`
	ToggleSidebar string `toml:"toggle_sidebar"`
	Search        string `toml:"search"`
	YankMessage   string `toml:"yank_message"`
	ExpandMessage string `toml:"expand_message"`
	LoadOlder     string `toml:"load_older"`
	ToggleStar    string `toml:"toggle_star"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Mouse:               true,
		Markdown:            true,
		MessagesLimit:       50,
		ShowAttachmentLinks: true,
		Timezone:            "local",

		Timestamps: TimestampsConfig{
			Enabled: true,
			Format:  "3:04PM",
		},

		UI: UIConfig{
			Theme:         "dark",
			SidebarWidth:  28,
			ShowStatusBar: true,
		},

		Keys: KeysConfig{
			Quit:          "ctrl+c",
			Help:          "?",
			FocusNext:     "tab",
			FocusPrevious: "shift+tab",
			ToggleSidebar: "ctrl+b",
			Search:        "/",
			YankMessage:   "y",
			ExpandMessage: "enter",
			LoadOlder:     "pgup",
			ToggleStar:    "*",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the application configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".cordial"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LogDir returns the directory session logs are written to.
func LogDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only).
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default config file, falling back to
// defaults when the file does not exist. Environment overrides are applied
// last, then the result is validated.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	if _, statErr := os.Stat(path); statErr != nil {
		// No file: defaults plus environment
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if err := loadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadTOML decodes a TOML file over cfg.
// SECURITY: Checks and fixes file permissions on load.
func loadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all filesystems; not fatal
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// Ensure permissions are correct even if the file already existed
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# cordial configuration file")
	fmt.Fprintln(file, "# Generated by cordial - edit with care")
	fmt.Fprintln(file, "#")
	fmt.Fprintln(file, "# Documentation: https://github.com/jeranaias/cordial-tui")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.MessagesLimit < 1 || c.MessagesLimit > 100 {
		errs = append(errs, ValidationError{
			Field:   "messages_limit",
			Message: fmt.Sprintf("must be 1-100, got %d", c.MessagesLimit),
		})
	}

	if c.Timezone != "" && !strings.EqualFold(c.Timezone, "local") {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			errs = append(errs, ValidationError{
				Field:   "timezone",
				Message: fmt.Sprintf("unknown IANA zone '%s'", c.Timezone),
			})
		}
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if c.UI.SidebarWidth < 16 || c.UI.SidebarWidth > 60 {
		errs = append(errs, ValidationError{
			Field:   "ui.sidebar_width",
			Message: fmt.Sprintf("must be 16-60, got %d", c.UI.SidebarWidth),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.MessagesLimit == 0 {
		c.MessagesLimit = defaults.MessagesLimit
	}
	if c.Timezone == "" {
		c.Timezone = defaults.Timezone
	}
	if c.Timestamps.Format == "" {
		c.Timestamps.Format = defaults.Timestamps.Format
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.SidebarWidth == 0 {
		c.UI.SidebarWidth = defaults.UI.SidebarWidth
	}

	if c.Keys.Quit == "" {
		c.Keys.Quit = defaults.Keys.Quit
	}
	if c.Keys.Help == "" {
		c.Keys.Help = defaults.Keys.Help
	}
	if c.Keys.FocusNext == "" {
		c.Keys.FocusNext = defaults.Keys.FocusNext
	}
	if c.Keys.FocusPrevious == "" {
		c.Keys.FocusPrevious = defaults.Keys.FocusPrevious
	}
	if c.Keys.ToggleSidebar == "" {
		c.Keys.ToggleSidebar = defaults.Keys.ToggleSidebar
	}
	if c.Keys.Search == "" {
		c.Keys.Search = defaults.Keys.Search
	}
	if c.Keys.YankMessage == "" {
		c.Keys.YankMessage = defaults.Keys.YankMessage
	}
	if c.Keys.ExpandMessage == "" {
		c.Keys.ExpandMessage = defaults.Keys.ExpandMessage
	}
	if c.Keys.LoadOlder == "" {
		c.Keys.LoadOlder = defaults.Keys.LoadOlder
	}
	if c.Keys.ToggleStar == "" {
		c.Keys.ToggleStar = defaults.Keys.ToggleStar
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CORDIAL_TIMEZONE: overrides timezone
//   - CORDIAL_THEME: overrides ui.theme
//   - CORDIAL_MESSAGES_LIMIT: overrides messages_limit
//   - CORDIAL_MARKDOWN: set to "0" or "false" to disable markdown styling
//   - CORDIAL_MOUSE: set to "0" or "false" to disable mouse support
func (c *Config) ApplyEnvOverrides() {
	if tz := os.Getenv("CORDIAL_TIMEZONE"); tz != "" {
		c.Timezone = tz
	}

	if theme := os.Getenv("CORDIAL_THEME"); theme != "" {
		c.UI.Theme = theme
	}

	if limit := os.Getenv("CORDIAL_MESSAGES_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			c.MessagesLimit = n
		}
	}

	if md := os.Getenv("CORDIAL_MARKDOWN"); md != "" {
		c.Markdown = md != "0" && strings.ToLower(md) != "false"
	}

	if mouse := os.Getenv("CORDIAL_MOUSE"); mouse != "" {
		c.Mouse = mouse != "0" && strings.ToLower(mouse) != "false"
	}
}

// =============================================================================
// INTERPRETATION HELPERS
// =============================================================================

// Location resolves the configured timezone. "local", empty, and unknown
// names all resolve to the system zone so rendering never fails on a bad
// config value.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Layout returns the timestamp layout, falling back to the default when the
// configured format is empty or not a usable Go layout.
func (t TimestampsConfig) Layout() string {
	if t.Format == "" || !plausibleLayout(t.Format) {
		return "3:04PM"
	}
	return t.Format
}

// plausibleLayout checks that a string behaves like a Go reference-time
// layout: formatting the reference time and re-parsing it must round-trip.
func plausibleLayout(layout string) bool {
	ref := time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)
	formatted := ref.Format(layout)
	if formatted == layout {
		// No layout verbs at all; a literal string is not a timestamp format
		return false
	}
	_, err := time.Parse(layout, formatted)
	return err == nil
}

// Clone creates a deep copy of the configuration. The watcher hands clones
// to subscribers so a reload never mutates a config snapshot in use.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
