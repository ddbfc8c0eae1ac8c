// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the application's structured logger.
//
// The terminal belongs to the TUI while the program runs, so log output
// goes to files only: a text handler appending to cordial.log, plus a JSON
// handler appending to debug.json when debug mode is on. Both sinks hang
// off one slog-multi fanout, and every record carries a per-session
// correlation ID so interleaved sessions can be told apart.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	slogmulti "github.com/samber/slog-multi"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds logger construction options.
type Config struct {
	// Dir is the directory log files are written to.
	Dir string

	// Debug lowers the level to Debug and adds the JSON handler.
	Debug bool

	// SessionID is attached to every record; generated when empty.
	SessionID string
}

// =============================================================================
// SETUP
// =============================================================================

// Setup builds the session logger. The returned close function flushes and
// closes the open log files; call it on shutdown.
func Setup(cfg Config) (*slog.Logger, func() error, error) {
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}

	if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
		return nil, nil, err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	textFile, err := openLog(filepath.Join(cfg.Dir, "cordial.log"))
	if err != nil {
		return nil, nil, err
	}

	files := []*os.File{textFile}
	handlers := []slog.Handler{
		slog.NewTextHandler(textFile, &slog.HandlerOptions{Level: level}),
	}

	if cfg.Debug {
		jsonFile, err := openLog(filepath.Join(cfg.Dir, "debug.json"))
		if err != nil {
			textFile.Close()
			return nil, nil, err
		}
		files = append(files, jsonFile)
		handlers = append(handlers, slog.NewJSONHandler(jsonFile, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		}))
	}

	logger := slog.New(slogmulti.Fanout(handlers...)).With("session", cfg.SessionID)

	closeFn := func() error {
		var firstErr error
		for _, f := range files {
			if err := f.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	return logger, closeFn, nil
}

// Nop returns a logger that discards everything. Components take a
// *slog.Logger unconditionally; tests pass this instead of nil-checking.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func openLog(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}
