// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/cordial-tui/internal/util"
)

// =============================================================================
// SUMMARY STORAGE
// =============================================================================

// SummaryStorage persists session summaries to disk, one JSON file per
// session named by its timestamp-based ID.
type SummaryStorage struct {
	dir string
}

// NewSummaryStorage creates a summary storage manager.
func NewSummaryStorage(dir string) (*SummaryStorage, error) {
	// Default to ~/.cordial/sessions/
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(homeDir, ".cordial", "sessions")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &SummaryStorage{dir: dir}, nil
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// Save persists a session summary to disk.
func (ss *SummaryStorage) Save(summary *SessionSummary) error {
	if summary == nil {
		return nil
	}

	filename := filepath.Join(ss.dir, summary.ID+".json")

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}

	// A crash mid-save must not tear the summary file.
	return util.AtomicWriteFile(filename, data, 0644)
}

// Load retrieves a session summary from disk.
func (ss *SummaryStorage) Load(sessionID string) (*SessionSummary, error) {
	filename := filepath.Join(ss.dir, sessionID+".json")

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var summary SessionSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, err
	}

	return &summary, nil
}

// List returns all session IDs within the specified date range, sorted
// oldest first.
func (ss *SummaryStorage) List(from, to time.Time) ([]string, error) {
	entries, err := os.ReadDir(ss.dir)
	if err != nil {
		return nil, err
	}

	var sessionIDs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}

		sessionID := strings.TrimSuffix(name, ".json")

		timestamp, ok := sessionTimestamp(sessionID)
		if !ok {
			continue // Skip invalid filenames
		}

		if timestamp.Before(from) || timestamp.After(to) {
			continue
		}

		sessionIDs = append(sessionIDs, sessionID)
	}

	// Session IDs are timestamp-prefixed, so a string sort is a time sort
	sort.Strings(sessionIDs)

	return sessionIDs, nil
}

// Delete removes a session summary file from disk.
func (ss *SummaryStorage) Delete(sessionID string) error {
	filename := filepath.Join(ss.dir, sessionID+".json")
	return os.Remove(filename)
}

// DeleteBefore removes all session summaries older than the specified date.
func (ss *SummaryStorage) DeleteBefore(before time.Time) error {
	entries, err := os.ReadDir(ss.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}

		timestamp, ok := sessionTimestamp(strings.TrimSuffix(name, ".json"))
		if !ok {
			continue
		}

		if timestamp.Before(before) {
			os.Remove(filepath.Join(ss.dir, name)) // Ignore errors
		}
	}

	return nil
}

// Count returns the number of stored session summaries.
func (ss *SummaryStorage) Count() (int, error) {
	entries, err := os.ReadDir(ss.dir)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			count++
		}
	}

	return count, nil
}

// sessionTimestamp parses the timestamp prefix of a session ID
// (format: 20060102-150405-counter).
func sessionTimestamp(sessionID string) (time.Time, bool) {
	timestampPart := sessionID
	if parts := strings.Split(sessionID, "-"); len(parts) >= 3 {
		timestampPart = parts[0] + "-" + parts[1]
	}

	timestamp, err := time.Parse("20060102-150405", timestampPart)
	if err != nil {
		return time.Time{}, false
	}
	return timestamp, true
}
