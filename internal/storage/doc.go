// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists fetched entities for warm start and offline reads.
//
// The Store wraps a single-connection SQLite database (WAL mode) under
// ~/.cordial. It caches guilds, channels, and a bounded window of recent
// messages per channel, on top of two pieces of durable user state:
// favorites (starred channels) and per-channel last-read markers.
//
// Saves are upserts inside one transaction per call, so re-fetching an
// entity refreshes the cached copy. Message saves prune each channel to
// its window; the database is a cache, not an archive. Reads mirror the
// API page shape: newest first, strictly older than the before cursor.
//
// # Usage
//
//	store, err := storage.Open(path)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	// warm start
//	guilds, _ := store.Guilds(ctx)
//
//	// offline fallback page
//	msgs, _ := store.Messages(ctx, channelID, 50, 0)
package storage
