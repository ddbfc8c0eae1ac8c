// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists fetched entities for warm start and offline reads.
package storage

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// Schema is the SQLite schema for the persistent cache. Snowflakes are
// stored as INTEGER (they fit int64), which keeps numeric ordering for
// the before-cursor message queries.
const Schema = `
-- Metadata table for schema version and bookkeeping
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- Guilds the user belongs to
CREATE TABLE IF NOT EXISTS guilds (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    icon TEXT NOT NULL DEFAULT '',
    updated_at INTEGER NOT NULL  -- Unix timestamp
);

-- Channels; guild_id 0 marks a direct message
CREATE TABLE IF NOT EXISTS channels (
    id INTEGER PRIMARY KEY,
    guild_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    kind TEXT NOT NULL,
    parent_id INTEGER NOT NULL DEFAULT 0,
    position INTEGER NOT NULL DEFAULT 0,
    last_message_id INTEGER NOT NULL DEFAULT 0,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_channels_guild ON channels(guild_id);

-- Recent messages per channel; pruned to a per-channel window on save
CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY,
    channel_id INTEGER NOT NULL,
    author_id INTEGER NOT NULL,
    author_username TEXT NOT NULL DEFAULT '',
    author_global_name TEXT NOT NULL DEFAULT '',
    author_bot INTEGER NOT NULL DEFAULT 0,
    content TEXT NOT NULL DEFAULT '',
    timestamp INTEGER NOT NULL,  -- Unix milliseconds
    edited INTEGER NOT NULL DEFAULT 0,
    attachments TEXT NOT NULL DEFAULT '',  -- JSON array of filenames
    embed_count INTEGER NOT NULL DEFAULT 0,
    reaction_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_messages_channel ON messages(channel_id, id DESC);

-- Starred channels, pinned in the sidebar
CREATE TABLE IF NOT EXISTS favorites (
    channel_id INTEGER PRIMARY KEY,
    starred_at INTEGER NOT NULL
);

-- Last-read message marker per channel
CREATE TABLE IF NOT EXISTS read_state (
    channel_id INTEGER PRIMARY KEY,
    last_read_id INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// InitMetadata initializes the metadata table with default values
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
INSERT OR IGNORE INTO metadata (key, value) VALUES ('created_at', strftime('%s', 'now'));
`
