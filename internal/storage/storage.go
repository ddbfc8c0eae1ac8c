// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists fetched entities for warm start and offline reads.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/disgoorg/snowflake/v2"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/cordial-tui/internal/model"
)

// =============================================================================
// STORE
// =============================================================================

// maxMessagesPerChannel bounds the cached history window. Saves prune
// older rows beyond it so the database stays a cache, not an archive.
const maxMessagesPerChannel = 500

// defaultMessageLimit is used when a read passes a non-positive limit.
const defaultMessageLimit = 50

// Store is the SQLite-backed persistent cache. It serves the warm-start
// sidebar, the offline message fallback, favorites, and read markers. All
// writes are upserts: re-saving an entity refreshes it.
type Store struct {
	db   *sql.DB
	path string
}

// DefaultPath returns the default database path (~/.cordial/cache.db).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".cordial", "cache.db"), nil
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY churn entirely
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-16000", // 16MB cache
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// GUILDS
// =============================================================================

// SaveGuilds upserts a guild list.
func (s *Store) SaveGuilds(ctx context.Context, guilds []model.Guild) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, g := range guilds {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO guilds (id, name, icon, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				icon = excluded.icon,
				updated_at = excluded.updated_at
		`, int64(g.ID), g.Name, g.Icon, now)
		if err != nil {
			return fmt.Errorf("failed to save guild %d: %w", g.ID, err)
		}
	}

	return tx.Commit()
}

// Guilds returns all cached guilds, sorted by name.
func (s *Store) Guilds(ctx context.Context) ([]model.Guild, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, icon FROM guilds ORDER BY name COLLATE NOCASE, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query guilds: %w", err)
	}
	defer rows.Close()

	var out []model.Guild
	for rows.Next() {
		var id int64
		var g model.Guild
		if err := rows.Scan(&id, &g.Name, &g.Icon); err != nil {
			return nil, fmt.Errorf("failed to scan guild: %w", err)
		}
		g.ID = snowflake.ID(id)
		out = append(out, g)
	}
	return out, rows.Err()
}

// =============================================================================
// CHANNELS
// =============================================================================

// SaveChannels upserts a channel list.
func (s *Store) SaveChannels(ctx context.Context, channels []model.Channel) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, ch := range channels {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO channels (id, guild_id, name, kind, parent_id, position, last_message_id, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				guild_id = excluded.guild_id,
				name = excluded.name,
				kind = excluded.kind,
				parent_id = excluded.parent_id,
				position = excluded.position,
				last_message_id = excluded.last_message_id,
				updated_at = excluded.updated_at
		`, int64(ch.ID), int64(ch.GuildID), ch.Name, string(ch.Kind),
			int64(ch.ParentID), ch.Position, int64(ch.LastMessageID), now)
		if err != nil {
			return fmt.Errorf("failed to save channel %d: %w", ch.ID, err)
		}
	}

	return tx.Commit()
}

// Channels returns the cached channels of one guild, in display order.
func (s *Store) Channels(ctx context.Context, guildID snowflake.ID) ([]model.Channel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guild_id, name, kind, parent_id, position, last_message_id
		FROM channels WHERE guild_id = ?
		ORDER BY position, id
	`, int64(guildID))
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer rows.Close()

	return scanChannels(rows)
}

// DMChannels returns the cached direct-message channels, most recently
// active first.
func (s *Store) DMChannels(ctx context.Context) ([]model.Channel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guild_id, name, kind, parent_id, position, last_message_id
		FROM channels WHERE guild_id = 0
		ORDER BY last_message_id DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query DM channels: %w", err)
	}
	defer rows.Close()

	return scanChannels(rows)
}

func scanChannels(rows *sql.Rows) ([]model.Channel, error) {
	var out []model.Channel
	for rows.Next() {
		var id, guildID, parentID, lastMessageID int64
		var kind string
		var ch model.Channel
		if err := rows.Scan(&id, &guildID, &ch.Name, &kind, &parentID, &ch.Position, &lastMessageID); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		ch.ID = snowflake.ID(id)
		ch.GuildID = snowflake.ID(guildID)
		ch.Kind = model.ChannelKind(kind)
		ch.ParentID = snowflake.ID(parentID)
		ch.LastMessageID = snowflake.ID(lastMessageID)
		out = append(out, ch)
	}
	return out, rows.Err()
}

// Channel looks up a single cached channel by ID.
func (s *Store) Channel(ctx context.Context, id snowflake.ID) (model.Channel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guild_id, name, kind, parent_id, position, last_message_id
		FROM channels WHERE id = ?
	`, int64(id))
	if err != nil {
		return model.Channel{}, fmt.Errorf("failed to query channel: %w", err)
	}
	defer rows.Close()

	channels, err := scanChannels(rows)
	if err != nil {
		return model.Channel{}, err
	}
	if len(channels) == 0 {
		return model.Channel{}, fmt.Errorf("channel %s not cached", id)
	}
	return channels[0], nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// SaveMessages upserts a page of messages for one channel and prunes the
// channel's history beyond the cache window.
func (s *Store) SaveMessages(ctx context.Context, channelID snowflake.ID, messages []model.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range messages {
		attachments, err := encodeAttachments(m.Attachments)
		if err != nil {
			return fmt.Errorf("failed to encode attachments for message %d: %w", m.ID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO messages (id, channel_id, author_id, author_username, author_global_name,
				author_bot, content, timestamp, edited, attachments, embed_count, reaction_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				content = excluded.content,
				edited = excluded.edited,
				attachments = excluded.attachments,
				embed_count = excluded.embed_count,
				reaction_count = excluded.reaction_count
		`, int64(m.ID), int64(channelID), int64(m.Author.ID), m.Author.Username,
			m.Author.GlobalName, boolToInt(m.Author.Bot), m.Content,
			m.Timestamp.UnixMilli(), boolToInt(m.Edited), attachments,
			m.EmbedCount, m.ReactionCount)
		if err != nil {
			return fmt.Errorf("failed to save message %d: %w", m.ID, err)
		}
	}

	// Keep only the newest window per channel
	_, err = tx.ExecContext(ctx, `
		DELETE FROM messages
		WHERE channel_id = ? AND id NOT IN (
			SELECT id FROM messages WHERE channel_id = ?
			ORDER BY id DESC LIMIT ?
		)
	`, int64(channelID), int64(channelID), maxMessagesPerChannel)
	if err != nil {
		return fmt.Errorf("failed to prune messages: %w", err)
	}

	return tx.Commit()
}

// Messages returns cached messages for a channel, newest first, matching
// the API page shape: up to limit messages, strictly older than before
// when before is non-zero.
func (s *Store) Messages(ctx context.Context, channelID snowflake.ID, limit int, before snowflake.ID) ([]model.Message, error) {
	if limit <= 0 {
		limit = defaultMessageLimit
	}

	query := `
		SELECT id, channel_id, author_id, author_username, author_global_name,
			author_bot, content, timestamp, edited, attachments, embed_count, reaction_count
		FROM messages WHERE channel_id = ?`
	args := []any{int64(channelID)}

	if before != 0 {
		query += ` AND id < ?`
		args = append(args, int64(before))
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		var id, chID, authorID, ts int64
		var bot, edited int
		var attachments string
		var m model.Message
		if err := rows.Scan(&id, &chID, &authorID, &m.Author.Username, &m.Author.GlobalName,
			&bot, &m.Content, &ts, &edited, &attachments, &m.EmbedCount, &m.ReactionCount); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.ID = snowflake.ID(id)
		m.ChannelID = snowflake.ID(chID)
		m.Author.ID = snowflake.ID(authorID)
		m.Author.Bot = bot != 0
		m.Timestamp = time.UnixMilli(ts).UTC()
		m.Edited = edited != 0
		m.Attachments, err = decodeAttachments(attachments)
		if err != nil {
			return nil, fmt.Errorf("failed to decode attachments for message %d: %w", m.ID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func encodeAttachments(attachments []model.Attachment) (string, error) {
	if len(attachments) == 0 {
		return "", nil
	}
	names := make([]string, len(attachments))
	for i, a := range attachments {
		names[i] = a.Filename
	}
	b, err := json.Marshal(names)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeAttachments(encoded string) ([]model.Attachment, error) {
	if encoded == "" {
		return nil, nil
	}
	var names []string
	if err := json.Unmarshal([]byte(encoded), &names); err != nil {
		return nil, err
	}
	out := make([]model.Attachment, len(names))
	for i, n := range names {
		out[i] = model.Attachment{Filename: n}
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// =============================================================================
// FAVORITES
// =============================================================================

// Star marks a channel as a favorite.
func (s *Store) Star(ctx context.Context, channelID snowflake.ID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO favorites (channel_id, starred_at) VALUES (?, ?)
	`, int64(channelID), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to star channel: %w", err)
	}
	return nil
}

// Unstar removes a channel from favorites.
func (s *Store) Unstar(ctx context.Context, channelID snowflake.ID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE channel_id = ?`, int64(channelID))
	if err != nil {
		return fmt.Errorf("failed to unstar channel: %w", err)
	}
	return nil
}

// Favorites returns the starred channel set.
func (s *Store) Favorites(ctx context.Context) (map[snowflake.ID]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT channel_id FROM favorites`)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	out := make(map[snowflake.ID]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		out[snowflake.ID(id)] = true
	}
	return out, rows.Err()
}

// =============================================================================
// READ STATE
// =============================================================================

// MarkRead advances the last-read marker for a channel. The marker is
// monotonic: marking an older message than the stored one is a no-op.
func (s *Store) MarkRead(ctx context.Context, channelID, messageID snowflake.ID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO read_state (channel_id, last_read_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(channel_id) DO UPDATE SET
			last_read_id = MAX(last_read_id, excluded.last_read_id),
			updated_at = excluded.updated_at
	`, int64(channelID), int64(messageID), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to mark read: %w", err)
	}
	return nil
}

// ReadStates returns the last-read message ID per channel.
func (s *Store) ReadStates(ctx context.Context) (map[snowflake.ID]snowflake.ID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT channel_id, last_read_id FROM read_state`)
	if err != nil {
		return nil, fmt.Errorf("failed to query read state: %w", err)
	}
	defer rows.Close()

	out := make(map[snowflake.ID]snowflake.ID)
	for rows.Next() {
		var channelID, lastReadID int64
		if err := rows.Scan(&channelID, &lastReadID); err != nil {
			return nil, fmt.Errorf("failed to scan read state: %w", err)
		}
		out[snowflake.ID(channelID)] = snowflake.ID(lastReadID)
	}
	return out, rows.Err()
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Stats describes the cache contents for the status and cache commands.
type Stats struct {
	Guilds    int
	Channels  int
	Messages  int
	Favorites int
	SizeBytes int64
}

// Stats returns row counts and the database file size.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	counts := []struct {
		query string
		dst   *int
	}{
		{"SELECT COUNT(*) FROM guilds", &st.Guilds},
		{"SELECT COUNT(*) FROM channels", &st.Channels},
		{"SELECT COUNT(*) FROM messages", &st.Messages},
		{"SELECT COUNT(*) FROM favorites", &st.Favorites},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return Stats{}, fmt.Errorf("failed to count rows: %w", err)
		}
	}

	if info, err := os.Stat(s.path); err == nil {
		st.SizeBytes = info.Size()
	}

	return st, nil
}

// Clear drops the cached entity data. Favorites and read markers are user
// state, not cache, and survive.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"messages", "channels", "guilds"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	return tx.Commit()
}
