// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package discord provides the HTTP client for the Discord REST API (v10).
package discord

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// =============================================================================
// CHANNEL TYPE CODES
// =============================================================================

// ChannelType is the numeric channel type code used on the wire.
type ChannelType int

const (
	ChannelTypeGuildText          ChannelType = 0
	ChannelTypeDM                 ChannelType = 1
	ChannelTypeGuildVoice         ChannelType = 2
	ChannelTypeGroupDM            ChannelType = 3
	ChannelTypeGuildCategory      ChannelType = 4
	ChannelTypeGuildAnnouncement  ChannelType = 5
	ChannelTypeAnnouncementThread ChannelType = 10
	ChannelTypePublicThread       ChannelType = 11
	ChannelTypePrivateThread      ChannelType = 12
)

// =============================================================================
// ENTITY TYPES
// =============================================================================

// User is a Discord user record as returned by the API.
type User struct {
	ID            snowflake.ID `json:"id"`
	Username      string       `json:"username"`       // Unique handle
	GlobalName    string       `json:"global_name"`    // Display name, may be empty
	Discriminator string       `json:"discriminator"`  // Legacy tag, "0" for migrated accounts
	Avatar        string       `json:"avatar"`
	Bot           bool         `json:"bot"`
}

// Guild is a partial guild record from GET /users/@me/guilds.
type Guild struct {
	ID    snowflake.ID `json:"id"`
	Name  string       `json:"name"`
	Icon  string       `json:"icon"`
	Owner bool         `json:"owner"`
}

// Channel is a channel record. DM channels (types 1 and 3) have no guild_id
// and may have no name; recipients carries the DM parties instead.
type Channel struct {
	ID            snowflake.ID `json:"id"`
	Type          ChannelType  `json:"type"`
	GuildID       snowflake.ID `json:"guild_id,omitempty"`
	Name          string       `json:"name,omitempty"`
	ParentID      snowflake.ID `json:"parent_id,omitempty"`
	Position      int          `json:"position,omitempty"`
	Topic         string       `json:"topic,omitempty"`
	Recipients    []User       `json:"recipients,omitempty"`
	LastMessageID snowflake.ID `json:"last_message_id,omitempty"`
}

// Role is a guild role. Color is a packed 0xRRGGBB integer; 0 means the role
// contributes no color. Position ranks roles within the guild (higher wins).
type Role struct {
	ID       snowflake.ID `json:"id"`
	Name     string       `json:"name"`
	Color    int          `json:"color"`
	Position int          `json:"position"`
	Managed  bool         `json:"managed"`
}

// Member is a guild membership record. Roles holds the IDs of the roles the
// member carries; the role objects themselves come from the guild role list.
type Member struct {
	User     *User          `json:"user,omitempty"`
	Nick     string         `json:"nick,omitempty"`
	Roles    []snowflake.ID `json:"roles"`
	JoinedAt time.Time      `json:"joined_at"`
}

// Attachment is a file attached to a message. Only identity and filename are
// consumed; the payload is never downloaded.
type Attachment struct {
	ID          snowflake.ID `json:"id"`
	Filename    string       `json:"filename"`
	Size        int64        `json:"size"`
	ContentType string       `json:"content_type,omitempty"`
}

// Embed is carried opaquely; embeds are counted, never laid out.
type Embed struct {
	Type        string `json:"type,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// ReactionEmoji identifies the emoji of a reaction group.
type ReactionEmoji struct {
	ID   snowflake.ID `json:"id,omitempty"`
	Name string       `json:"name"`
}

// Reaction is an aggregated reaction group on a message.
type Reaction struct {
	Count int           `json:"count"`
	Me    bool          `json:"me"`
	Emoji ReactionEmoji `json:"emoji"`
}

// Message is a channel message record. Timestamps arrive as ISO-8601 and
// decode directly into time.Time.
type Message struct {
	ID              snowflake.ID `json:"id"`
	ChannelID       snowflake.ID `json:"channel_id"`
	Author          User         `json:"author"`
	Content         string       `json:"content"`
	Timestamp       time.Time    `json:"timestamp"`
	EditedTimestamp *time.Time   `json:"edited_timestamp"`
	Attachments     []Attachment `json:"attachments"`
	Embeds          []Embed      `json:"embeds"`
	Reactions       []Reaction   `json:"reactions,omitempty"`
}

// =============================================================================
// ERROR BODY
// =============================================================================

// apiErrorBody is the JSON error payload Discord attaches to non-2xx
// responses. retry_after is fractional seconds on 429s.
type apiErrorBody struct {
	Message    string  `json:"message"`
	Code       int     `json:"code"`
	RetryAfter float64 `json:"retry_after"`
	Global     bool    `json:"global"`
}
