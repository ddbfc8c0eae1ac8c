// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the normalized domain entities for the client.
package model

import (
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/jeranaias/cordial-tui/internal/discord"
)

// =============================================================================
// GUILD
// =============================================================================

// Guild is a server the user belongs to. Guilds are created on first
// reference and live for the whole session; a re-fetch refreshes the name.
type Guild struct {
	ID   snowflake.ID
	Name string
	Icon string
}

// NewGuildFromAPI converts a wire guild record.
func NewGuildFromAPI(g discord.Guild) Guild {
	return Guild{
		ID:   g.ID,
		Name: g.Name,
		Icon: g.Icon,
	}
}

// =============================================================================
// CHANNEL
// =============================================================================

// ChannelKind classifies a channel for display and fetch decisions.
type ChannelKind string

const (
	ChannelText     ChannelKind = "text"
	ChannelVoice    ChannelKind = "voice"
	ChannelCategory ChannelKind = "category"
	ChannelDM       ChannelKind = "dm"
	ChannelGroupDM  ChannelKind = "group_dm"
	ChannelThread   ChannelKind = "thread"
)

// String returns the string representation of the kind.
func (k ChannelKind) String() string {
	return string(k)
}

// HasMessages reports whether a channel of this kind carries message history
// worth fetching.
func (k ChannelKind) HasMessages() bool {
	switch k {
	case ChannelText, ChannelDM, ChannelGroupDM, ChannelThread:
		return true
	default:
		return false
	}
}

// Channel is a normalized channel. GuildID is zero for direct messages.
// Name is never empty: DM channels without an upstream name are named at
// ingestion by NewChannelFromAPI.
type Channel struct {
	ID            snowflake.ID
	GuildID       snowflake.ID
	Name          string
	Kind          ChannelKind
	ParentID      snowflake.ID
	Position      int
	LastMessageID snowflake.ID
}

// IsDM reports whether the channel is a direct message (one-to-one or group).
func (c Channel) IsDM() bool {
	return c.GuildID == 0
}

// NewChannelFromAPI converts a wire channel record, normalizing the kind and
// guaranteeing a non-empty name. One-to-one DMs take the recipient's global
// name, then username, then "Unknown"; unnamed group DMs become "Group DM".
func NewChannelFromAPI(ch discord.Channel) Channel {
	return Channel{
		ID:            ch.ID,
		GuildID:       ch.GuildID,
		Name:          channelName(ch),
		Kind:          channelKind(ch.Type),
		ParentID:      ch.ParentID,
		Position:      ch.Position,
		LastMessageID: ch.LastMessageID,
	}
}

// NewChannelsFromAPI converts a page of wire channel records.
func NewChannelsFromAPI(channels []discord.Channel) []Channel {
	out := make([]Channel, 0, len(channels))
	for _, ch := range channels {
		out = append(out, NewChannelFromAPI(ch))
	}
	return out
}

func channelKind(t discord.ChannelType) ChannelKind {
	switch t {
	case discord.ChannelTypeDM:
		return ChannelDM
	case discord.ChannelTypeGroupDM:
		return ChannelGroupDM
	case discord.ChannelTypeGuildVoice:
		return ChannelVoice
	case discord.ChannelTypeGuildCategory:
		return ChannelCategory
	case discord.ChannelTypeAnnouncementThread, discord.ChannelTypePublicThread, discord.ChannelTypePrivateThread:
		return ChannelThread
	default:
		// Text, announcement, and anything Discord adds later that still
		// behaves like a text channel
		return ChannelText
	}
}

func channelName(ch discord.Channel) string {
	switch ch.Type {
	case discord.ChannelTypeDM:
		if len(ch.Recipients) > 0 {
			r := ch.Recipients[0]
			if r.GlobalName != "" {
				return r.GlobalName
			}
			if r.Username != "" {
				return r.Username
			}
		}
		return "Unknown"

	case discord.ChannelTypeGroupDM:
		if ch.Name != "" {
			return ch.Name
		}
		return "Group DM"

	default:
		return ch.Name
	}
}

// =============================================================================
// MEMBER
// =============================================================================

// Member is a guild membership, keyed by (GuildID, UserID). The role list
// preserves the API order; role objects live in the guild role list.
type Member struct {
	GuildID snowflake.ID
	UserID  snowflake.ID
	Nick    string
	Roles   []snowflake.ID
}

// NewMemberFromAPI converts a wire member record. The wire record does not
// repeat the guild, so the caller supplies the guild ID it was fetched for.
func NewMemberFromAPI(guildID snowflake.ID, m discord.Member) Member {
	member := Member{
		GuildID: guildID,
		Nick:    m.Nick,
		Roles:   m.Roles,
	}
	if m.User != nil {
		member.UserID = m.User.ID
	}
	return member
}

// =============================================================================
// ROLE
// =============================================================================

// Role is a guild role. Color is a packed 0xRRGGBB integer where zero means
// "no color set"; Position ranks the role within its guild, higher first.
type Role struct {
	ID       snowflake.ID
	Name     string
	Color    int
	Position int
}

// NewRoleFromAPI converts a wire role record.
func NewRoleFromAPI(r discord.Role) Role {
	return Role{
		ID:       r.ID,
		Name:     r.Name,
		Color:    r.Color,
		Position: r.Position,
	}
}

// NewRolesFromAPI converts a guild's wire role list.
func NewRolesFromAPI(roles []discord.Role) []Role {
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, NewRoleFromAPI(r))
	}
	return out
}

// =============================================================================
// MESSAGE
// =============================================================================

// Author identifies who sent a message.
type Author struct {
	ID         snowflake.ID
	Username   string
	GlobalName string
	Bot        bool
}

// DisplayName returns the name to render for the author: the global display
// name when set, otherwise the username handle.
func (a Author) DisplayName() string {
	if a.GlobalName != "" {
		return a.GlobalName
	}
	if a.Username != "" {
		return a.Username
	}
	return "Unknown"
}

// Attachment is an opaque stub: the client surfaces filenames, never
// downloads payloads.
type Attachment struct {
	Filename string
}

// Message is an immutable channel message. Embeds and reactions are carried
// as counts only.
type Message struct {
	ID            snowflake.ID
	ChannelID     snowflake.ID
	Author        Author
	Content       string
	Timestamp     time.Time
	Edited        bool
	Attachments   []Attachment
	EmbedCount    int
	ReactionCount int
}

// NewMessageFromAPI converts a wire message record.
func NewMessageFromAPI(m discord.Message) Message {
	msg := Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Author: Author{
			ID:         m.Author.ID,
			Username:   m.Author.Username,
			GlobalName: m.Author.GlobalName,
			Bot:        m.Author.Bot,
		},
		Content:    m.Content,
		Timestamp:  m.Timestamp,
		Edited:     m.EditedTimestamp != nil,
		EmbedCount: len(m.Embeds),
	}

	if len(m.Attachments) > 0 {
		msg.Attachments = make([]Attachment, 0, len(m.Attachments))
		for _, a := range m.Attachments {
			msg.Attachments = append(msg.Attachments, Attachment{Filename: a.Filename})
		}
	}

	for _, r := range m.Reactions {
		msg.ReactionCount += r.Count
	}

	return msg
}

// NewMessagesFromAPI converts a page of wire message records, preserving the
// API's newest-first order.
func NewMessagesFromAPI(messages []discord.Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, NewMessageFromAPI(m))
	}
	return out
}
