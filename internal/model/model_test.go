// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the normalized domain entities for the client.
package model

import (
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/jeranaias/cordial-tui/internal/discord"
)

// =============================================================================
// CHANNEL NORMALIZATION TESTS
// =============================================================================

func TestNewChannelFromAPI_DMNames(t *testing.T) {
	tests := []struct {
		name     string
		channel  discord.Channel
		wantName string
		wantKind ChannelKind
	}{
		{
			name: "dm with global name",
			channel: discord.Channel{
				ID:         1,
				Type:       discord.ChannelTypeDM,
				Recipients: []discord.User{{ID: 10, Username: "nelly", GlobalName: "Nelly"}},
			},
			wantName: "Nelly",
			wantKind: ChannelDM,
		},
		{
			name: "dm falls back to username",
			channel: discord.Channel{
				ID:         2,
				Type:       discord.ChannelTypeDM,
				Recipients: []discord.User{{ID: 11, Username: "nelly"}},
			},
			wantName: "nelly",
			wantKind: ChannelDM,
		},
		{
			name: "dm with no recipients",
			channel: discord.Channel{
				ID:   3,
				Type: discord.ChannelTypeDM,
			},
			wantName: "Unknown",
			wantKind: ChannelDM,
		},
		{
			name: "dm with empty recipient fields",
			channel: discord.Channel{
				ID:         4,
				Type:       discord.ChannelTypeDM,
				Recipients: []discord.User{{ID: 12}},
			},
			wantName: "Unknown",
			wantKind: ChannelDM,
		},
		{
			name: "group dm keeps upstream name",
			channel: discord.Channel{
				ID:   5,
				Type: discord.ChannelTypeGroupDM,
				Name: "weekend crew",
			},
			wantName: "weekend crew",
			wantKind: ChannelGroupDM,
		},
		{
			name: "group dm without name",
			channel: discord.Channel{
				ID:         6,
				Type:       discord.ChannelTypeGroupDM,
				Recipients: []discord.User{{ID: 13, Username: "a"}, {ID: 14, Username: "b"}},
			},
			wantName: "Group DM",
			wantKind: ChannelGroupDM,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ch := NewChannelFromAPI(tc.channel)
			if ch.Name != tc.wantName {
				t.Errorf("Name = %q, want %q", ch.Name, tc.wantName)
			}
			if ch.Kind != tc.wantKind {
				t.Errorf("Kind = %q, want %q", ch.Kind, tc.wantKind)
			}
			if ch.Name == "" {
				t.Error("normalized channel name must never be empty")
			}
		})
	}
}

func TestNewChannelFromAPI_KindMapping(t *testing.T) {
	tests := []struct {
		wireType discord.ChannelType
		want     ChannelKind
	}{
		{discord.ChannelTypeGuildText, ChannelText},
		{discord.ChannelTypeGuildAnnouncement, ChannelText},
		{discord.ChannelTypeGuildVoice, ChannelVoice},
		{discord.ChannelTypeGuildCategory, ChannelCategory},
		{discord.ChannelTypeDM, ChannelDM},
		{discord.ChannelTypeGroupDM, ChannelGroupDM},
		{discord.ChannelTypeAnnouncementThread, ChannelThread},
		{discord.ChannelTypePublicThread, ChannelThread},
		{discord.ChannelTypePrivateThread, ChannelThread},
	}

	for _, tc := range tests {
		ch := NewChannelFromAPI(discord.Channel{ID: 1, Type: tc.wireType, Name: "x"})
		if ch.Kind != tc.want {
			t.Errorf("type %d: Kind = %q, want %q", tc.wireType, ch.Kind, tc.want)
		}
	}
}

func TestChannel_IsDM(t *testing.T) {
	dm := Channel{ID: 1, Kind: ChannelDM}
	if !dm.IsDM() {
		t.Error("channel with zero GuildID should be a DM")
	}

	guild := Channel{ID: 2, GuildID: 99, Kind: ChannelText}
	if guild.IsDM() {
		t.Error("channel with a GuildID should not be a DM")
	}
}

func TestChannelKind_HasMessages(t *testing.T) {
	withHistory := []ChannelKind{ChannelText, ChannelDM, ChannelGroupDM, ChannelThread}
	for _, k := range withHistory {
		if !k.HasMessages() {
			t.Errorf("%s should carry message history", k)
		}
	}

	without := []ChannelKind{ChannelVoice, ChannelCategory}
	for _, k := range without {
		if k.HasMessages() {
			t.Errorf("%s should not carry message history", k)
		}
	}
}

// =============================================================================
// AUTHOR TESTS
// =============================================================================

func TestAuthor_DisplayName(t *testing.T) {
	tests := []struct {
		name   string
		author Author
		want   string
	}{
		{"global name preferred", Author{Username: "nelly", GlobalName: "Nelly"}, "Nelly"},
		{"username fallback", Author{Username: "nelly"}, "nelly"},
		{"empty author", Author{}, "Unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.author.DisplayName(); got != tc.want {
				t.Errorf("DisplayName() = %q, want %q", got, tc.want)
			}
		})
	}
}

// =============================================================================
// MESSAGE CONVERSION TESTS
// =============================================================================

func TestNewMessageFromAPI(t *testing.T) {
	edited := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	wire := discord.Message{
		ID:              snowflake.ID(100),
		ChannelID:       snowflake.ID(7),
		Author:          discord.User{ID: 42, Username: "nelly", GlobalName: "Nelly", Bot: true},
		Content:         "hello",
		Timestamp:       time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC),
		EditedTimestamp: &edited,
		Attachments: []discord.Attachment{
			{ID: 1, Filename: "photo.png", Size: 1024},
			{ID: 2, Filename: "notes.txt", Size: 64},
		},
		Embeds:    []discord.Embed{{Type: "rich"}},
		Reactions: []discord.Reaction{{Count: 3}, {Count: 2}},
	}

	msg := NewMessageFromAPI(wire)

	if msg.Author.ID != snowflake.ID(42) || !msg.Author.Bot {
		t.Errorf("Author = %+v", msg.Author)
	}
	if !msg.Edited {
		t.Error("Edited should be true when edited_timestamp is set")
	}
	if len(msg.Attachments) != 2 || msg.Attachments[0].Filename != "photo.png" {
		t.Errorf("Attachments = %+v", msg.Attachments)
	}
	if msg.EmbedCount != 1 {
		t.Errorf("EmbedCount = %d, want 1", msg.EmbedCount)
	}
	if msg.ReactionCount != 5 {
		t.Errorf("ReactionCount = %d, want 5", msg.ReactionCount)
	}
}

func TestNewMessagesFromAPI_PreservesOrder(t *testing.T) {
	wire := []discord.Message{
		{ID: 3}, {ID: 2}, {ID: 1}, // newest first, as the API returns
	}

	messages := NewMessagesFromAPI(wire)

	if len(messages) != 3 {
		t.Fatalf("len = %d, want 3", len(messages))
	}
	for i, want := range []snowflake.ID{3, 2, 1} {
		if messages[i].ID != want {
			t.Errorf("messages[%d].ID = %s, want %s", i, messages[i].ID, want)
		}
	}
}

// =============================================================================
// MEMBER CONVERSION TESTS
// =============================================================================

func TestNewMemberFromAPI(t *testing.T) {
	wire := discord.Member{
		User:  &discord.User{ID: 42, Username: "nelly"},
		Nick:  "nel",
		Roles: []snowflake.ID{5, 9, 2},
	}

	m := NewMemberFromAPI(snowflake.ID(7), wire)

	if m.GuildID != snowflake.ID(7) {
		t.Errorf("GuildID = %s, want 7", m.GuildID)
	}
	if m.UserID != snowflake.ID(42) {
		t.Errorf("UserID = %s, want 42", m.UserID)
	}
	if m.Nick != "nel" {
		t.Errorf("Nick = %q, want 'nel'", m.Nick)
	}
	if len(m.Roles) != 3 || m.Roles[0] != snowflake.ID(5) {
		t.Errorf("Roles = %v, want API order preserved", m.Roles)
	}
}

func TestNewMemberFromAPI_NilUser(t *testing.T) {
	m := NewMemberFromAPI(snowflake.ID(7), discord.Member{})
	if m.UserID != 0 {
		t.Errorf("UserID = %s, want zero for nil user", m.UserID)
	}
}

// =============================================================================
// COLOR TESTS
// =============================================================================

func TestColorFromInt(t *testing.T) {
	tests := []struct {
		name  string
		color int
		want  Color
	}{
		{"red", 0xFF0000, "#ff0000"},
		{"green", 0x00FF00, "#00ff00"},
		{"small value pads", 0x00000F, "#00000f"},
		{"high bits masked", 0x1FF0000, "#ff0000"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ColorFromInt(tc.color); got != tc.want {
				t.Errorf("ColorFromInt(%#x) = %q, want %q", tc.color, got, tc.want)
			}
		})
	}
}

func TestColor_IsDefault(t *testing.T) {
	if !DefaultColor.IsDefault() {
		t.Error("DefaultColor.IsDefault() should be true")
	}
	if ColorFromInt(0xFF0000).IsDefault() {
		t.Error("concrete color should not be default")
	}
	if DefaultColor.String() != "#5865F2" {
		t.Errorf("DefaultColor = %q, want #5865F2", DefaultColor)
	}
}
