// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package state holds the in-memory entity cache shared by the fetch,
// color, and UI layers.
//
// The Store is the only shared mutable state in the application. All
// mutation is upsert-style per key, so writes commute and last-write-wins
// on re-fetch. Locks are sharded per entity kind: a member write never
// blocks a channel read. There is no eviction; entities live for the
// session.
package state

import (
	"sort"
	"sync"

	"github.com/disgoorg/snowflake/v2"

	"github.com/jeranaias/cordial-tui/internal/model"
)

// =============================================================================
// STORE
// =============================================================================

// memberKey identifies a guild membership.
type memberKey struct {
	guildID snowflake.ID
	userID  snowflake.ID
}

// Store is the authoritative in-memory cache of guilds, channels, members,
// and roles. Construct with NewStore and inject it; there are no package
// globals.
//
// The zero value is not usable.
type Store struct {
	guildsMu sync.RWMutex
	guilds   map[snowflake.ID]model.Guild

	channelsMu sync.RWMutex
	channels   map[snowflake.ID]model.Channel

	membersMu sync.RWMutex
	members   map[memberKey]model.Member

	rolesMu sync.RWMutex
	roles   map[snowflake.ID][]model.Role
}

// NewStore creates an empty entity store.
func NewStore() *Store {
	return &Store{
		guilds:   make(map[snowflake.ID]model.Guild),
		channels: make(map[snowflake.ID]model.Channel),
		members:  make(map[memberKey]model.Member),
		roles:    make(map[snowflake.ID][]model.Role),
	}
}

// =============================================================================
// GUILDS
// =============================================================================

// Guild returns the guild with the given ID.
func (s *Store) Guild(id snowflake.ID) (model.Guild, bool) {
	s.guildsMu.RLock()
	defer s.guildsMu.RUnlock()

	g, ok := s.guilds[id]
	return g, ok
}

// PutGuild upserts a guild. Re-fetching refreshes the name; guilds are never
// deleted within a session.
func (s *Store) PutGuild(g model.Guild) {
	s.guildsMu.Lock()
	defer s.guildsMu.Unlock()

	s.guilds[g.ID] = g
}

// PutGuilds upserts a batch of guilds.
func (s *Store) PutGuilds(guilds []model.Guild) {
	s.guildsMu.Lock()
	defer s.guildsMu.Unlock()

	for _, g := range guilds {
		s.guilds[g.ID] = g
	}
}

// Guilds returns all cached guilds sorted by name.
func (s *Store) Guilds() []model.Guild {
	s.guildsMu.RLock()
	defer s.guildsMu.RUnlock()

	out := make([]model.Guild, 0, len(s.guilds))
	for _, g := range s.guilds {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// =============================================================================
// CHANNELS
// =============================================================================

// Channel returns the channel with the given ID.
func (s *Store) Channel(id snowflake.ID) (model.Channel, bool) {
	s.channelsMu.RLock()
	defer s.channelsMu.RUnlock()

	c, ok := s.channels[id]
	return c, ok
}

// PutChannel upserts a channel. The upsert merges rather than overwrites:
// a record with an empty name never erases a populated one, so a partial
// re-fetch cannot blank a DM title that ingestion already normalized.
func (s *Store) PutChannel(c model.Channel) {
	s.channelsMu.Lock()
	defer s.channelsMu.Unlock()

	s.putChannelLocked(c)
}

// PutChannels upserts a batch of channels under one lock acquisition.
func (s *Store) PutChannels(channels []model.Channel) {
	s.channelsMu.Lock()
	defer s.channelsMu.Unlock()

	for _, c := range channels {
		s.putChannelLocked(c)
	}
}

func (s *Store) putChannelLocked(c model.Channel) {
	if existing, ok := s.channels[c.ID]; ok {
		if c.Name == "" {
			c.Name = existing.Name
		}
		if c.LastMessageID == 0 {
			c.LastMessageID = existing.LastMessageID
		}
	}
	s.channels[c.ID] = c
}

// ChannelsByGuild returns a guild's cached channels sorted by position.
func (s *Store) ChannelsByGuild(guildID snowflake.ID) []model.Channel {
	s.channelsMu.RLock()
	defer s.channelsMu.RUnlock()

	out := make([]model.Channel, 0, 16)
	for _, c := range s.channels {
		if c.GuildID == guildID && guildID != 0 {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// DMChannels returns cached direct message channels, most recently active
// first. Message snowflakes grow over time, so the last message ID orders
// by recency.
func (s *Store) DMChannels() []model.Channel {
	s.channelsMu.RLock()
	defer s.channelsMu.RUnlock()

	out := make([]model.Channel, 0, 16)
	for _, c := range s.channels {
		if c.IsDM() {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastMessageID != out[j].LastMessageID {
			return out[i].LastMessageID > out[j].LastMessageID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// =============================================================================
// MEMBERS
// =============================================================================

// Member returns the cached membership for (guildID, userID).
func (s *Store) Member(guildID, userID snowflake.ID) (model.Member, bool) {
	s.membersMu.RLock()
	defer s.membersMu.RUnlock()

	m, ok := s.members[memberKey{guildID, userID}]
	if !ok {
		return model.Member{}, false
	}
	m.Roles = cloneIDs(m.Roles)
	return m, true
}

// PutMember upserts a membership. Members are fetched lazily and cached for
// the session, never invalidated.
func (s *Store) PutMember(m model.Member) {
	s.membersMu.Lock()
	defer s.membersMu.Unlock()

	m.Roles = cloneIDs(m.Roles)
	s.members[memberKey{m.GuildID, m.UserID}] = m
}

// =============================================================================
// ROLES
// =============================================================================

// Roles returns a guild's role list. ok is false when the guild's roles
// have never been fetched — distinct from a guild that genuinely has an
// empty role list.
func (s *Store) Roles(guildID snowflake.ID) ([]model.Role, bool) {
	s.rolesMu.RLock()
	defer s.rolesMu.RUnlock()

	roles, ok := s.roles[guildID]
	if !ok {
		return nil, false
	}
	return cloneRoles(roles), true
}

// PutRoles replaces a guild's role list. Role lists are fetched as a unit,
// so whole-list replacement is the upsert.
func (s *Store) PutRoles(guildID snowflake.ID, roles []model.Role) {
	s.rolesMu.Lock()
	defer s.rolesMu.Unlock()

	s.roles[guildID] = cloneRoles(roles)
}

// =============================================================================
// STATS
// =============================================================================

// Stats describes how much the store currently holds.
type Stats struct {
	Guilds   int
	Channels int
	Members  int
	RoleSets int
}

// Stats returns entity counts for the status surface.
func (s *Store) Stats() Stats {
	var st Stats

	s.guildsMu.RLock()
	st.Guilds = len(s.guilds)
	s.guildsMu.RUnlock()

	s.channelsMu.RLock()
	st.Channels = len(s.channels)
	s.channelsMu.RUnlock()

	s.membersMu.RLock()
	st.Members = len(s.members)
	s.membersMu.RUnlock()

	s.rolesMu.RLock()
	st.RoleSets = len(s.roles)
	s.rolesMu.RUnlock()

	return st
}

// =============================================================================
// HELPERS
// =============================================================================

// cloneIDs copies a role ID list so callers and the store never share a
// backing array.
func cloneIDs(ids []snowflake.ID) []snowflake.ID {
	if ids == nil {
		return nil
	}
	out := make([]snowflake.ID, len(ids))
	copy(out, ids)
	return out
}

// cloneRoles copies a role list for the same reason.
func cloneRoles(roles []model.Role) []model.Role {
	out := make([]model.Role, len(roles))
	copy(out, roles)
	return out
}
