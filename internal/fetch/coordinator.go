// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package fetch coordinates REST reads against the entity store.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"golang.org/x/sync/singleflight"

	"github.com/jeranaias/cordial-tui/internal/discord"
	"github.com/jeranaias/cordial-tui/internal/metrics"
	"github.com/jeranaias/cordial-tui/internal/model"
	"github.com/jeranaias/cordial-tui/internal/state"
)

// =============================================================================
// ERRORS AND LIMITS
// =============================================================================

// ErrStale accompanies messages served from the persistent cache after the
// network failed. Callers receive usable data alongside this error and
// should surface a "cached" indicator rather than treating it as a failure.
var ErrStale = errors.New("serving stale data from offline cache")

// maxAttempts bounds total tries for a rate-limited request, first call
// included.
const maxAttempts = 3

// Metric kind labels, also used as dedup key prefixes.
const (
	kindGuilds     = "guilds"
	kindDMChannels = "dm_channels"
	kindChannels   = "channels"
	kindRoles      = "roles"
	kindMember     = "member"
	kindMessages   = "messages"
)

// =============================================================================
// INTERFACES
// =============================================================================

// API is the slice of the REST client the coordinator consumes.
type API interface {
	Guilds(ctx context.Context) ([]discord.Guild, error)
	DMChannels(ctx context.Context) ([]discord.Channel, error)
	GuildChannels(ctx context.Context, guildID snowflake.ID) ([]discord.Channel, error)
	GuildRoles(ctx context.Context, guildID snowflake.ID) ([]discord.Role, error)
	GuildMember(ctx context.Context, guildID, userID snowflake.ID) (discord.Member, error)
	Messages(ctx context.Context, channelID snowflake.ID, limit int, before snowflake.ID) ([]discord.Message, error)
}

// Cache is the slice of the persistent store the coordinator consumes:
// write-through on successful fetches, read-back when the network fails.
// All methods must tolerate concurrent use.
type Cache interface {
	SaveGuilds(ctx context.Context, guilds []model.Guild) error
	SaveChannels(ctx context.Context, channels []model.Channel) error
	SaveMessages(ctx context.Context, channelID snowflake.ID, messages []model.Message) error
	Messages(ctx context.Context, channelID snowflake.ID, limit int, before snowflake.ID) ([]model.Message, error)
}

// =============================================================================
// COORDINATOR
// =============================================================================

// Config wires a Coordinator. Client and Store are required; Cache,
// Tracker, and Logger are optional and default to no persistence, an
// in-memory tracker, and a discarding logger.
type Config struct {
	Client  API
	Store   *state.Store
	Cache   Cache
	Tracker *metrics.Tracker
	Logger  *slog.Logger
}

// Coordinator owns all REST traffic: request deduplication, the retry
// policy, store population, and the offline fallback.
type Coordinator struct {
	client  API
	store   *state.Store
	cache   Cache
	tracker *metrics.Tracker
	logger  *slog.Logger
	group   singleflight.Group
}

// NewCoordinator creates a coordinator from cfg, filling optional fields
// with defaults.
func NewCoordinator(cfg Config) *Coordinator {
	if cfg.Tracker == nil {
		cfg.Tracker = metrics.NewMemoryTracker()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Coordinator{
		client:  cfg.Client,
		store:   cfg.Store,
		cache:   cfg.Cache,
		tracker: cfg.Tracker,
		logger:  cfg.Logger.With("component", "fetch"),
	}
}

// =============================================================================
// GUILD AND CHANNEL LISTS
// =============================================================================

// Guilds fetches the user's guild list and upserts it into the store.
func (c *Coordinator) Guilds(ctx context.Context) ([]model.Guild, error) {
	v, err := c.dedup(ctx, kindGuilds, kindGuilds, func(ctx context.Context) (any, error) {
		raw, err := c.client.Guilds(ctx)
		if err != nil {
			return nil, err
		}

		guilds := make([]model.Guild, 0, len(raw))
		for _, g := range raw {
			guilds = append(guilds, model.NewGuildFromAPI(g))
		}

		c.store.PutGuilds(guilds)
		c.persistGuilds(ctx, guilds)
		return guilds, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Guild), nil
}

// DMChannels fetches the user's direct-message channels and upserts them
// into the store, newest-activity first as returned by the API.
func (c *Coordinator) DMChannels(ctx context.Context) ([]model.Channel, error) {
	v, err := c.dedup(ctx, kindDMChannels, kindDMChannels, func(ctx context.Context) (any, error) {
		raw, err := c.client.DMChannels(ctx)
		if err != nil {
			return nil, err
		}

		channels := model.NewChannelsFromAPI(raw)
		c.store.PutChannels(channels)
		c.persistChannels(ctx, channels)
		return channels, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Channel), nil
}

// Channels fetches a guild's channel list and upserts it into the store.
func (c *Coordinator) Channels(ctx context.Context, guildID snowflake.ID) ([]model.Channel, error) {
	key := fmt.Sprintf("%s:%s", kindChannels, guildID)
	v, err := c.dedup(ctx, kindChannels, key, func(ctx context.Context) (any, error) {
		raw, err := c.client.GuildChannels(ctx, guildID)
		if err != nil {
			return nil, err
		}

		channels := model.NewChannelsFromAPI(raw)
		// Some API routes omit guild_id on the channel objects themselves
		for i := range channels {
			channels[i].GuildID = guildID
		}

		c.store.PutChannels(channels)
		c.persistChannels(ctx, channels)
		return channels, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Channel), nil
}

// =============================================================================
// MEMBERS AND ROLES (CACHE-ASIDE)
// =============================================================================

// Member returns a guild member, from the store when cached, otherwise
// through one deduplicated fetch. Members cache for the session and are
// never invalidated.
func (c *Coordinator) Member(ctx context.Context, guildID, userID snowflake.ID) (model.Member, error) {
	if m, ok := c.store.Member(guildID, userID); ok {
		return m, nil
	}

	key := fmt.Sprintf("%s:%s:%s", kindMember, guildID, userID)
	v, err := c.dedup(ctx, kindMember, key, func(ctx context.Context) (any, error) {
		// A fetch that finished between the store check and this flight
		// already populated the store
		if m, ok := c.store.Member(guildID, userID); ok {
			return m, nil
		}

		raw, err := c.client.GuildMember(ctx, guildID, userID)
		if err != nil {
			return nil, err
		}

		m := model.NewMemberFromAPI(guildID, raw)
		m.UserID = userID
		c.store.PutMember(m)
		return m, nil
	})
	if err != nil {
		return model.Member{}, err
	}
	return v.(model.Member), nil
}

// Roles returns a guild's role list, from the store when the guild's roles
// were ever fetched, otherwise through one deduplicated fetch.
func (c *Coordinator) Roles(ctx context.Context, guildID snowflake.ID) ([]model.Role, error) {
	if roles, ok := c.store.Roles(guildID); ok {
		return roles, nil
	}

	key := fmt.Sprintf("%s:%s", kindRoles, guildID)
	v, err := c.dedup(ctx, kindRoles, key, func(ctx context.Context) (any, error) {
		if roles, ok := c.store.Roles(guildID); ok {
			return roles, nil
		}

		raw, err := c.client.GuildRoles(ctx, guildID)
		if err != nil {
			return nil, err
		}

		roles := model.NewRolesFromAPI(raw)
		c.store.PutRoles(guildID, roles)
		return roles, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Role), nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// Messages fetches one page of channel history, newest first as returned
// by the API. before of zero means the latest page. Successful pages
// write through to the persistent cache. When every retry fails on a
// network-kind error and the cache holds rows for the channel, the cached
// page is returned together with ErrStale; terminal errors never fall
// back.
func (c *Coordinator) Messages(ctx context.Context, channelID snowflake.ID, limit int, before snowflake.ID) ([]model.Message, error) {
	key := fmt.Sprintf("%s:%s:%s:%d", kindMessages, channelID, before, limit)
	v, err := c.dedup(ctx, kindMessages, key, func(ctx context.Context) (any, error) {
		raw, err := c.client.Messages(ctx, channelID, limit, before)
		if err != nil {
			return nil, err
		}

		messages := model.NewMessagesFromAPI(raw)
		c.persistMessages(ctx, channelID, messages)
		return messages, nil
	})
	if err == nil {
		return v.([]model.Message), nil
	}

	if discord.IsNetwork(err) && c.cache != nil {
		cached, cacheErr := c.cache.Messages(ctx, channelID, limit, before)
		if cacheErr == nil && len(cached) > 0 {
			c.tracker.RecordCacheHit(kindMessages)
			c.logger.Info("network down, serving cached messages",
				"channel", channelID, "count", len(cached))
			return cached, ErrStale
		}
	}

	return nil, err
}

// =============================================================================
// DEDUPLICATION AND RETRY
// =============================================================================

// dedup funnels a fetch through the in-flight table. Exactly one caller
// per key executes fn (with the retry policy applied); the rest join its
// result. fn runs with the executing caller's context.
func (c *Coordinator) dedup(ctx context.Context, kind, key string, fn func(context.Context) (any, error)) (any, error) {
	executed := false
	v, err, _ := c.group.Do(key, func() (any, error) {
		executed = true
		return c.withRetry(ctx, kind, fn)
	})

	if !executed {
		c.tracker.RecordDedupJoin(kind)
	}
	return v, err
}

// withRetry runs fn under the retry policy: rate-limited waits the server
// backoff with at most maxAttempts total tries, network retries once
// immediately, everything else is terminal.
func (c *Coordinator) withRetry(ctx context.Context, kind string, fn func(context.Context) (any, error)) (any, error) {
	attempts := 0
	networkRetried := false

	for {
		attempts++
		c.tracker.RecordRequest(kind)

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}

		switch {
		case discord.IsRateLimited(err):
			if attempts >= maxAttempts {
				c.tracker.RecordFailure(kind)
				return nil, err
			}

			wait := discord.RetryAfterOf(err)
			c.tracker.RecordRetry(kind)
			c.tracker.RecordRateLimitWait(wait)
			c.logger.Debug("rate limited, backing off",
				"kind", kind, "wait", wait, "attempt", attempts)

			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}

		case discord.IsNetwork(err):
			if networkRetried {
				c.tracker.RecordFailure(kind)
				return nil, err
			}
			networkRetried = true
			c.tracker.RecordRetry(kind)
			c.logger.Debug("transient network error, retrying",
				"kind", kind, "error", err)

		default:
			c.tracker.RecordFailure(kind)
			return nil, err
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
}

// =============================================================================
// CACHE WRITE-THROUGH
// =============================================================================

// Persistence failures degrade to warnings: a broken cache must never fail
// a successful fetch.

func (c *Coordinator) persistGuilds(ctx context.Context, guilds []model.Guild) {
	if c.cache == nil {
		return
	}
	if err := c.cache.SaveGuilds(ctx, guilds); err != nil {
		c.logger.Warn("failed to cache guilds", "error", err)
	}
}

func (c *Coordinator) persistChannels(ctx context.Context, channels []model.Channel) {
	if c.cache == nil {
		return
	}
	if err := c.cache.SaveChannels(ctx, channels); err != nil {
		c.logger.Warn("failed to cache channels", "error", err)
	}
}

func (c *Coordinator) persistMessages(ctx context.Context, channelID snowflake.ID, messages []model.Message) {
	if c.cache == nil {
		return
	}
	if err := c.cache.SaveMessages(ctx, channelID, messages); err != nil {
		c.logger.Warn("failed to cache messages", "channel", channelID, "error", err)
	}
}
