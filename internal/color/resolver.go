// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package color resolves author display colors from role membership.
package color

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/cordial-tui/internal/model"
)

// =============================================================================
// RESOLVER
// =============================================================================

// defaultFanOut bounds concurrent per-user resolutions in a batch.
const defaultFanOut = 4

// Fetcher is the slice of the fetch coordinator the resolver consumes.
// Both methods are cache-aside: cached entities cost zero network calls.
type Fetcher interface {
	Member(ctx context.Context, guildID, userID snowflake.ID) (model.Member, error)
	Roles(ctx context.Context, guildID snowflake.ID) ([]model.Role, error)
}

// Config wires a Resolver. Fetcher is required; Logger and FanOut default
// to a discarding logger and defaultFanOut.
type Config struct {
	Fetcher Fetcher
	Logger  *slog.Logger
	FanOut  int
}

// Resolver computes (guild, user) → display color: the color of the
// member's highest-positioned role that has one set, or the default.
type Resolver struct {
	fetcher Fetcher
	logger  *slog.Logger
	fanOut  int
}

// NewResolver creates a resolver from cfg, filling optional fields with
// defaults.
func NewResolver(cfg Config) *Resolver {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.FanOut <= 0 {
		cfg.FanOut = defaultFanOut
	}

	return &Resolver{
		fetcher: cfg.Fetcher,
		logger:  cfg.Logger.With("component", "color"),
		fanOut:  cfg.FanOut,
	}
}

// =============================================================================
// RESOLUTION
// =============================================================================

// Resolve returns the display color for a user in a guild. A zero guildID
// is a direct message: the default color, no fetches. Otherwise the
// member's colored roles compete by position, highest first; position ties
// go to the smallest role ID so resolution is deterministic. No colored
// role means the default color.
func (r *Resolver) Resolve(ctx context.Context, guildID, userID snowflake.ID) (model.Color, error) {
	if guildID == 0 {
		return model.DefaultColor, nil
	}

	member, err := r.fetcher.Member(ctx, guildID, userID)
	if err != nil {
		return model.DefaultColor, err
	}

	roles, err := r.fetcher.Roles(ctx, guildID)
	if err != nil {
		return model.DefaultColor, err
	}

	return pickColor(member.Roles, roles), nil
}

// ResolveBatch resolves colors for distinct users with bounded fan-out and
// joins the results by user ID. A user whose resolution fails gets the
// default color; one bad member never sinks the batch.
func (r *Resolver) ResolveBatch(ctx context.Context, guildID snowflake.ID, userIDs []snowflake.ID) map[snowflake.ID]model.Color {
	distinct := distinctIDs(userIDs)
	out := make(map[snowflake.ID]model.Color, len(distinct))

	if guildID == 0 {
		for _, id := range distinct {
			out[id] = model.DefaultColor
		}
		return out
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(r.fanOut)

	for _, id := range distinct {
		id := id
		g.Go(func() error {
			c, err := r.Resolve(ctx, guildID, id)
			if err != nil {
				r.logger.Debug("color resolution failed, using default",
					"guild", guildID, "user", id, "error", err)
				c = model.DefaultColor
			}

			mu.Lock()
			out[id] = c
			mu.Unlock()
			return nil
		})
	}

	g.Wait() // closures never return errors
	return out
}

// =============================================================================
// SELECTION
// =============================================================================

// pickColor selects among the member's roles: highest position with a
// color set wins; ties break to the smallest role ID. Role IDs the guild
// list no longer carries are skipped.
func pickColor(memberRoles []snowflake.ID, guildRoles []model.Role) model.Color {
	byID := make(map[snowflake.ID]model.Role, len(guildRoles))
	for _, role := range guildRoles {
		byID[role.ID] = role
	}

	var best model.Role
	found := false

	for _, id := range memberRoles {
		role, ok := byID[id]
		if !ok || role.Color == 0 {
			continue
		}

		if !found ||
			role.Position > best.Position ||
			(role.Position == best.Position && role.ID < best.ID) {
			best = role
			found = true
		}
	}

	if !found {
		return model.DefaultColor
	}
	return model.ColorFromInt(best.Color)
}

// distinctIDs returns ids with duplicates removed, first occurrence order
// preserved.
func distinctIDs(ids []snowflake.ID) []snowflake.ID {
	seen := make(map[snowflake.ID]struct{}, len(ids))
	out := make([]snowflake.ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
