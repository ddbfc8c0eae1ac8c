// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package internal contains cross-package flow tests for cordial: fetch
// through persistence, stale fallback, color resolution, rendering, and
// the config and secret round trips. Each test wires real components the
// way main.go does, with only the Discord API faked.
package internal

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/jeranaias/cordial-tui/internal/color"
	"github.com/jeranaias/cordial-tui/internal/config"
	"github.com/jeranaias/cordial-tui/internal/discord"
	"github.com/jeranaias/cordial-tui/internal/fetch"
	"github.com/jeranaias/cordial-tui/internal/model"
	"github.com/jeranaias/cordial-tui/internal/render"
	"github.com/jeranaias/cordial-tui/internal/secret"
	"github.com/jeranaias/cordial-tui/internal/session"
	"github.com/jeranaias/cordial-tui/internal/state"
	"github.com/jeranaias/cordial-tui/internal/storage"
)

// =============================================================================
// FAKE API
// =============================================================================

// scriptedAPI implements fetch.API with per-call hooks. Nil hooks return
// empty results. Tests mutate hooks between sequential calls to script
// failure scenarios.
type scriptedAPI struct {
	guilds        func(ctx context.Context) ([]discord.Guild, error)
	dmChannels    func(ctx context.Context) ([]discord.Channel, error)
	guildChannels func(ctx context.Context, guildID snowflake.ID) ([]discord.Channel, error)
	guildRoles    func(ctx context.Context, guildID snowflake.ID) ([]discord.Role, error)
	guildMember   func(ctx context.Context, guildID, userID snowflake.ID) (discord.Member, error)
	messages      func(ctx context.Context, channelID snowflake.ID, limit int, before snowflake.ID) ([]discord.Message, error)
}

func (f *scriptedAPI) Guilds(ctx context.Context) ([]discord.Guild, error) {
	if f.guilds == nil {
		return nil, nil
	}
	return f.guilds(ctx)
}

func (f *scriptedAPI) DMChannels(ctx context.Context) ([]discord.Channel, error) {
	if f.dmChannels == nil {
		return nil, nil
	}
	return f.dmChannels(ctx)
}

func (f *scriptedAPI) GuildChannels(ctx context.Context, guildID snowflake.ID) ([]discord.Channel, error) {
	if f.guildChannels == nil {
		return nil, nil
	}
	return f.guildChannels(ctx, guildID)
}

func (f *scriptedAPI) GuildRoles(ctx context.Context, guildID snowflake.ID) ([]discord.Role, error) {
	if f.guildRoles == nil {
		return nil, nil
	}
	return f.guildRoles(ctx, guildID)
}

func (f *scriptedAPI) GuildMember(ctx context.Context, guildID, userID snowflake.ID) (discord.Member, error) {
	if f.guildMember == nil {
		return discord.Member{}, nil
	}
	return f.guildMember(ctx, guildID, userID)
}

func (f *scriptedAPI) Messages(ctx context.Context, channelID snowflake.ID, limit int, before snowflake.ID) ([]discord.Message, error) {
	if f.messages == nil {
		return nil, nil
	}
	return f.messages(ctx, channelID, limit, before)
}

func openTestCache(t *testing.T) *storage.Store {
	t.Helper()
	cache, err := storage.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

// =============================================================================
// FETCH -> PERSIST -> STALE FALLBACK
// =============================================================================

// TestFetchPersistStaleFallback walks the offline degradation path: a
// successful page lands in the message cache, the network goes away, and
// the same request comes back from the cache marked stale.
func TestFetchPersistStaleFallback(t *testing.T) {
	cache := openTestCache(t)
	ctx := context.Background()

	wire := []discord.Message{
		{ID: 30, ChannelID: 11, Author: discord.User{ID: 900, Username: "ana"}, Content: "newest", Timestamp: time.Now().UTC()},
		{ID: 20, ChannelID: 11, Author: discord.User{ID: 901, Username: "bo"}, Content: "middle", Timestamp: time.Now().UTC()},
		{ID: 10, ChannelID: 11, Author: discord.User{ID: 900, Username: "ana"}, Content: "oldest", Timestamp: time.Now().UTC()},
	}
	api := &scriptedAPI{
		messages: func(ctx context.Context, channelID snowflake.ID, limit int, before snowflake.ID) ([]discord.Message, error) {
			return wire, nil
		},
	}
	coord := fetch.NewCoordinator(fetch.Config{
		Client: api,
		Store:  state.NewStore(),
		Cache:  cache,
	})

	page, err := coord.Messages(ctx, 11, 50, 0)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(page) != 3 || page[0].ID != 30 {
		t.Fatalf("first page = %d messages starting at %v, want 3 starting at 30", len(page), page[0].ID)
	}

	// Cut the network. Retries see the same failure every attempt.
	api.messages = func(ctx context.Context, channelID snowflake.ID, limit int, before snowflake.ID) ([]discord.Message, error) {
		return nil, &discord.APIError{Type: discord.ErrTypeNetwork, Message: "connection refused"}
	}

	stale, err := coord.Messages(ctx, 11, 50, 0)
	if !errors.Is(err, fetch.ErrStale) {
		t.Fatalf("Messages() after network loss: error = %v, want ErrStale", err)
	}
	if len(stale) != 3 {
		t.Fatalf("stale page = %d messages, want 3", len(stale))
	}
	for i, want := range []struct {
		id      snowflake.ID
		content string
	}{{30, "newest"}, {20, "middle"}, {10, "oldest"}} {
		if stale[i].ID != want.id || stale[i].Content != want.content {
			t.Errorf("stale[%d] = (%v, %q), want (%v, %q)",
				i, stale[i].ID, stale[i].Content, want.id, want.content)
		}
	}

	// Terminal errors must not fall back to the cache.
	api.messages = func(ctx context.Context, channelID snowflake.ID, limit int, before snowflake.ID) ([]discord.Message, error) {
		return nil, discord.ErrUnauthorized
	}
	if _, err := coord.Messages(ctx, 11, 50, 0); !discord.IsUnauthorized(err) {
		t.Errorf("Messages() with bad token: error = %v, want unauthorized", err)
	}
}

// TestGuildListWarmStart verifies that fetched guilds survive a restart:
// the list persisted by one coordinator is readable from a fresh storage
// handle, ordered by name.
func TestGuildListWarmStart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.db")
	ctx := context.Background()

	cache, err := storage.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	api := &scriptedAPI{
		guilds: func(ctx context.Context) ([]discord.Guild, error) {
			return []discord.Guild{
				{ID: 3, Name: "Zulu"},
				{ID: 1, Name: "alpha"},
				{ID: 2, Name: "Mike"},
			}, nil
		},
	}
	coord := fetch.NewCoordinator(fetch.Config{
		Client: api,
		Store:  state.NewStore(),
		Cache:  cache,
	})

	if _, err := coord.Guilds(ctx); err != nil {
		t.Fatalf("Guilds() error = %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Next launch: no network, cache only.
	reopened, err := storage.Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	guilds, err := reopened.Guilds(ctx)
	if err != nil {
		t.Fatalf("Guilds() from reopened cache: error = %v", err)
	}
	var names []string
	for _, g := range guilds {
		names = append(names, g.Name)
	}
	want := []string{"alpha", "Mike", "Zulu"}
	if len(names) != len(want) {
		t.Fatalf("guild names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("guild[%d] = %q, want %q (case-insensitive name order)", i, names[i], want[i])
		}
	}
}

// =============================================================================
// COLOR PIPELINE
// =============================================================================

// TestColorPipeline runs author colors end to end through the coordinator
// and resolver: role fetch, member fetch, highest-position color, and the
// default fallbacks for DMs and failed lookups.
func TestColorPipeline(t *testing.T) {
	var memberCalls atomic.Int64
	api := &scriptedAPI{
		guildRoles: func(ctx context.Context, guildID snowflake.ID) ([]discord.Role, error) {
			return []discord.Role{
				{ID: 700, Name: "everyone", Color: 0, Position: 10},
				{ID: 500, Name: "admin", Color: 0xE74C3C, Position: 5},
				{ID: 600, Name: "member", Color: 0x3498DB, Position: 1},
			}, nil
		},
		guildMember: func(ctx context.Context, guildID, userID snowflake.ID) (discord.Member, error) {
			memberCalls.Add(1)
			switch userID {
			case 900:
				return discord.Member{Roles: []snowflake.ID{500, 600, 700}}, nil
			case 901:
				return discord.Member{Roles: []snowflake.ID{600}}, nil
			default:
				return discord.Member{}, discord.ErrNotFound
			}
		},
	}
	coord := fetch.NewCoordinator(fetch.Config{
		Client: api,
		Store:  state.NewStore(),
	})
	resolver := color.NewResolver(color.Config{Fetcher: coord})
	ctx := context.Background()

	// Role 700 outranks admin but is colorless, so admin's color wins.
	got, err := resolver.Resolve(ctx, 1, 900)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if want := model.ColorFromInt(0xE74C3C); got != want {
		t.Errorf("Resolve(900) = %s, want %s", got, want)
	}

	// DMs have no guild and therefore no role colors.
	if got, _ := resolver.Resolve(ctx, 0, 900); got != model.DefaultColor {
		t.Errorf("Resolve(guild 0) = %s, want default", got)
	}

	colors := resolver.ResolveBatch(ctx, 1, []snowflake.ID{900, 901, 902})
	if want := model.ColorFromInt(0xE74C3C); colors[900] != want {
		t.Errorf("batch[900] = %s, want %s", colors[900], want)
	}
	if want := model.ColorFromInt(0x3498DB); colors[901] != want {
		t.Errorf("batch[901] = %s, want %s", colors[901], want)
	}
	// User 902 does not resolve; the batch still returns a usable color.
	if colors[902] != model.DefaultColor {
		t.Errorf("batch[902] = %s, want default for failed lookup", colors[902])
	}

	// User 900 was resolved before the batch, so its member fetch came
	// from the entity store, not the API.
	if calls := memberCalls.Load(); calls != 3 {
		t.Errorf("member fetches = %d, want 3 (900 once, 901, 902)", calls)
	}
}

// =============================================================================
// RENDER PIPELINE
// =============================================================================

// TestRenderPipeline renders a fetched-shape page (newest first) into
// transcript lines and checks order, headers, and plain-mode output.
func TestRenderPipeline(t *testing.T) {
	base := time.Date(2025, 3, 9, 14, 0, 0, 0, time.UTC)
	messages := []model.Message{
		{
			ID: 3, ChannelID: 11,
			Author:    model.Author{ID: 900, Username: "ana"},
			Content:   "third",
			Timestamp: base.Add(2 * time.Minute),
			Edited:    true,
		},
		{
			ID: 2, ChannelID: 11,
			Author:      model.Author{ID: 901, Username: "bo"},
			Content:     "second",
			Timestamp:   base.Add(time.Minute),
			Attachments: []model.Attachment{{Filename: "photo.png"}},
		},
		{
			ID: 1, ChannelID: 11,
			Author:    model.Author{ID: 900, Username: "ana"},
			Content:   "hello world",
			Timestamp: base,
		},
	}
	colors := map[snowflake.ID]model.Color{
		900: model.ColorFromInt(0xE74C3C),
		901: model.DefaultColor,
	}

	transcript := render.NewTranscript(render.Options{
		Width:           72,
		TimeLayout:      "15:04",
		Location:        time.UTC,
		ShowAttachments: true,
		Plain:           true,
	})
	lines := transcript.Render(messages, colors)

	if len(lines) < 4 {
		t.Fatalf("rendered %d lines, want at least 4 (3 messages + attachment)", len(lines))
	}
	if !lines[0].Header || lines[0].MessageID != 1 {
		t.Errorf("first line = (header=%v, id=%v), want header row of oldest message", lines[0].Header, lines[0].MessageID)
	}
	if lines[len(lines)-1].MessageID != 3 && lines[len(lines)-2].MessageID != 3 {
		t.Error("newest message should render last")
	}

	joined := ""
	for _, l := range lines {
		joined += l.Text + "\n"
	}
	for _, want := range []string{"hello world", "ana", "bo", "14:00", "(edited)", "[attachment: photo.png]"} {
		if !strings.Contains(joined, want) {
			t.Errorf("transcript missing %q:\n%s", want, joined)
		}
	}
	if strings.Contains(joined, "\x1b") {
		t.Error("plain transcript contains ANSI escapes")
	}
}

// =============================================================================
// CONFIG AND SECRET ROUND TRIPS
// =============================================================================

// TestConfigRoundTrip writes a customized config to disk and loads it
// back through the normal load path, defaults and validation included.
func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := config.Default()
	cfg.Mouse = false
	cfg.UI.SidebarWidth = 32
	cfg.Timestamps.Format = "15:04"

	if err := config.SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}

	loaded, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.Mouse {
		t.Error("Mouse = true, want false after round trip")
	}
	if loaded.UI.SidebarWidth != 32 {
		t.Errorf("SidebarWidth = %d, want 32", loaded.UI.SidebarWidth)
	}
	if got := loaded.Timestamps.Layout(); got != "15:04" {
		t.Errorf("timestamp layout = %q, want 15:04", got)
	}
}

// TestSecretRoundTrip stores, reads, and shreds a token through the
// encrypted token store.
func TestSecretRoundTrip(t *testing.T) {
	t.Setenv(secret.EnvToken, "")
	store := secret.NewStore(t.TempDir())

	if _, err := store.Load(); !errors.Is(err, secret.ErrNoToken) {
		t.Fatalf("Load() before save: error = %v, want ErrNoToken", err)
	}

	const token = "mfa.349058oiejrtkl"
	if err := store.Save(token); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !store.Present() {
		t.Error("Present() = false after save")
	}
	if store.FromEnv() {
		t.Error("FromEnv() = true for a file-stored token")
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != token {
		t.Errorf("Load() = %q, want %q", got, token)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, secret.ErrNoToken) {
		t.Errorf("Load() after clear: error = %v, want ErrNoToken", err)
	}
}

// =============================================================================
// READ STATE AND FAVORITES
// =============================================================================

// TestReadStateSurvivesClear checks the user-owned rows: read markers
// advance monotonically, stars toggle, and cache clear keeps both while
// dropping fetched data.
func TestReadStateSurvivesClear(t *testing.T) {
	cache := openTestCache(t)
	ctx := context.Background()

	if err := cache.SaveMessages(ctx, 11, []model.Message{
		{ID: 100, ChannelID: 11, Author: model.Author{ID: 900}, Content: "hi", Timestamp: time.Now()},
	}); err != nil {
		t.Fatalf("SaveMessages() error = %v", err)
	}

	// Read markers only move forward; a late stale write cannot regress one.
	for _, step := range []struct {
		mark snowflake.ID
		want snowflake.ID
	}{{100, 100}, {90, 100}, {120, 120}} {
		if err := cache.MarkRead(ctx, 11, step.mark); err != nil {
			t.Fatalf("MarkRead(%v) error = %v", step.mark, err)
		}
		states, err := cache.ReadStates(ctx)
		if err != nil {
			t.Fatalf("ReadStates() error = %v", err)
		}
		if states[11] != step.want {
			t.Errorf("after MarkRead(%v): marker = %v, want %v", step.mark, states[11], step.want)
		}
	}

	if err := cache.Star(ctx, 11); err != nil {
		t.Fatalf("Star() error = %v", err)
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Messages != 0 {
		t.Errorf("messages after clear = %d, want 0", stats.Messages)
	}
	if stats.Favorites != 1 {
		t.Errorf("favorites after clear = %d, want 1", stats.Favorites)
	}
	states, err := cache.ReadStates(ctx)
	if err != nil {
		t.Fatalf("ReadStates() after clear: error = %v", err)
	}
	if states[11] != 120 {
		t.Errorf("read marker after clear = %v, want 120", states[11])
	}

	if err := cache.Unstar(ctx, 11); err != nil {
		t.Fatalf("Unstar() error = %v", err)
	}
	favorites, err := cache.Favorites(ctx)
	if err != nil {
		t.Fatalf("Favorites() error = %v", err)
	}
	if len(favorites) != 0 {
		t.Errorf("favorites after unstar = %v, want none", favorites)
	}
}

// =============================================================================
// STALE LOAD DISCARD
// =============================================================================

// TestStaleLoadDiscard ties the view session to the fetch layer: picking a
// new channel cancels the previous channel's in-flight page, and the old
// generation is no longer current.
func TestStaleLoadDiscard(t *testing.T) {
	manager := session.NewManager()

	started := make(chan struct{})
	api := &scriptedAPI{
		messages: func(ctx context.Context, channelID snowflake.ID, limit int, before snowflake.ID) ([]discord.Message, error) {
			close(started)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(5 * time.Second):
				t.Error("load was never cancelled")
				return nil, nil
			}
		},
	}
	coord := fetch.NewCoordinator(fetch.Config{
		Client: api,
		Store:  state.NewStore(),
	})

	ctx1, gen1 := manager.Select(context.Background(), 1, 11)

	errCh := make(chan error, 1)
	go func() {
		_, err := coord.Messages(ctx1, 11, 50, 0)
		errCh <- err
	}()

	<-started
	_, gen2 := manager.Select(context.Background(), 1, 12)

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("abandoned load error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("abandoned load did not return after cancellation")
	}

	if manager.IsCurrent(gen1) {
		t.Error("old generation still current after channel switch")
	}
	if !manager.IsCurrent(gen2) {
		t.Error("new generation should be current")
	}
	manager.CancelInFlight()
}
