// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package internal contains race detection tests across the cordial packages.
//
// Run with: go test -race ./internal/
//
// These tests drive the shared components the way the TUI does: many
// goroutines loading, reading, and recording at once. They exist to fail
// under the race detector, so assertions are deliberately coarse.
package internal

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/jeranaias/cordial-tui/internal/color"
	"github.com/jeranaias/cordial-tui/internal/config"
	"github.com/jeranaias/cordial-tui/internal/discord"
	"github.com/jeranaias/cordial-tui/internal/fetch"
	"github.com/jeranaias/cordial-tui/internal/metrics"
	"github.com/jeranaias/cordial-tui/internal/model"
	"github.com/jeranaias/cordial-tui/internal/session"
	"github.com/jeranaias/cordial-tui/internal/state"
)

// =============================================================================
// TEST CONFIGURATION
// =============================================================================

const (
	// Number of concurrent goroutines for race tests
	raceConcurrency = 50
	// Number of iterations per goroutine
	raceIterations = 20
)

// concurrentAPI implements fetch.API with counted, optionally slow hooks.
type concurrentAPI struct {
	messageCalls atomic.Int64
	roleCalls    atomic.Int64
	memberCalls  atomic.Int64
	delay        time.Duration
}

func (f *concurrentAPI) Guilds(ctx context.Context) ([]discord.Guild, error) {
	return []discord.Guild{{ID: 1, Name: "Gopher Den"}}, nil
}

func (f *concurrentAPI) DMChannels(ctx context.Context) ([]discord.Channel, error) {
	return nil, nil
}

func (f *concurrentAPI) GuildChannels(ctx context.Context, guildID snowflake.ID) ([]discord.Channel, error) {
	return []discord.Channel{{ID: 11, Type: discord.ChannelTypeGuildText, GuildID: guildID, Name: "general"}}, nil
}

func (f *concurrentAPI) GuildRoles(ctx context.Context, guildID snowflake.ID) ([]discord.Role, error) {
	f.roleCalls.Add(1)
	time.Sleep(f.delay)
	return []discord.Role{{ID: 500, Name: "admin", Color: 0xE74C3C, Position: 5}}, nil
}

func (f *concurrentAPI) GuildMember(ctx context.Context, guildID, userID snowflake.ID) (discord.Member, error) {
	f.memberCalls.Add(1)
	return discord.Member{
		User:  &discord.User{ID: userID, Username: "user"},
		Roles: []snowflake.ID{500},
	}, nil
}

func (f *concurrentAPI) Messages(ctx context.Context, channelID snowflake.ID, limit int, before snowflake.ID) ([]discord.Message, error) {
	f.messageCalls.Add(1)
	time.Sleep(f.delay)
	return []discord.Message{
		{ID: 20, ChannelID: channelID, Author: discord.User{ID: 900, Username: "ana"}, Content: "newest"},
		{ID: 19, ChannelID: channelID, Author: discord.User{ID: 900, Username: "ana"}, Content: "older"},
	}, nil
}

// =============================================================================
// CONFIG CONCURRENCY TESTS
// =============================================================================

// TestConcurrency_ConfigGlobalAccess verifies that the global config can be
// read while reloads swap it.
func TestConcurrency_ConfigGlobalAccess(t *testing.T) {
	config.ResetGlobalForTesting()
	config.SetGlobal(config.Default())

	var wg sync.WaitGroup

	// Readers touch the fields the render path reads every frame.
	for i := 0; i < raceConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < raceIterations; j++ {
				cfg := config.Global()
				_ = cfg.UI.SidebarWidth
				_ = cfg.Timestamps.Layout()
				_ = cfg.Location()
			}
		}()
	}

	// Writers swap in fresh configs, the way the file watcher does.
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < raceIterations; j++ {
				next := config.Default()
				next.UI.SidebarWidth = 20 + n
				config.SetGlobal(next)
			}
		}(i)
	}

	wg.Wait()

	if config.Global() == nil {
		t.Fatal("global config lost after concurrent access")
	}
}

// =============================================================================
// STATE STORE CONCURRENCY TESTS
// =============================================================================

// TestConcurrency_StateStore hammers the entity store with interleaved
// writes and reads across all entity kinds.
func TestConcurrency_StateStore(t *testing.T) {
	store := state.NewStore()

	var wg sync.WaitGroup

	for i := 0; i < raceConcurrency; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			guildID := snowflake.ID(n%5 + 1)

			for j := 0; j < raceIterations; j++ {
				store.PutGuilds([]model.Guild{{ID: guildID, Name: "guild"}})
				store.PutChannels([]model.Channel{{
					ID:      snowflake.ID(n*1000 + j),
					GuildID: guildID,
					Kind:    model.ChannelText,
					Name:    "chan",
				}})
				store.PutMember(model.Member{
					GuildID: guildID,
					UserID:  snowflake.ID(900 + n),
					Roles:   []snowflake.ID{500},
				})
				store.PutRoles(guildID, []model.Role{{ID: 500, Position: 1}})

				_ = store.Guilds()
				_ = store.ChannelsByGuild(guildID)
				_, _ = store.Member(guildID, snowflake.ID(900+n))
				_, _ = store.Roles(guildID)
				_ = store.DMChannels()
			}
		}(i)
	}

	wg.Wait()

	if got := len(store.Guilds()); got == 0 {
		t.Error("store lost all guilds under concurrent access")
	}
}

// =============================================================================
// FETCH COORDINATOR CONCURRENCY TESTS
// =============================================================================

// TestConcurrency_FetchDeduplication releases many goroutines at the same
// page at once and expects a single upstream request.
func TestConcurrency_FetchDeduplication(t *testing.T) {
	api := &concurrentAPI{delay: 50 * time.Millisecond}
	tracker := metrics.NewMemoryTracker()
	coord := fetch.NewCoordinator(fetch.Config{
		Client:  api,
		Store:   state.NewStore(),
		Tracker: tracker,
	})

	start := make(chan struct{})
	var wg sync.WaitGroup
	results := make([]int, raceConcurrency)
	errs := make([]error, raceConcurrency)

	for i := 0; i < raceConcurrency; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			<-start
			page, err := coord.Messages(context.Background(), 11, 50, 0)
			results[n] = len(page)
			errs[n] = err
		}(i)
	}

	close(start)
	wg.Wait()

	if calls := api.messageCalls.Load(); calls != 1 {
		t.Errorf("upstream message calls = %d, want 1", calls)
	}
	for i := range results {
		if errs[i] != nil {
			t.Fatalf("goroutine %d: Messages() error = %v", i, errs[i])
		}
		if results[i] != 2 {
			t.Errorf("goroutine %d: page length = %d, want 2", i, results[i])
		}
	}

	snap := tracker.Snapshot()
	if snap.DedupJoins != raceConcurrency-1 {
		t.Errorf("dedup joins = %d, want %d", snap.DedupJoins, raceConcurrency-1)
	}
	if snap.Requests != 1 {
		t.Errorf("recorded requests = %d, want 1", snap.Requests)
	}
}

// TestConcurrency_FetchMixedKinds runs different entity kinds in parallel
// through one coordinator.
func TestConcurrency_FetchMixedKinds(t *testing.T) {
	api := &concurrentAPI{}
	coord := fetch.NewCoordinator(fetch.Config{
		Client: api,
		Store:  state.NewStore(),
	})

	var wg sync.WaitGroup
	ctx := context.Background()

	for i := 0; i < raceConcurrency; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			switch n % 4 {
			case 0:
				_, _ = coord.Guilds(ctx)
			case 1:
				_, _ = coord.Channels(ctx, 1)
			case 2:
				_, _ = coord.Roles(ctx, 1)
			case 3:
				_, _ = coord.Member(ctx, 1, snowflake.ID(900+n))
			}
		}(i)
	}

	wg.Wait()
}

// =============================================================================
// COLOR RESOLVER CONCURRENCY TESTS
// =============================================================================

// TestConcurrency_ColorResolution resolves a shared guild from many
// goroutines. The role list must be fetched once; everything after that is
// served from the entity store.
func TestConcurrency_ColorResolution(t *testing.T) {
	api := &concurrentAPI{delay: 20 * time.Millisecond}
	coord := fetch.NewCoordinator(fetch.Config{
		Client: api,
		Store:  state.NewStore(),
	})
	resolver := color.NewResolver(color.Config{Fetcher: coord})

	users := []snowflake.ID{900, 901, 902, 903}

	want := model.ColorFromInt(0xE74C3C)

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < raceConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			colors := resolver.ResolveBatch(context.Background(), 1, users)
			for _, id := range users {
				if colors[id] != want {
					t.Errorf("user %s: color = %s, want %s", id, colors[id], want)
				}
			}
		}()
	}

	close(start)
	wg.Wait()

	if calls := api.roleCalls.Load(); calls != 1 {
		t.Errorf("upstream role calls = %d, want 1", calls)
	}
}

// =============================================================================
// METRICS CONCURRENCY TESTS
// =============================================================================

// TestConcurrency_MetricsTracker records from many goroutines while other
// goroutines snapshot, then checks the final totals add up.
func TestConcurrency_MetricsTracker(t *testing.T) {
	tracker := metrics.NewMemoryTracker()

	var wg sync.WaitGroup

	for i := 0; i < raceConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < raceIterations; j++ {
				tracker.RecordRequest("messages")
				tracker.RecordCacheHit("messages")
				tracker.RecordRetry("guilds")
			}
		}()
	}

	// Concurrent snapshots, like the status bar polling every frame.
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < raceIterations; j++ {
				_ = tracker.Snapshot()
			}
		}()
	}

	wg.Wait()

	want := raceConcurrency * raceIterations
	snap := tracker.Snapshot()
	if snap.Requests != want {
		t.Errorf("requests = %d, want %d", snap.Requests, want)
	}
	if snap.CacheHits != want {
		t.Errorf("cache hits = %d, want %d", snap.CacheHits, want)
	}
	if snap.Retries != want {
		t.Errorf("retries = %d, want %d", snap.Retries, want)
	}
}

// =============================================================================
// SESSION MANAGER CONCURRENCY TESTS
// =============================================================================

// TestConcurrency_SessionManager switches channels from many goroutines
// while readers check generations. The generation must end up exactly at
// the number of selects.
func TestConcurrency_SessionManager(t *testing.T) {
	manager := session.NewManager()
	ctx := context.Background()

	var wg sync.WaitGroup

	for i := 0; i < raceConcurrency; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < raceIterations; j++ {
				_, gen := manager.Select(ctx, 1, snowflake.ID(n*100+j))
				_ = manager.IsCurrent(gen)
				_ = manager.Current()
				_ = manager.Generation()
			}
		}(i)
	}

	wg.Wait()
	manager.CancelInFlight()

	want := uint64(raceConcurrency * raceIterations)
	if got := manager.Generation(); got != want {
		t.Errorf("generation = %d, want %d", got, want)
	}

	// Only the newest generation can be current.
	if !manager.IsCurrent(manager.Generation()) {
		t.Error("latest generation should be current")
	}
	if manager.IsCurrent(1) {
		t.Error("generation 1 should be stale after many selects")
	}
}
