// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package color

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/jeranaias/cordial-tui/internal/model"
)

// =============================================================================
// TEST FAKES
// =============================================================================

// fakeFetcher implements Fetcher over fixed members and roles, counting
// calls.
type fakeFetcher struct {
	members map[snowflake.ID]model.Member // keyed by user ID
	roles   []model.Role

	memberErr error
	failUser  snowflake.ID // member fetch for this user fails

	memberCalls atomic.Int32
	rolesCalls  atomic.Int32

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeFetcher) Member(ctx context.Context, guildID, userID snowflake.ID) (model.Member, error) {
	f.memberCalls.Add(1)

	cur := f.inFlight.Add(1)
	for {
		prev := f.maxInFlight.Load()
		if cur <= prev || f.maxInFlight.CompareAndSwap(prev, cur) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	f.inFlight.Add(-1)

	if f.memberErr != nil && (f.failUser == 0 || f.failUser == userID) {
		return model.Member{}, f.memberErr
	}

	m, ok := f.members[userID]
	if !ok {
		return model.Member{GuildID: guildID, UserID: userID}, nil
	}
	return m, nil
}

func (f *fakeFetcher) Roles(ctx context.Context, guildID snowflake.ID) ([]model.Role, error) {
	f.rolesCalls.Add(1)
	return f.roles, nil
}

func member(uid snowflake.ID, roleIDs ...snowflake.ID) model.Member {
	return model.Member{GuildID: 1, UserID: uid, Roles: roleIDs}
}

// =============================================================================
// SINGLE RESOLUTION
// =============================================================================

func TestResolver_HighestPositionedColoredRoleWins(t *testing.T) {
	tests := []struct {
		name  string
		roles []model.Role
		want  model.Color
	}{
		{
			name: "colorless role above colored role",
			roles: []model.Role{
				{ID: 1, Name: "everyone", Color: 0, Position: 1},
				{ID: 2, Name: "mod", Color: 0xFF0000, Position: 5},
			},
			want: model.ColorFromInt(0xFF0000),
		},
		{
			name: "colored role below colorless role",
			roles: []model.Role{
				{ID: 1, Name: "artist", Color: 0x00FF00, Position: 1},
				{ID: 2, Name: "booster", Color: 0, Position: 5},
			},
			want: model.ColorFromInt(0x00FF00),
		},
		{
			name: "higher position beats lower",
			roles: []model.Role{
				{ID: 1, Name: "member", Color: 0x111111, Position: 2},
				{ID: 2, Name: "admin", Color: 0x222222, Position: 9},
			},
			want: model.ColorFromInt(0x222222),
		},
		{
			name: "no colored roles",
			roles: []model.Role{
				{ID: 1, Name: "everyone", Color: 0, Position: 1},
				{ID: 2, Name: "booster", Color: 0, Position: 5},
			},
			want: model.DefaultColor,
		},
		{
			name:  "no roles at all",
			roles: nil,
			want:  model.DefaultColor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var roleIDs []snowflake.ID
			for _, role := range tt.roles {
				roleIDs = append(roleIDs, role.ID)
			}

			fetcher := &fakeFetcher{
				members: map[snowflake.ID]model.Member{
					10: member(10, roleIDs...),
				},
				roles: tt.roles,
			}
			r := NewResolver(Config{Fetcher: fetcher})

			got, err := r.Resolve(context.Background(), 1, 10)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolver_PositionTieBreaksToSmallestRoleID(t *testing.T) {
	fetcher := &fakeFetcher{
		members: map[snowflake.ID]model.Member{
			10: member(10, 7, 3),
		},
		roles: []model.Role{
			{ID: 7, Name: "red", Color: 0xFF0000, Position: 4},
			{ID: 3, Name: "blue", Color: 0x0000FF, Position: 4},
		},
	}
	r := NewResolver(Config{Fetcher: fetcher})

	// Run repeatedly: the outcome must not depend on iteration order
	for i := 0; i < 10; i++ {
		got, err := r.Resolve(context.Background(), 1, 10)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if got != model.ColorFromInt(0x0000FF) {
			t.Fatalf("Resolve() = %q, want blue (role 3 has the smaller ID)", got)
		}
	}
}

func TestResolver_DMResolvesToDefaultWithoutFetching(t *testing.T) {
	fetcher := &fakeFetcher{}
	r := NewResolver(Config{Fetcher: fetcher})

	got, err := r.Resolve(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != model.DefaultColor {
		t.Errorf("Resolve() = %q, want default", got)
	}
	if fetcher.memberCalls.Load() != 0 || fetcher.rolesCalls.Load() != 0 {
		t.Error("DM resolution must not touch the network")
	}
}

func TestResolver_StaleMemberRoleIDsSkipped(t *testing.T) {
	fetcher := &fakeFetcher{
		members: map[snowflake.ID]model.Member{
			// Role 99 was deleted from the guild since the member was cached
			10: member(10, 99, 1),
		},
		roles: []model.Role{
			{ID: 1, Name: "artist", Color: 0x00FF00, Position: 1},
		},
	}
	r := NewResolver(Config{Fetcher: fetcher})

	got, err := r.Resolve(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != model.ColorFromInt(0x00FF00) {
		t.Errorf("Resolve() = %q, want green from the surviving role", got)
	}
}

func TestResolver_FetchErrorSurfacesWithDefault(t *testing.T) {
	wantErr := errors.New("member fetch failed")
	fetcher := &fakeFetcher{memberErr: wantErr}
	r := NewResolver(Config{Fetcher: fetcher})

	got, err := r.Resolve(context.Background(), 1, 10)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Resolve() error = %v, want %v", err, wantErr)
	}
	if got != model.DefaultColor {
		t.Errorf("Resolve() = %q, want default on failure", got)
	}
}

// =============================================================================
// BATCH RESOLUTION
// =============================================================================

func TestResolver_BatchJoinsResultsByUserID(t *testing.T) {
	fetcher := &fakeFetcher{
		members: map[snowflake.ID]model.Member{
			10: member(10, 1),
			11: member(11, 2),
			12: member(12),
		},
		roles: []model.Role{
			{ID: 1, Name: "red", Color: 0xFF0000, Position: 3},
			{ID: 2, Name: "blue", Color: 0x0000FF, Position: 3},
		},
	}
	r := NewResolver(Config{Fetcher: fetcher})

	got := r.ResolveBatch(context.Background(), 1, []snowflake.ID{10, 11, 12})

	if len(got) != 3 {
		t.Fatalf("ResolveBatch() size = %d, want 3", len(got))
	}
	if got[10] != model.ColorFromInt(0xFF0000) {
		t.Errorf("user 10 color = %q, want red", got[10])
	}
	if got[11] != model.ColorFromInt(0x0000FF) {
		t.Errorf("user 11 color = %q, want blue", got[11])
	}
	if got[12] != model.DefaultColor {
		t.Errorf("user 12 color = %q, want default", got[12])
	}
}

func TestResolver_BatchDeduplicatesUserIDs(t *testing.T) {
	fetcher := &fakeFetcher{
		members: map[snowflake.ID]model.Member{10: member(10)},
	}
	r := NewResolver(Config{Fetcher: fetcher})

	got := r.ResolveBatch(context.Background(), 1, []snowflake.ID{10, 10, 10, 10})

	if len(got) != 1 {
		t.Fatalf("ResolveBatch() size = %d, want 1", len(got))
	}
	if fetcher.memberCalls.Load() != 1 {
		t.Errorf("member fetches = %d, want 1 for repeated user", fetcher.memberCalls.Load())
	}
}

func TestResolver_BatchFailureIsPerUser(t *testing.T) {
	fetcher := &fakeFetcher{
		members: map[snowflake.ID]model.Member{
			10: member(10, 1),
			11: member(11, 1),
		},
		roles: []model.Role{
			{ID: 1, Name: "red", Color: 0xFF0000, Position: 3},
		},
		memberErr: errors.New("boom"),
		failUser:  11,
	}
	r := NewResolver(Config{Fetcher: fetcher})

	got := r.ResolveBatch(context.Background(), 1, []snowflake.ID{10, 11})

	if got[10] != model.ColorFromInt(0xFF0000) {
		t.Errorf("user 10 color = %q, want red despite user 11 failing", got[10])
	}
	if got[11] != model.DefaultColor {
		t.Errorf("user 11 color = %q, want default after failure", got[11])
	}
}

func TestResolver_BatchRespectsFanOutLimit(t *testing.T) {
	members := make(map[snowflake.ID]model.Member)
	var ids []snowflake.ID
	for i := snowflake.ID(1); i <= 20; i++ {
		members[i] = member(i)
		ids = append(ids, i)
	}

	fetcher := &fakeFetcher{members: members}
	r := NewResolver(Config{Fetcher: fetcher, FanOut: 4})

	r.ResolveBatch(context.Background(), 1, ids)

	if max := fetcher.maxInFlight.Load(); max > 4 {
		t.Errorf("max concurrent member fetches = %d, want <= 4", max)
	}
	if fetcher.memberCalls.Load() != 20 {
		t.Errorf("member fetches = %d, want 20", fetcher.memberCalls.Load())
	}
}

func TestResolver_BatchDMAllDefaults(t *testing.T) {
	fetcher := &fakeFetcher{}
	r := NewResolver(Config{Fetcher: fetcher})

	got := r.ResolveBatch(context.Background(), 0, []snowflake.ID{10, 11})

	if len(got) != 2 {
		t.Fatalf("ResolveBatch() size = %d, want 2", len(got))
	}
	for uid, c := range got {
		if c != model.DefaultColor {
			t.Errorf("user %s color = %q, want default", uid, c)
		}
	}
	if fetcher.memberCalls.Load() != 0 {
		t.Error("DM batch must not touch the network")
	}
}

// =============================================================================
// DETERMINISM
// =============================================================================

func TestResolver_RepeatBatchesAreIdentical(t *testing.T) {
	fetcher := &fakeFetcher{
		members: map[snowflake.ID]model.Member{
			10: member(10, 1, 2),
			11: member(11, 2, 3),
		},
		roles: []model.Role{
			{ID: 1, Name: "red", Color: 0xFF0000, Position: 3},
			{ID: 2, Name: "green", Color: 0x00FF00, Position: 7},
			{ID: 3, Name: "blue", Color: 0x0000FF, Position: 7},
		},
	}
	r := NewResolver(Config{Fetcher: fetcher})

	first := r.ResolveBatch(context.Background(), 1, []snowflake.ID{10, 11})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			again := r.ResolveBatch(context.Background(), 1, []snowflake.ID{10, 11})
			for uid, want := range first {
				if again[uid] != want {
					t.Errorf("user %s resolved %q, previously %q", uid, again[uid], want)
				}
			}
		}()
	}
	wg.Wait()
}
