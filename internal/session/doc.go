// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the current view selection and load lifecycle.
//
// The Manager decides which load result is allowed to paint the screen.
// Selecting a channel starts a load under a fresh generation and cancels
// whatever was in flight; when a load finishes, the caller checks its
// generation against the manager's before rendering. A mismatch means the
// user has moved on: the result is discarded, though any entity-store or
// cache writes it already made are kept, since upserts only refresh data.
//
// Older-history pages Extend the current view instead: they share its
// generation, so they stay valid until the user navigates away.
//
// # Usage
//
//	ctx, gen := mgr.Select(context.Background(), guildID, channelID)
//	go func() {
//	    page, err := coord.Messages(ctx, channelID, 50, 0)
//	    program.Send(messagesLoaded{gen: gen, page: page, err: err})
//	}()
//
//	// in Update:
//	if !mgr.IsCurrent(msg.gen) {
//	    return m, nil // stale, ignore
//	}
package session
