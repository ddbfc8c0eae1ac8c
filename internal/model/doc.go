// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the normalized domain entities for the client.
//
// This package defines the core types cached and rendered by the
// application, converted from wire records at the ingestion boundary.
//
// # Key Types
//
//   - Guild: Server the user belongs to
//   - Channel: Text/voice/category/DM channel with a normalized Kind and name
//   - Member: Guild membership keyed (GuildID, UserID) with an ordered role list
//   - Role: Guild role carrying color and rank position
//   - Message: Immutable channel message with author and opaque stubs
//   - Color: Resolved display color (#RRGGBB), never an unresolved sentinel
//
// # Normalization
//
// All total-field guarantees are established here, once, when a wire record
// becomes a model entity. DM channels without an upstream name receive one
// from their recipient list ("Unknown" as the last resort, "Group DM" for
// unnamed group chats); no downstream consumer ever observes an empty
// channel name. Renderers and stores rely on these invariants instead of
// re-checking them.
//
// # Usage
//
// Convert a fetched wire record:
//
//	ch := model.NewChannelFromAPI(wire)
//	fmt.Println(ch.Name) // never empty
package model
