// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package discord provides the HTTP client for the Discord REST API (v10).
//
// The client covers the read surface this application needs plus the login
// endpoints: current user, guild list, DM channel list, guild channels,
// guild roles, guild members, and paginated channel messages.
//
// # Errors
//
// Every failure is surfaced as an *APIError whose Type classifies how the
// caller should react:
//
//   - ErrTypeUnauthorized: token invalid or missing permission — never retry
//   - ErrTypeNotFound: entity does not exist or is hidden — never retry
//   - ErrTypeRateLimited: server asked us to back off; RetryAfter carries
//     the server-specified wait
//   - ErrTypeNetwork: transport failure or 5xx — transient, retry once
//   - ErrTypeInvalidResponse: unexpected status or undecodable body
//
// Use the IsUnauthorized/IsNotFound/IsRateLimited/IsNetwork helpers rather
// than matching on Type directly.
//
// # Rate limiting
//
// Outbound requests pass through a token-bucket limiter (x/time/rate) so a
// burst of lazy fetches cannot trip Discord's global limit. Server-side 429
// responses are still mapped to ErrTypeRateLimited for the caller's retry
// policy; the client does not retry on its own.
//
// # Usage
//
//	client := discord.NewClient(token)
//	guilds, err := client.Guilds(ctx)
//	if discord.IsUnauthorized(err) {
//	    // prompt for a fresh login
//	}
package discord
