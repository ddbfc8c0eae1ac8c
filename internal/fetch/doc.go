// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package fetch coordinates REST reads against the entity store.
//
// The Coordinator is the only path between the REST client and the rest of
// the program. It deduplicates concurrent identical requests through a
// keyed in-flight table, applies the retry policy per error kind, upserts
// every successful result into the entity store before returning, and
// falls back to the persistent cache when the network is gone.
//
// # Retry Policy
//
// Rate-limited responses wait the server-specified backoff and retry up to
// three total attempts. Transient network errors retry once, immediately.
// Unauthorized and not-found are terminal and never retried. Exhaustion
// returns the typed error from the last attempt unchanged.
//
// # Deduplication
//
// In-flight requests are keyed (kind, key) via x/sync/singleflight: any
// caller asking for a resource already being fetched joins the in-flight
// call and shares its result and error. Joins are counted in metrics.
//
// # Usage
//
//	coord := fetch.NewCoordinator(fetch.Config{
//	    Client: client,
//	    Store:  store,
//	})
//	msgs, err := coord.Messages(ctx, channelID, 50, 0)
package fetch
