// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics provides session counters and analytics for cordial.
//
// A Tracker counts API requests, cache hits, deduplicated fetches, retries,
// and rate-limit wait time per entity kind. The UI status bar reads
// Snapshot(); session summaries persist to ~/.cordial/sessions/ as JSON so
// `cordial status` can report recent activity.
//
// # Usage
//
// Create a tracker and record events:
//
//	tracker, err := metrics.NewTracker("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tracker.RecordRequest("messages")
//	tracker.RecordCacheHit("channels")
//
// Read counters for display:
//
//	snap := tracker.Snapshot()
//	fmt.Printf("%d requests, %d cache hits", snap.Requests, snap.CacheHits)
package metrics
