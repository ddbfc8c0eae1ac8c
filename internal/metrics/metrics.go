// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics provides session counters and analytics for cordial.
package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// =============================================================================
// SESSION TRACKER
// =============================================================================

// sessionIDCounter ensures unique session IDs even when created rapidly
var sessionIDCounter uint64

// Tracker counts what a session does: API requests per entity kind, cache
// hits, deduplicated fetches, retries, and time spent waiting on rate
// limits. The status bar polls Snapshot; summaries persist on exit.
type Tracker struct {
	mu      sync.RWMutex
	current *SessionSummary
	storage *SummaryStorage
}

// SessionSummary aggregates counters for a single session.
type SessionSummary struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// Per-entity-kind counters keyed by fetch kind (guilds, channels,
	// roles, member, messages)
	Kinds map[string]*KindStats `json:"kinds"`

	// RateLimitWait is total time spent sleeping on 429 backoff
	RateLimitWait time.Duration `json:"rate_limit_wait"`
}

// KindStats counts activity for one entity kind.
type KindStats struct {
	Requests   int `json:"requests"`
	CacheHits  int `json:"cache_hits"`
	DedupJoins int `json:"dedup_joins"`
	Retries    int `json:"retries"`
	Failures   int `json:"failures"`
}

// Snapshot is a point-in-time copy of the session counters, safe to hold
// across frames.
type Snapshot struct {
	SessionID     string
	StartTime     time.Time
	Kinds         map[string]KindStats
	RateLimitWait time.Duration

	// Totals across kinds
	Requests   int
	CacheHits  int
	DedupJoins int
	Retries    int
	Failures   int
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// NewTracker creates a session tracker with persistent summary storage.
func NewTracker(storagePath string) (*Tracker, error) {
	storage, err := NewSummaryStorage(storagePath)
	if err != nil {
		return nil, err
	}

	t := &Tracker{storage: storage}
	t.current = newSessionSummary()
	return t, nil
}

// NewMemoryTracker creates a tracker without persistence, for tests and
// one-shot commands.
func NewMemoryTracker() *Tracker {
	return &Tracker{current: newSessionSummary()}
}

func newSessionSummary() *SessionSummary {
	return &SessionSummary{
		ID:        generateSessionID(),
		StartTime: time.Now(),
		Kinds:     make(map[string]*KindStats),
	}
}

// =============================================================================
// RECORDING
// =============================================================================

// RecordRequest counts one API request for the given entity kind.
func (t *Tracker) RecordRequest(kind string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.kindLocked(kind).Requests++
}

// RecordCacheHit counts a fetch served from the offline cache.
func (t *Tracker) RecordCacheHit(kind string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.kindLocked(kind).CacheHits++
}

// RecordDedupJoin counts a caller that joined an in-flight fetch instead of
// issuing its own request.
func (t *Tracker) RecordDedupJoin(kind string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.kindLocked(kind).DedupJoins++
}

// RecordRetry counts one retry attempt for the given entity kind.
func (t *Tracker) RecordRetry(kind string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.kindLocked(kind).Retries++
}

// RecordFailure counts a fetch that gave up after exhausting its retries.
func (t *Tracker) RecordFailure(kind string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.kindLocked(kind).Failures++
}

// RecordRateLimitWait adds time spent honoring a server backoff.
func (t *Tracker) RecordRateLimitWait(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current.RateLimitWait += d
}

// kindLocked returns the stats bucket for kind, creating it on first use.
// Callers must hold t.mu.
func (t *Tracker) kindLocked(kind string) *KindStats {
	ks, ok := t.current.Kinds[kind]
	if !ok {
		ks = &KindStats{}
		t.current.Kinds[kind] = ks
	}
	return ks
}

// =============================================================================
// RETRIEVAL
// =============================================================================

// Snapshot returns a copy of the current session's counters.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := Snapshot{
		SessionID:     t.current.ID,
		StartTime:     t.current.StartTime,
		Kinds:         make(map[string]KindStats, len(t.current.Kinds)),
		RateLimitWait: t.current.RateLimitWait,
	}

	for kind, ks := range t.current.Kinds {
		snap.Kinds[kind] = *ks
		snap.Requests += ks.Requests
		snap.CacheHits += ks.CacheHits
		snap.DedupJoins += ks.DedupJoins
		snap.Retries += ks.Retries
		snap.Failures += ks.Failures
	}

	return snap
}

// History returns persisted session summaries in the given date range.
func (t *Tracker) History(from, to time.Time) []*SessionSummary {
	if t.storage == nil {
		return nil
	}

	ids, err := t.storage.List(from, to)
	if err != nil {
		return nil
	}

	summaries := make([]*SessionSummary, 0, len(ids))
	for _, id := range ids {
		s, err := t.storage.Load(id)
		if err != nil {
			continue
		}
		summaries = append(summaries, s)
	}

	return summaries
}

// =============================================================================
// SESSION MANAGEMENT
// =============================================================================

// EndSession persists the current session summary and starts a new one.
func (t *Tracker) EndSession() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current.EndTime = time.Now()
	if t.storage != nil {
		if err := t.storage.Save(t.current); err != nil {
			return err
		}
	}

	t.current = newSessionSummary()
	return nil
}

// SaveCurrentSession writes the in-progress session to disk without
// rotating it.
func (t *Tracker) SaveCurrentSession() error {
	if t.storage == nil {
		return nil
	}

	t.mu.RLock()
	current := t.copySummaryLocked()
	t.mu.RUnlock()

	return t.storage.Save(current)
}

// copySummaryLocked deep-copies the current summary. Callers must hold t.mu.
func (t *Tracker) copySummaryLocked() *SessionSummary {
	dst := &SessionSummary{
		ID:            t.current.ID,
		StartTime:     t.current.StartTime,
		EndTime:       t.current.EndTime,
		Kinds:         make(map[string]*KindStats, len(t.current.Kinds)),
		RateLimitWait: t.current.RateLimitWait,
	}
	for kind, ks := range t.current.Kinds {
		cp := *ks
		dst.Kinds[kind] = &cp
	}
	return dst
}

// generateSessionID generates a unique session ID.
func generateSessionID() string {
	// Use date format plus atomic counter for guaranteed uniqueness
	now := time.Now()
	counter := atomic.AddUint64(&sessionIDCounter, 1)
	return now.Format("20060102-150405") + "-" + fmt.Sprintf("%d", counter)
}
