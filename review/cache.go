// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package review

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/docsift/docsift/extraction"
	"github.com/docsift/docsift/lib/clock"
)

// Cache defaults. The dwell period is how long the "new items" flag
// stays raised after the last record_added event.
const (
	DefaultNewItemsDwell = 3 * time.Second
	DefaultFetchTimeout  = 10 * time.Second
)

// PendingFetcher fetches the authoritative pending queue. The Client
// implements it; tests substitute a fake.
type PendingFetcher interface {
	FetchPending(ctx context.Context) ([]extraction.Record, error)
}

// QueueCacheConfig configures a QueueCache. Fetcher is required.
type QueueCacheConfig struct {
	// Fetcher supplies the server's pending queue on each refetch.
	Fetcher PendingFetcher

	// OnSnapshot observes every successfully installed snapshot,
	// outside the cache's lock. Wire the stats observer and UI
	// re-render here.
	OnSnapshot func(records []extraction.Record)

	// OnNewItems observes changes of the "new items" flag, outside
	// the cache's lock.
	OnNewItems func(active bool)

	// NewItemsDwell is how long the "new items" flag stays raised
	// after a record_added event. Another record_added mid-dwell
	// restarts the full period; there is never more than one pending
	// expiration. Defaults to DefaultNewItemsDwell.
	NewItemsDwell time.Duration

	// FetchTimeout bounds each refetch. Defaults to
	// DefaultFetchTimeout.
	FetchTimeout time.Duration

	// Clock drives the dwell timer. Nil selects the real clock.
	Clock clock.Clock

	// Logger receives refetch failures. Nil discards.
	Logger *slog.Logger
}

// QueueCache mirrors the server's pending queue. Push events are pure
// invalidation signals: any of them marks the snapshot stale and
// triggers a refetch, and the snapshot is only ever replaced
// wholesale, so readers never observe a partial update. Events never
// patch the snapshot directly; they do not carry enough information
// to reconstruct server-side ordering and validation state.
//
// Refetches are single-flight. Events arriving while one is in
// flight coalesce into it rather than queueing further fetches; the
// cache converges on the latest server state rather than replaying
// every event.
type QueueCache struct {
	fetcher      PendingFetcher
	onSnapshot   func([]extraction.Record)
	onNewItems   func(bool)
	dwell        time.Duration
	fetchTimeout time.Duration
	clock        clock.Clock
	logger       *slog.Logger

	mu       sync.Mutex
	snapshot []extraction.Record
	stale    bool
	fetching bool

	newItems bool
	dwellGen int
	// dwellTimer is the single pending expiration for the new-items
	// flag. Raising the flag again replaces it.
	dwellTimer *clock.Timer
}

// NewQueueCache builds a QueueCache with an empty snapshot. Call
// Invalidate once after construction to load the initial queue.
func NewQueueCache(cfg QueueCacheConfig) (*QueueCache, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("review: QueueCacheConfig.Fetcher is required")
	}
	if cfg.NewItemsDwell <= 0 {
		cfg.NewItemsDwell = DefaultNewItemsDwell
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	return &QueueCache{
		fetcher:      cfg.Fetcher,
		onSnapshot:   cfg.OnSnapshot,
		onNewItems:   cfg.OnNewItems,
		dwell:        cfg.NewItemsDwell,
		fetchTimeout: cfg.FetchTimeout,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
	}, nil
}

// HandleEvent is the dispatcher subscriber. record_added additionally
// raises the new-items flag; all three queue events invalidate.
func (q *QueueCache) HandleEvent(event extraction.Event) {
	switch event.(type) {
	case extraction.RecordAdded:
		q.raiseNewItems()
		q.Invalidate()
	case extraction.RecordRemoved, extraction.RecordUpdated:
		q.Invalidate()
	}
}

// Invalidate marks the snapshot stale and ensures a refetch is in
// flight. Calls while one is already running coalesce into it.
func (q *QueueCache) Invalidate() {
	q.mu.Lock()
	q.stale = true
	if q.fetching {
		q.mu.Unlock()
		return
	}
	q.fetching = true
	q.mu.Unlock()

	go q.refetch()
}

func (q *QueueCache) refetch() {
	ctx, cancel := context.WithTimeout(context.Background(), q.fetchTimeout)
	records, err := q.fetcher.FetchPending(ctx)
	cancel()

	q.mu.Lock()
	q.fetching = false
	if err != nil {
		// Still stale; the next event starts another cycle.
		q.mu.Unlock()
		q.logger.Warn("pending queue refetch failed", "error", err)
		return
	}
	q.snapshot = records
	q.stale = false
	onSnapshot := q.onSnapshot
	q.mu.Unlock()

	q.logger.Debug("pending queue refreshed", "records", len(records))
	if onSnapshot != nil {
		onSnapshot(records)
	}
}

// Snapshot returns the last fetched queue. Callers must treat the
// returned slice as read-only; it is shared until the next wholesale
// replacement.
func (q *QueueCache) Snapshot() []extraction.Record {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshot
}

// Stale reports whether an event has invalidated the snapshot since
// it was last fetched.
func (q *QueueCache) Stale() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stale
}

// NewItems reports whether a record_added event arrived within the
// dwell period.
func (q *QueueCache) NewItems() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.newItems
}

// Close cancels the pending dwell expiration. The cache remains
// readable.
func (q *QueueCache) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dwellGen++
	if q.dwellTimer != nil {
		q.dwellTimer.Stop()
		q.dwellTimer = nil
	}
}

func (q *QueueCache) raiseNewItems() {
	q.mu.Lock()
	wasActive := q.newItems
	q.newItems = true
	q.dwellGen++
	generation := q.dwellGen
	if q.dwellTimer != nil {
		q.dwellTimer.Stop()
	}
	q.dwellTimer = q.clock.AfterFunc(q.dwell, func() { q.clearNewItems(generation) })
	onNewItems := q.onNewItems
	q.mu.Unlock()

	if !wasActive && onNewItems != nil {
		onNewItems(true)
	}
}

func (q *QueueCache) clearNewItems(generation int) {
	q.mu.Lock()
	if generation != q.dwellGen || !q.newItems {
		q.mu.Unlock()
		return
	}
	q.newItems = false
	q.dwellTimer = nil
	onNewItems := q.onNewItems
	q.mu.Unlock()

	if onNewItems != nil {
		onNewItems(false)
	}
}
