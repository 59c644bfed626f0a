// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package review

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func statsPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "session-stats.json")
}

func requireCounts(t *testing.T, stats *Stats, wantApproved, wantRejected int) {
	t.Helper()
	approved, rejected := stats.Counts()
	if approved != wantApproved || rejected != wantRejected {
		t.Fatalf("counts: got %d/%d, want %d/%d", approved, rejected, wantApproved, wantRejected)
	}
}

func TestStatsPersistRoundTrip(t *testing.T) {
	path := statsPath(t)

	stats := NewStats(StatsConfig{Path: path})
	stats.IncrementApproved()
	stats.IncrementApproved()
	stats.IncrementApproved()
	stats.IncrementRejected()
	requireCounts(t, stats, 3, 1)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading state file: %v", err)
	}
	var persisted map[string]int
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("parsing state file: %v", err)
	}
	if persisted["approvedCount"] != 3 || persisted["rejectedCount"] != 1 {
		t.Fatalf("persisted: got %v, want approvedCount=3 rejectedCount=1", persisted)
	}

	reloaded := NewStats(StatsConfig{Path: path})
	requireCounts(t, reloaded, 3, 1)
}

func TestStatsAutoReset(t *testing.T) {
	t.Run("first observation never resets", func(t *testing.T) {
		stats := NewStats(StatsConfig{Path: statsPath(t)})
		stats.IncrementApproved()
		stats.ObserveQueueLength(0)
		requireCounts(t, stats, 1, 0)
	})

	t.Run("queue drained", func(t *testing.T) {
		path := statsPath(t)
		stats := NewStats(StatsConfig{Path: path})
		stats.ObserveQueueLength(5)
		stats.IncrementApproved()
		stats.IncrementRejected()
		stats.ObserveQueueLength(0)
		requireCounts(t, stats, 0, 0)

		// The boundary reset clears the state file too.
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("state file after reset: got %v, want not-exist", err)
		}
	})

	t.Run("queue refilled from empty", func(t *testing.T) {
		stats := NewStats(StatsConfig{Path: statsPath(t)})
		stats.ObserveQueueLength(0)
		stats.IncrementApproved()
		stats.ObserveQueueLength(3)
		requireCounts(t, stats, 0, 0)
	})

	t.Run("nonzero to nonzero keeps counts", func(t *testing.T) {
		stats := NewStats(StatsConfig{Path: statsPath(t)})
		stats.ObserveQueueLength(5)
		stats.IncrementApproved()
		stats.ObserveQueueLength(3)
		requireCounts(t, stats, 1, 0)
	})

	t.Run("empty to empty keeps counts", func(t *testing.T) {
		stats := NewStats(StatsConfig{Path: statsPath(t)})
		stats.ObserveQueueLength(0)
		stats.IncrementRejected()
		stats.ObserveQueueLength(0)
		requireCounts(t, stats, 0, 1)
	})
}

func TestStatsResetClearsFile(t *testing.T) {
	path := statsPath(t)
	stats := NewStats(StatsConfig{Path: path})
	stats.IncrementApproved()
	stats.IncrementRejected()

	stats.Reset()
	requireCounts(t, stats, 0, 0)
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("state file after Reset: got %v, want not-exist", err)
	}
}

func TestStatsCorruptFileStartsFromZero(t *testing.T) {
	path := statsPath(t)
	if err := os.WriteFile(path, []byte("not json at all"), 0600); err != nil {
		t.Fatalf("seeding corrupt file: %v", err)
	}

	stats := NewStats(StatsConfig{Path: path})
	requireCounts(t, stats, 0, 0)

	// The store still works after the fallback.
	stats.IncrementApproved()
	reloaded := NewStats(StatsConfig{Path: path})
	requireCounts(t, reloaded, 1, 0)
}

func TestStatsMemoryOnly(t *testing.T) {
	stats := NewStats(StatsConfig{})
	stats.IncrementApproved()
	stats.IncrementRejected()
	stats.IncrementRejected()
	requireCounts(t, stats, 1, 2)

	stats.Reset()
	requireCounts(t, stats, 0, 0)
}
