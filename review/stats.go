// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package review

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// sessionCounters is the persisted shape: a single JSON document
// holding both counters.
type sessionCounters struct {
	ApprovedCount int `json:"approvedCount"`
	RejectedCount int `json:"rejectedCount"`
}

// StatsConfig configures a Stats store.
type StatsConfig struct {
	// Path is the JSON state file. Missing or unreadable files fall
	// back to zeroed counters; they are never fatal. An empty path
	// keeps the counters in memory only.
	Path string

	// Logger receives persistence failures. Nil discards.
	Logger *slog.Logger
}

// Stats tracks how many records the reviewer approved and rejected in
// the current review batch. Counters persist across restarts through
// the state file and reset at queue-emptiness boundaries: when the
// pending queue drains to zero, or refills from zero, the batch is
// over and the counters start fresh.
//
// Persistence is best-effort. Failures are logged and the in-memory
// counters keep working; concurrent writers (two sessions on one
// state file) are not coordinated, last write wins.
type Stats struct {
	path   string
	logger *slog.Logger

	mu       sync.Mutex
	approved int
	rejected int

	// prevLength is the last observed queue length, nil until the
	// first observation. The auto-reset rule needs the distinction:
	// a first observation never resets, whatever its value.
	prevLength *int
}

// NewStats loads the counters from cfg.Path. Read and parse failures
// fall back to {0, 0} with a log line; NewStats never fails.
func NewStats(cfg StatsConfig) *Stats {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Stats{path: cfg.Path, logger: logger}
	if cfg.Path == "" {
		return s
	}

	data, err := os.ReadFile(cfg.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// First run.
	case err != nil:
		logger.Warn("session stats unreadable, starting from zero", "path", cfg.Path, "error", err)
	default:
		var counters sessionCounters
		if err := json.Unmarshal(data, &counters); err != nil {
			logger.Warn("session stats corrupt, starting from zero", "path", cfg.Path, "error", err)
		} else {
			s.approved = counters.ApprovedCount
			s.rejected = counters.RejectedCount
		}
	}
	return s
}

// Counts reports the current counters.
func (s *Stats) Counts() (approved, rejected int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.approved, s.rejected
}

// IncrementApproved adds one approval and persists immediately.
func (s *Stats) IncrementApproved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approved++
	s.persistLocked()
}

// IncrementRejected adds one rejection and persists immediately.
func (s *Stats) IncrementRejected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected++
	s.persistLocked()
}

// Reset zeroes both counters and clears the state file.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// ObserveQueueLength feeds the auto-reset rule. A reset fires exactly
// when a previous observation exists and the queue either drained
// (previous > 0, current == 0) or refilled (previous == 0,
// current > 0). The first observation only records the length.
func (s *Stats) ObserveQueueLength(length int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.prevLength != nil {
		previous := *s.prevLength
		if (previous > 0 && length == 0) || (previous == 0 && length > 0) {
			s.logger.Info("review batch boundary, resetting session stats",
				"previous_length", previous,
				"current_length", length,
			)
			s.resetLocked()
		}
	}
	observed := length
	s.prevLength = &observed
}

func (s *Stats) resetLocked() {
	s.approved = 0
	s.rejected = 0
	if s.path == "" {
		return
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("session stats clear failed", "path", s.path, "error", err)
	}
}

// persistLocked writes the counters through a temporary file so a
// crash mid-write never leaves a truncated state file. Failures are
// logged; the in-memory counters stay authoritative for the session.
func (s *Stats) persistLocked() {
	if s.path == "" {
		return
	}
	data, err := json.Marshal(sessionCounters{
		ApprovedCount: s.approved,
		RejectedCount: s.rejected,
	})
	if err != nil {
		s.logger.Warn("session stats encode failed", "error", err)
		return
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		s.logger.Warn("session stats persist failed", "path", s.path, "error", err)
		return
	}
	temporaryPath := s.path + ".tmp"
	if err := os.WriteFile(temporaryPath, data, 0600); err != nil {
		s.logger.Warn("session stats persist failed", "path", s.path, "error", err)
		return
	}
	if err := os.Rename(temporaryPath, s.path); err != nil {
		os.Remove(temporaryPath)
		s.logger.Warn("session stats persist failed", "path", s.path, "error", err)
	}
}
