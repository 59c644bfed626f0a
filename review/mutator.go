// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package review

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docsift/docsift/extraction"
)

// Remote is the slice of the review API a Mutator calls. *Client
// implements it.
type Remote interface {
	Approve(ctx context.Context, recordID string) (extraction.ApprovalResult, error)
	Reject(ctx context.Context, recordID string) error
	Edit(ctx context.Context, recordID string, updates map[string]any) (extraction.Record, error)
}

// Invalidator marks the pending snapshot stale after a mutation
// changed the queue server-side. *QueueCache implements it.
type Invalidator interface {
	Invalidate()
}

// MutatorConfig configures a Mutator.
type MutatorConfig struct {
	// Remote performs the API calls. Required.
	Remote Remote

	// Cache, when set, is invalidated after every successful mutation
	// so the snapshot refreshes without waiting for the push event.
	Cache Invalidator

	// OnApproved fires after a successful approval.
	OnApproved func(recordID string, result extraction.ApprovalResult)

	// OnRejected fires after a successful rejection.
	OnRejected func(recordID string)

	// Logger is used for structured logging. If nil, logs are discarded.
	Logger *slog.Logger
}

// Mutator drives the review decisions: approve, reject, and edit. Each
// operation makes exactly one API call and never touches local state
// until the server confirms. A failed call changes nothing and returns
// a single *MutationError; retrying is the caller's decision.
type Mutator struct {
	remote     Remote
	cache      Invalidator
	onApproved func(string, extraction.ApprovalResult)
	onRejected func(string)
	logger     *slog.Logger
}

// NewMutator creates a Mutator.
func NewMutator(config MutatorConfig) (*Mutator, error) {
	if config.Remote == nil {
		return nil, fmt.Errorf("review: Remote is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Mutator{
		remote:     config.Remote,
		cache:      config.Cache,
		onApproved: config.OnApproved,
		onRejected: config.OnRejected,
		logger:     logger,
	}, nil
}

// Approve exports the record downstream and removes it from the queue.
// A server-side export failure (the record stays pending) and a
// transport failure both come back as *MutationError; only a confirmed
// approval invalidates the cache and fires OnApproved.
func (m *Mutator) Approve(ctx context.Context, recordID string) (extraction.ApprovalResult, error) {
	result, err := m.remote.Approve(ctx, recordID)
	if err != nil {
		return extraction.ApprovalResult{}, &MutationError{Op: "approve", RecordID: recordID, Err: err}
	}
	if !result.Success {
		m.logger.Warn("approval refused by service", "record_id", recordID, "reason", result.Error)
		return result, &MutationError{Op: "approve", RecordID: recordID, Reason: result.Error}
	}

	m.logger.Info("record approved", "record_id", recordID, "sheet_row", result.SheetRow)
	if m.cache != nil {
		m.cache.Invalidate()
	}
	if m.onApproved != nil {
		m.onApproved(recordID, result)
	}
	return result, nil
}

// Reject marks the record rejected and removes it from the queue.
func (m *Mutator) Reject(ctx context.Context, recordID string) error {
	if err := m.remote.Reject(ctx, recordID); err != nil {
		return &MutationError{Op: "reject", RecordID: recordID, Err: err}
	}

	m.logger.Info("record rejected", "record_id", recordID)
	if m.cache != nil {
		m.cache.Invalidate()
	}
	if m.onRejected != nil {
		m.onRejected(recordID)
	}
	return nil
}

// Edit applies field updates to a pending record. The record stays in
// the queue; the returned record is the server's updated copy.
func (m *Mutator) Edit(ctx context.Context, recordID string, updates map[string]any) (extraction.Record, error) {
	record, err := m.remote.Edit(ctx, recordID, updates)
	if err != nil {
		return extraction.Record{}, &MutationError{Op: "edit", RecordID: recordID, Err: err}
	}

	m.logger.Info("record edited", "record_id", recordID, "fields", len(updates))
	if m.cache != nil {
		m.cache.Invalidate()
	}
	return record, nil
}
