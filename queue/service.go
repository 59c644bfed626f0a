// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docsift/docsift/extraction"
	"github.com/docsift/docsift/lib/clock"
)

// ErrNotPending reports a mutation aimed at a record that has already
// left the pending queue. The record is untouched.
var ErrNotPending = errors.New("queue: record is not pending")

// ErrInvalidUpdate reports an edit payload that names a field that
// does not exist, may not be edited, or would leave the record
// invalid. The record is untouched.
var ErrInvalidUpdate = errors.New("queue: invalid update")

// Service is the review queue. It owns the workflow rules — which
// mutations are legal in which state — and fans every queue change
// out to connected push clients. Storage, ingestion, and the push hub
// are injected so tests can drive each seam separately.
type Service struct {
	store    *Store
	hub      *Hub
	ingester *Ingester
	clock    clock.Clock
	logger   *slog.Logger
	dwell    time.Duration

	// scanMu serializes scans. The HTTP trigger and the periodic
	// ticker may fire together; the second scan waits rather than
	// racing the first over the same inbox files.
	scanMu sync.Mutex

	mu         sync.Mutex
	lastIngest time.Time // last time a scan added records; zero if never
}

// ServiceConfig configures a Service. Store, Hub, and Ingester are
// required.
type ServiceConfig struct {
	Store    *Store
	Hub      *Hub
	Ingester *Ingester

	// NewItemsDwell is how long after an ingest the pending count
	// endpoint keeps reporting has_new. Defaults to 3 seconds.
	NewItemsDwell time.Duration

	// Clock defaults to the real clock.
	Clock clock.Clock

	// Logger defaults to a discard logger.
	Logger *slog.Logger
}

// NewService wires a review queue service from its parts.
func NewService(config ServiceConfig) (*Service, error) {
	if config.Store == nil {
		return nil, errors.New("queue: ServiceConfig.Store is required")
	}
	if config.Hub == nil {
		return nil, errors.New("queue: ServiceConfig.Hub is required")
	}
	if config.Ingester == nil {
		return nil, errors.New("queue: ServiceConfig.Ingester is required")
	}
	if config.NewItemsDwell == 0 {
		config.NewItemsDwell = 3 * time.Second
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:    config.Store,
		hub:      config.Hub,
		ingester: config.Ingester,
		clock:    config.Clock,
		logger:   config.Logger,
		dwell:    config.NewItemsDwell,
	}, nil
}

// RunScan sweeps the extraction inbox, queues whatever is new, and
// announces each added record to push clients. Concurrent calls are
// serialized.
func (s *Service) RunScan(ctx context.Context) (extraction.ScanResult, error) {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	result, added, err := s.ingester.Scan(ctx)
	if err != nil {
		return result, err
	}

	for i := range added {
		record := &added[i]
		s.hub.Broadcast(extraction.RecordAdded{
			RecordID: record.ID,
			Data: map[string]any{
				"type":       string(record.Type),
				"confidence": record.Confidence,
			},
		})
	}

	if len(added) > 0 {
		s.mu.Lock()
		s.lastIngest = s.clock.Now()
		s.mu.Unlock()
	}
	return result, nil
}

// Pending returns every record awaiting review, oldest first.
func (s *Service) Pending(ctx context.Context) ([]extraction.Record, error) {
	return s.store.PendingRecords(ctx)
}

// Record returns a single record by ID regardless of status.
func (s *Service) Record(ctx context.Context, id string) (*extraction.Record, error) {
	return s.store.Record(ctx, id)
}

// PendingCount reports the queue size and whether any record arrived
// within the new-items dwell window.
func (s *Service) PendingCount(ctx context.Context) (count int, hasNew bool, err error) {
	count, err = s.store.PendingCount(ctx)
	if err != nil {
		return 0, false, err
	}
	s.mu.Lock()
	lastIngest := s.lastIngest
	s.mu.Unlock()
	if !lastIngest.IsZero() && s.clock.Now().Sub(lastIngest) < s.dwell {
		hasNew = true
	}
	return count, hasNew, nil
}

// ClearPending removes every pending record and its stored source
// document, then tells push clients the queue emptied. Ingest hashes
// survive: cleared inbox files stay recognized and are not re-queued
// by later scans.
func (s *Service) ClearPending(ctx context.Context) (int, error) {
	records, err := s.store.PendingRecords(ctx)
	if err != nil {
		return 0, err
	}
	cleared, err := s.store.ClearPending(ctx)
	if err != nil {
		return 0, err
	}
	for i := range records {
		s.hub.Broadcast(extraction.RecordRemoved{RecordID: records[i].ID})
	}
	s.logger.Info("pending queue cleared", "records_cleared", cleared)
	return cleared, nil
}

// Approve marks a pending record approved and drops it from the
// queue. A record that is not pending is refused: the result carries
// Success false and the record keeps its current status. Unknown IDs
// return ErrRecordNotFound.
func (s *Service) Approve(ctx context.Context, id string) (extraction.ApprovalResult, error) {
	record, err := s.store.Record(ctx, id)
	if err != nil {
		return extraction.ApprovalResult{}, err
	}
	if record.Status != extraction.StatusPending {
		return extraction.ApprovalResult{
			Success: false,
			Error:   fmt.Sprintf("record %s is %s, not pending", id, record.Status),
		}, nil
	}
	if err := s.store.SetStatus(ctx, id, extraction.StatusApproved); err != nil {
		return extraction.ApprovalResult{}, err
	}
	s.hub.Broadcast(extraction.RecordRemoved{RecordID: id})
	s.logger.Info("record approved", "record_id", id, "record_type", record.Type)
	return extraction.ApprovalResult{Success: true}, nil
}

// Reject marks a pending record rejected and drops it from the queue.
// Unknown IDs return ErrRecordNotFound; records that already left the
// queue return ErrNotPending.
func (s *Service) Reject(ctx context.Context, id string) error {
	record, err := s.store.Record(ctx, id)
	if err != nil {
		return err
	}
	if record.Status != extraction.StatusPending {
		return fmt.Errorf("%w: record %s is %s", ErrNotPending, id, record.Status)
	}
	if err := s.store.SetStatus(ctx, id, extraction.StatusRejected); err != nil {
		return err
	}
	s.hub.Broadcast(extraction.RecordRemoved{RecordID: id})
	s.logger.Info("record rejected", "record_id", id, "record_type", record.Type)
	return nil
}

// Edit applies partial field updates to a pending record and returns
// the updated record. Updates are JSON field names mapped to new
// values; "id" and "status" may not be edited, and the merged record
// must still validate. Unknown IDs return ErrRecordNotFound; records
// that already left the queue return ErrNotPending; bad updates
// return ErrInvalidUpdate.
func (s *Service) Edit(ctx context.Context, id string, updates map[string]any) (*extraction.Record, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidUpdate)
	}
	for _, field := range []string{"id", "status"} {
		if _, ok := updates[field]; ok {
			return nil, fmt.Errorf("%w: field %q is not editable", ErrInvalidUpdate, field)
		}
	}

	record, err := s.store.Record(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Status != extraction.StatusPending {
		return nil, fmt.Errorf("%w: record %s is %s", ErrNotPending, id, record.Status)
	}

	updated, err := mergeRecordUpdates(record, updates)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateRecord(ctx, updated); err != nil {
		return nil, err
	}

	fields := make([]string, 0, len(updates))
	for field := range updates {
		fields = append(fields, field)
	}
	s.hub.Broadcast(extraction.RecordUpdated{
		RecordID: id,
		Data:     map[string]any{"fields": fields},
	})
	s.logger.Info("record edited", "record_id", id, "fields", fields)
	return updated, nil
}

// Health reports storage reachability and the pending count.
func (s *Service) Health(ctx context.Context) (pendingCount int, err error) {
	return s.store.PendingCount(ctx)
}

// Source returns the original document a record was extracted from.
func (s *Service) Source(ctx context.Context, id string) (*extraction.SourceDocument, error) {
	return s.store.Document(ctx, id)
}

// mergeRecordUpdates overlays JSON field updates onto a record. The
// merge goes through the record's JSON form so update keys use the
// same field names the API serves. An update key that matches no
// record field, or a value of the wrong type, is an error rather
// than silently dropped.
func mergeRecordUpdates(record *extraction.Record, updates map[string]any) (*extraction.Record, error) {
	// Vet the update keys and value types with a strict decode
	// before merging. A presence check against the record's own
	// JSON would miss fields that are currently empty and omitted.
	encodedUpdates, err := json.Marshal(updates)
	if err != nil {
		return nil, fmt.Errorf("queue: encoding updates: %w", err)
	}
	probeDecoder := json.NewDecoder(bytes.NewReader(encodedUpdates))
	probeDecoder.DisallowUnknownFields()
	var probe extraction.Record
	if err := probeDecoder.Decode(&probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("queue: encoding record for merge: %w", err)
	}
	var merged map[string]any
	if err := json.Unmarshal(encoded, &merged); err != nil {
		return nil, fmt.Errorf("queue: decoding record for merge: %w", err)
	}
	for field, value := range updates {
		merged[field] = value
	}

	remerged, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("queue: encoding merged record: %w", err)
	}
	var updated extraction.Record
	if err := json.Unmarshal(remerged, &updated); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
	}
	if err := updated.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
	}
	return &updated, nil
}
