// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package review

import (
	"context"
	"errors"
	"testing"

	"github.com/docsift/docsift/extraction"
)

// fakeRemote scripts the review API for mutator tests.
type fakeRemote struct {
	approveResult extraction.ApprovalResult
	approveErr    error
	rejectErr     error
	editRecord    extraction.Record
	editErr       error

	approved []string
	rejected []string
	edited   []string
}

func (r *fakeRemote) Approve(ctx context.Context, recordID string) (extraction.ApprovalResult, error) {
	r.approved = append(r.approved, recordID)
	return r.approveResult, r.approveErr
}

func (r *fakeRemote) Reject(ctx context.Context, recordID string) error {
	r.rejected = append(r.rejected, recordID)
	return r.rejectErr
}

func (r *fakeRemote) Edit(ctx context.Context, recordID string, updates map[string]any) (extraction.Record, error) {
	r.edited = append(r.edited, recordID)
	return r.editRecord, r.editErr
}

// countingInvalidator records Invalidate calls.
type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate() { c.calls++ }

type mutatorHarness struct {
	mutator    *Mutator
	remote     *fakeRemote
	cache      *countingInvalidator
	approvals  []string
	rejections []string
}

func newMutatorHarness(t *testing.T, remote *fakeRemote) *mutatorHarness {
	t.Helper()
	h := &mutatorHarness{remote: remote, cache: &countingInvalidator{}}
	mutator, err := NewMutator(MutatorConfig{
		Remote: remote,
		Cache:  h.cache,
		OnApproved: func(recordID string, result extraction.ApprovalResult) {
			h.approvals = append(h.approvals, recordID)
		},
		OnRejected: func(recordID string) {
			h.rejections = append(h.rejections, recordID)
		},
	})
	if err != nil {
		t.Fatalf("NewMutator: %v", err)
	}
	h.mutator = mutator
	return h
}

func TestMutatorApproveSuccess(t *testing.T) {
	h := newMutatorHarness(t, &fakeRemote{
		approveResult: extraction.ApprovalResult{Success: true, SheetRow: 42},
	})

	result, err := h.mutator.Approve(t.Context(), "rec-1")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if result.SheetRow != 42 {
		t.Fatalf("result: got %+v", result)
	}
	if h.cache.calls != 1 {
		t.Fatalf("invalidations: got %d, want 1", h.cache.calls)
	}
	if len(h.approvals) != 1 || h.approvals[0] != "rec-1" {
		t.Fatalf("OnApproved calls: got %v", h.approvals)
	}
}

func TestMutatorApproveRefused(t *testing.T) {
	h := newMutatorHarness(t, &fakeRemote{
		approveResult: extraction.ApprovalResult{Success: false, Error: "sheets write failed"},
	})

	result, err := h.mutator.Approve(t.Context(), "rec-1")
	var mutErr *MutationError
	if !errors.As(err, &mutErr) {
		t.Fatalf("expected *MutationError, got %v", err)
	}
	if mutErr.Op != "approve" || mutErr.RecordID != "rec-1" || mutErr.Reason != "sheets write failed" {
		t.Fatalf("error fields: got %+v", mutErr)
	}
	if result.Success {
		t.Fatal("refused approval must not report success")
	}

	// The record stayed pending server-side: no invalidation, no
	// callback, exactly one remote call.
	if h.cache.calls != 0 {
		t.Fatalf("invalidations: got %d, want 0", h.cache.calls)
	}
	if len(h.approvals) != 0 {
		t.Fatalf("OnApproved calls: got %v", h.approvals)
	}
	if len(h.remote.approved) != 1 {
		t.Fatalf("remote calls: got %d, want 1 (no auto-retry)", len(h.remote.approved))
	}
}

func TestMutatorApproveTransportError(t *testing.T) {
	cause := errors.New("connection refused")
	h := newMutatorHarness(t, &fakeRemote{approveErr: cause})

	_, err := h.mutator.Approve(t.Context(), "rec-1")
	var mutErr *MutationError
	if !errors.As(err, &mutErr) {
		t.Fatalf("expected *MutationError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("error should wrap the cause, got %v", err)
	}
	if h.cache.calls != 0 || len(h.approvals) != 0 {
		t.Fatal("failed approval must not touch cache or callbacks")
	}
	if len(h.remote.approved) != 1 {
		t.Fatalf("remote calls: got %d, want 1 (no auto-retry)", len(h.remote.approved))
	}
}

func TestMutatorReject(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := newMutatorHarness(t, &fakeRemote{})
		if err := h.mutator.Reject(t.Context(), "rec-2"); err != nil {
			t.Fatalf("Reject: %v", err)
		}
		if h.cache.calls != 1 || len(h.rejections) != 1 || h.rejections[0] != "rec-2" {
			t.Fatalf("wiring: invalidations=%d rejections=%v", h.cache.calls, h.rejections)
		}
	})

	t.Run("failure", func(t *testing.T) {
		h := newMutatorHarness(t, &fakeRemote{rejectErr: errors.New("gone")})
		err := h.mutator.Reject(t.Context(), "rec-2")
		var mutErr *MutationError
		if !errors.As(err, &mutErr) {
			t.Fatalf("expected *MutationError, got %v", err)
		}
		if mutErr.Op != "reject" {
			t.Fatalf("op: got %q, want reject", mutErr.Op)
		}
		if h.cache.calls != 0 || len(h.rejections) != 0 {
			t.Fatal("failed rejection must not touch cache or callbacks")
		}
	})
}

func TestMutatorEdit(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		updated := pendingRecord("rec-3", 0.4)
		updated.ClientName = "ACME Industries"
		h := newMutatorHarness(t, &fakeRemote{editRecord: updated})

		record, err := h.mutator.Edit(t.Context(), "rec-3", map[string]any{"client_name": "ACME Industries"})
		if err != nil {
			t.Fatalf("Edit: %v", err)
		}
		if record.ClientName != "ACME Industries" {
			t.Fatalf("record: got %+v", record)
		}
		if h.cache.calls != 1 {
			t.Fatalf("invalidations: got %d, want 1", h.cache.calls)
		}
	})

	t.Run("failure", func(t *testing.T) {
		h := newMutatorHarness(t, &fakeRemote{editErr: errors.New("validation failed")})
		_, err := h.mutator.Edit(t.Context(), "rec-3", map[string]any{"confidence": 2.0})
		var mutErr *MutationError
		if !errors.As(err, &mutErr) {
			t.Fatalf("expected *MutationError, got %v", err)
		}
		if h.cache.calls != 0 {
			t.Fatal("failed edit must not invalidate")
		}
	})
}
