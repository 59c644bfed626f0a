// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package review

import "fmt"

// ConnectionError wraps a transport failure or abnormal closure of
// the push channel. It reaches callers through the connection's state
// callback; Terminal marks the retry budget as exhausted, after which
// only an explicit Connect starts a new cycle.
type ConnectionError struct {
	// Err is the underlying transport error.
	Err error

	// Attempts is the number of reconnects already made this cycle.
	Attempts int

	// Terminal is true once no further reconnect will be scheduled.
	Terminal bool
}

func (e *ConnectionError) Error() string {
	if e.Terminal {
		return fmt.Sprintf("review: connection lost after %d reconnect attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("review: connection lost (reconnect attempts so far: %d): %v", e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// MutationError reports a failed approve, reject, or edit. The queue
// snapshot and session counters are untouched when one is returned;
// mutations are never retried automatically.
type MutationError struct {
	// Op is "approve", "reject", or "edit".
	Op string

	// RecordID is the record the operation targeted.
	RecordID string

	// Reason carries the server-reported failure text when the
	// request itself succeeded but the server declined it.
	Reason string

	// Err is the transport or decode error, nil when Reason is set.
	Err error
}

func (e *MutationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("review: %s %s: %s", e.Op, e.RecordID, e.Reason)
	}
	return fmt.Sprintf("review: %s %s: %v", e.Op, e.RecordID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }
