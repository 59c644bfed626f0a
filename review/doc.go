// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

// Package review is the client-side sync layer between a reviewer's
// session and the Docsift queue service. It keeps a local mirror of
// the pending queue current over a push channel, orders records for
// review, tracks per-batch approve/reject counters, and carries the
// reviewer's decisions back to the service.
//
// # Components
//
// [Connection] owns the single push channel per process: dialing,
// heartbeats, and bounded-backoff reconnection. [Dispatcher] decodes
// inbound frames and fans them out to subscribers in arrival order.
// [QueueCache] treats events purely as invalidation signals: any
// queue event marks the snapshot stale and triggers one refetch, and
// the snapshot is only ever replaced wholesale. [Project] is the pure
// ordering function (warnings first, then ascending confidence).
// [Stats] persists the session's approve/reject counters and resets
// them at queue-emptiness boundaries. [Mutator] performs approve,
// reject, and edit with no optimistic local mutation. [Client] is the
// HTTP API client the cache and mutator call through.
//
// [Session] wires all of the above together for callers that want the
// whole layer with one constructor:
//
//	session, err := review.NewSession(review.SessionConfig{
//	    APIURL:    "http://localhost:8100",
//	    PushURL:   "ws://localhost:8100/api/ws",
//	    StatePath: statePath,
//	    Logger:    logger,
//	})
//	if err != nil {
//	    return err
//	}
//	session.Start()
//	defer session.Stop("session ended")
//
// # State model
//
// The queue snapshot is shared, read-many, written only by the
// refetch path. No component applies event payloads to it directly;
// events do not carry enough information to reconstruct server-side
// ordering and validation state, so the refetch is the single source
// of truth. Two events arriving before a refetch resolves collapse
// into that one refetch.
package review
