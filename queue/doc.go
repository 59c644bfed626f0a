// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

// Package queue implements the Docsift review queue service: the
// server side of the review workflow. It watches an inbox directory
// for machine-extracted record files, stores them in SQLite alongside
// their source documents, serves the review HTTP API, and pushes
// queue-change events to connected review clients over websockets.
//
// # Components
//
// [Store] is the SQLite layer: records, a content-hash ingest ledger,
// and compressed source documents. [Ingester] sweeps the inbox,
// parses record files, and queues whatever the ledger has not seen.
// [Hub] fans queue events out to websocket clients and answers their
// heartbeats. [Service] ties the three together and owns the workflow
// rules: which mutations are legal in which record state, and what
// gets broadcast when. [NewHandler] builds the HTTP routing table,
// optionally gated by a bearer token.
//
// # Ingest ledger
//
// Every ingested file is remembered by content hash, separately from
// the record it produced. Clearing the pending queue deletes the
// records but keeps the hashes, so cleared files are not re-queued by
// later scans. Re-ingesting a byte-identical file is always a no-op.
package queue
