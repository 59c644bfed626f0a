// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

// Docsift-queue-service is the review queue daemon. It watches an
// inbox directory for machine-extracted record files, stores them in
// SQLite, serves the review HTTP API, and pushes queue-change events
// to connected review clients over websockets.
//
// Usage:
//
//	docsift-queue-service --config /etc/docsift/queue.yaml
//
// The config path can also come from the DOCSIFT_QUEUE_CONFIG
// environment variable. See queue.Config for the file format.
package main
