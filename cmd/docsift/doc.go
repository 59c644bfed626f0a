// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

// Docsift is the command-line client for the Docsift review queue.
// It lists and mutates records awaiting review (list, approve,
// reject, edit, source), manages the extraction inbox (scan, clear),
// follows the queue live over the push channel (follow), and tracks
// per-reviewer session counters (stats).
package main
