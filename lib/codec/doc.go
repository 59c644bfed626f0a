// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Docsift's standard CBOR encoding configuration.
//
// Docsift uses two serialization formats with a clear boundary:
//
//   - JSON for external interfaces: the HTTP API, websocket event
//     frames, CLI output, and the reviewer's local state file.
//   - CBOR for stored record payloads in the queue database, where
//     byte-stable encoding keeps payload blobs comparable across
//     writes.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2):
// sorted map keys, smallest integer encoding, no indefinite-length
// items. Same logical data always produces identical bytes.
//
//	data, err := codec.Marshal(record)
//	err = codec.Unmarshal(data, &record)
//
// # Struct Tag Rules
//
// Types that cross both boundaries (extraction.Record appears in API
// responses and in payload blobs) carry `json` tags only:
// fxamacker/cbor reads `json` tags as fallback when `cbor` tags are
// absent, so one tag controls field naming and omitempty for both
// formats. Types that are only ever CBOR carry `cbor` tags. Never
// both on the same field.
package codec
