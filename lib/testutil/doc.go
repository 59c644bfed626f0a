// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Docsift packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] wrap the
// select-with-timeout safety valve so individual tests never call
// time.After themselves. They are the only place in the test suite
// where real wall-clock timeouts appear; everything else drives time
// through clock.Fake.
//
// [UniqueID] produces monotonically increasing identifiers for tests
// that need distinguishable record or request IDs without reaching
// for time.Now().
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
