// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueID returns "prefix-N" with N drawn from a process-wide
// counter. Use it when a test needs record IDs or request IDs that
// stay distinct across subtests without involving the clock.
//
//	recordID := testutil.UniqueID("record") // "record-1", "record-2", ...
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}
