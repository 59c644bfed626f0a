// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the time package behind an injectable
// interface so that timer-driven code can be tested deterministically.
//
// Code that would otherwise call time.Now, time.After, time.AfterFunc,
// time.NewTicker, or time.Sleep takes a Clock instead. Production
// wiring passes Real(); tests pass Fake(), which only moves when the
// test calls Advance.
//
// # Usage
//
// Give timer-driven types a Clock field:
//
//	type Reconnector struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// Production:
//
//	r := &Reconnector{clock: clock.Real()}
//
// Tests:
//
//	fake := clock.Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
//	r := &Reconnector{clock: fake}
//	// ... start the code under test ...
//	fake.WaitForTimers(1)
//	fake.Advance(5 * time.Second)
//
// # Synchronizing with goroutines
//
// A goroutine that registers a timer races against the test goroutine
// calling Advance. WaitForTimers blocks until the requested number of
// timers are registered, removing the need for time.Sleep in tests.
package clock
