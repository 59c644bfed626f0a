// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the set of time operations Docsift code is allowed to use
// directly. Inject Real() in production and Fake() in tests.
type Clock interface {
	// Now reports the current time.
	Now() time.Time

	// After returns a channel that receives the current time once d
	// has elapsed. A non-positive d delivers immediately.
	After(d time.Duration) <-chan time.Time

	// AfterFunc arranges for f to be called once d has elapsed and
	// returns a Timer whose Stop cancels the pending call. The
	// Timer's C field is nil, as with time.AfterFunc. A non-positive
	// d calls f right away: in a new goroutine for the real clock,
	// synchronously for the fake one.
	AfterFunc(d time.Duration, f func()) *Timer

	// NewTicker returns a Ticker delivering on C every d. Panics if
	// d is not positive.
	NewTicker(d time.Duration) *Ticker

	// Sleep blocks the calling goroutine for at least d.
	Sleep(d time.Duration)
}

// Timer is a single pending event. Timers returned by AfterFunc have
// a nil C.
type Timer struct {
	// C delivers the fire time. Nil for AfterFunc timers.
	C <-chan time.Time

	stop  func() bool
	reset func(time.Duration) bool
}

// Stop cancels the timer. It reports true if the call prevented the
// timer from firing and false if the timer already fired or was
// already stopped.
func (t *Timer) Stop() bool { return t.stop() }

// Reset re-arms the timer to fire after d and reports whether the
// timer was still pending when Reset was called.
func (t *Timer) Reset(d time.Duration) bool { return t.reset(d) }

// Ticker delivers periodic events on C. C is buffered with capacity
// one; if the reader falls behind, ticks are dropped, matching
// time.Ticker.
type Ticker struct {
	// C delivers ticks.
	C <-chan time.Time

	stop  func()
	reset func(time.Duration)
}

// Stop ends the tick stream. It does not close C.
func (t *Ticker) Stop() { t.stop() }

// Reset changes the interval. The next tick arrives a full new
// interval after the call.
func (t *Ticker) Reset(d time.Duration) { t.reset(d) }
