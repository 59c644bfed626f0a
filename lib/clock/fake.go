// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// Fake returns a FakeClock frozen at initial. Time moves only through
// Advance. Safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{now: initial}
	c.registered = sync.NewCond(&c.mu)
	return c
}

// FakeClock is a deterministic Clock for tests. Timers, tickers, and
// sleeps register entries that fire when Advance moves the clock past
// their deadline, in deadline order, one at a time.
//
// AfterFunc callbacks run synchronously inside Advance. Calling Sleep
// or Advance from inside a callback deadlocks.
type FakeClock struct {
	mu         sync.Mutex
	now        time.Time
	entries    []*fakeEntry
	registered *sync.Cond
}

// fakeEntry is one pending timer, ticker, or sleep. An entry is
// pending exactly while it sits in the entries slice; Stop and firing
// both remove it.
type fakeEntry struct {
	// when is the next deadline.
	when time.Time

	// ch receives the fire time for After, Sleep, and ticker
	// entries. Nil for AfterFunc entries.
	ch chan time.Time

	// fn is the AfterFunc callback. Nil for channel entries.
	fn func()

	// every is the tick interval for ticker entries, zero otherwise.
	every time.Duration
}

// Now reports the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After returns a channel that receives once the clock advances past
// the deadline. Non-positive d delivers immediately.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.add(&fakeEntry{when: c.now.Add(d), ch: ch})
	return ch
}

// AfterFunc schedules f for d from now. Non-positive d calls f
// synchronously before AfterFunc returns.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{
			stop:  func() bool { return false },
			reset: func(time.Duration) bool { return false },
		}
	}

	c.mu.Lock()
	entry := &fakeEntry{when: c.now.Add(d), fn: f}
	c.add(entry)
	c.mu.Unlock()

	return &Timer{
		stop: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			return c.remove(entry)
		},
		reset: func(d time.Duration) bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			wasPending := c.remove(entry)
			entry.when = c.now.Add(d)
			c.add(entry)
			return wasPending
		},
	}
}

// NewTicker returns a Ticker firing every d. Panics if d is not
// positive.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: ticker interval must be positive")
	}

	c.mu.Lock()
	entry := &fakeEntry{when: c.now.Add(d), ch: make(chan time.Time, 1), every: d}
	c.add(entry)
	c.mu.Unlock()

	return &Ticker{
		C: entry.ch,
		stop: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.remove(entry)
		},
		reset: func(d time.Duration) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.remove(entry)
			entry.every = d
			entry.when = c.now.Add(d)
			c.add(entry)
		},
	}
}

// Sleep blocks until the clock advances past the deadline.
func (c *FakeClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	<-c.After(d)
}

// Advance moves the clock forward by d and fires every entry whose
// deadline falls inside the window, earliest first. The clock reads
// as the post-advance time while entries fire, so timers scheduled
// from inside a callback land after the window and wait for the next
// Advance. Channel sends never block; a full buffer drops the tick.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	target := c.now
	c.mu.Unlock()

	for {
		entry := c.popDue(target)
		if entry == nil {
			return
		}
		if entry.fn != nil {
			entry.fn()
			continue
		}
		select {
		case entry.ch <- target:
		default:
		}
	}
}

// popDue removes and returns the due entry with the earliest
// deadline, or nil when nothing is due at target. Tickers are
// rescheduled instead of removed.
func (c *FakeClock) popDue(target time.Time) *fakeEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	index := -1
	for i, entry := range c.entries {
		if entry.when.After(target) {
			continue
		}
		if index < 0 || entry.when.Before(c.entries[index].when) {
			index = i
		}
	}
	if index < 0 {
		return nil
	}

	entry := c.entries[index]
	if entry.every > 0 {
		entry.when = entry.when.Add(entry.every)
	} else {
		c.entries = append(c.entries[:index], c.entries[index+1:]...)
	}
	return entry
}

// WaitForTimers blocks until at least n entries are pending. Use it
// to let a goroutine register its timer before calling Advance.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.entries) < n {
		c.registered.Wait()
	}
}

// PendingCount reports the number of pending entries.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// add appends an entry and wakes WaitForTimers. Caller holds c.mu.
func (c *FakeClock) add(entry *fakeEntry) {
	c.entries = append(c.entries, entry)
	c.registered.Broadcast()
}

// remove takes entry out of the pending list, reporting whether it
// was there. Caller holds c.mu.
func (c *FakeClock) remove(entry *fakeEntry) bool {
	for i, e := range c.entries {
		if e == entry {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}
