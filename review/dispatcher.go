// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package review

import (
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/docsift/docsift/extraction"
)

// Dispatcher decodes inbound push frames and delivers queue events to
// subscribers synchronously, in arrival order. A frame that fails to
// decode is logged and dropped; one bad frame never affects the
// connection.
//
// Wire Dispatch as the Connection's HandleFrame. Subscribers run on
// the connection's read goroutine and should hand off anything slow.
type Dispatcher struct {
	logger *slog.Logger

	mu          sync.Mutex
	subscribers map[int]func(extraction.Event)
	nextID      int
}

// NewDispatcher builds a Dispatcher. A nil logger discards.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{
		logger:      logger,
		subscribers: make(map[int]func(extraction.Event)),
	}
}

// Subscribe registers a handler for queue events and returns its
// remove function. Handlers never see pong frames; those are
// dispatch-terminal.
func (d *Dispatcher) Subscribe(handler func(extraction.Event)) (remove func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++
	d.subscribers[id] = handler

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subscribers, id)
	}
}

// Dispatch decodes one frame and routes it. Malformed frames and
// unknown discriminants are dropped with a log line.
func (d *Dispatcher) Dispatch(data []byte) {
	event, err := extraction.ParseFrame(data)
	if err != nil {
		var unknown *extraction.UnknownFrameError
		if errors.As(err, &unknown) {
			d.logger.Warn("dropping frame with unknown type", "type", unknown.Type)
		} else {
			d.logger.Warn("dropping malformed frame", "error", err)
		}
		return
	}

	switch event.(type) {
	case extraction.Pong:
		// Liveness proof for the decode path; nothing downstream.
		d.logger.Debug("pong received")
		return
	case extraction.RecordAdded, extraction.RecordRemoved, extraction.RecordUpdated:
	default:
		// A frame the codec knows but a client should never see,
		// such as a ping echoed back. Ignored, not rejected.
		d.logger.Warn("dropping unexpected frame", "event", event)
		return
	}

	for _, handler := range d.snapshotSubscribers() {
		handler(event)
	}
}

// snapshotSubscribers copies the handler list in a stable order so
// delivery does not hold the lock and subscribers can unsubscribe
// from within a handler.
func (d *Dispatcher) snapshotSubscribers() []func(extraction.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ids := make([]int, 0, len(d.subscribers))
	for id := range d.subscribers {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	handlers := make([]func(extraction.Event), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, d.subscribers[id])
	}
	return handlers
}
