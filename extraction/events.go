// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import (
	"encoding/json"
	"fmt"
)

// Event is one push-channel frame, decoded into its concrete variant.
// Events are invalidation signals: they carry the affected record's ID
// and a small hint payload, never the authoritative record state.
type Event interface {
	queueEvent() // marker method
}

// RecordAdded announces a new record in the pending queue.
type RecordAdded struct {
	RecordID string

	// Data optionally carries hint fields such as the record type
	// and confidence. Display-only; the queue snapshot is refetched
	// regardless.
	Data map[string]any
}

func (RecordAdded) queueEvent() {}

// RecordRemoved announces that a record left the pending queue,
// whether approved, rejected, or cleared.
type RecordRemoved struct {
	RecordID string
}

func (RecordRemoved) queueEvent() {}

// RecordUpdated announces an edit to a pending record.
type RecordUpdated struct {
	RecordID string

	// Data optionally names the updated fields.
	Data map[string]any
}

func (RecordUpdated) queueEvent() {}

// Pong is the server's reply to a heartbeat ping. It proves the
// decode path is alive and is dropped after dispatch.
type Pong struct{}

func (Pong) queueEvent() {}

// Ping is the client heartbeat frame.
type Ping struct{}

func (Ping) queueEvent() {}

// Wire discriminants. The frame type field decides the variant;
// everything else is ignored or optional.
const (
	frameRecordAdded   = "record_added"
	frameRecordRemoved = "record_removed"
	frameRecordUpdated = "record_updated"
	framePong          = "pong"
	framePing          = "ping"
)

// frame is the JSON envelope for every push-channel message in both
// directions.
type frame struct {
	Type     string         `json:"type"`
	RecordID string         `json:"record_id,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// UnknownFrameError reports a frame whose type discriminant is not
// recognized. Receivers log these and drop the frame; an unknown type
// must never tear down the connection.
type UnknownFrameError struct {
	Type string
}

func (e *UnknownFrameError) Error() string {
	return fmt.Sprintf("extraction: unknown frame type %q", e.Type)
}

// ParseFrame decodes one push-channel frame. Record events require a
// record_id; a frame missing one is malformed. Unknown discriminants
// return *UnknownFrameError so callers can drop them without treating
// the channel as broken.
func ParseFrame(data []byte) (Event, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("extraction: malformed frame: %w", err)
	}

	switch f.Type {
	case frameRecordAdded, frameRecordRemoved, frameRecordUpdated:
		if f.RecordID == "" {
			return nil, fmt.Errorf("extraction: %s frame missing record_id", f.Type)
		}
	}

	switch f.Type {
	case frameRecordAdded:
		return RecordAdded{RecordID: f.RecordID, Data: f.Data}, nil
	case frameRecordRemoved:
		return RecordRemoved{RecordID: f.RecordID}, nil
	case frameRecordUpdated:
		return RecordUpdated{RecordID: f.RecordID, Data: f.Data}, nil
	case framePong:
		return Pong{}, nil
	case framePing:
		return Ping{}, nil
	default:
		return nil, &UnknownFrameError{Type: f.Type}
	}
}

// EncodeFrame serializes an event to its wire form.
func EncodeFrame(event Event) ([]byte, error) {
	var f frame
	switch e := event.(type) {
	case RecordAdded:
		f = frame{Type: frameRecordAdded, RecordID: e.RecordID, Data: e.Data}
	case RecordRemoved:
		f = frame{Type: frameRecordRemoved, RecordID: e.RecordID}
	case RecordUpdated:
		f = frame{Type: frameRecordUpdated, RecordID: e.RecordID, Data: e.Data}
	case Pong:
		f = frame{Type: framePong}
	case Ping:
		f = frame{Type: framePing}
	default:
		return nil, fmt.Errorf("extraction: cannot encode event type %T", event)
	}
	return json.Marshal(f)
}
