// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import (
	"errors"
	"testing"
)

func TestParseFrameVariants(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Event
	}{
		{
			name: "record added with hint data",
			raw:  `{"type":"record_added","record_id":"rec-7","data":{"type":"INVOICE","confidence":0.4}}`,
			want: RecordAdded{RecordID: "rec-7", Data: map[string]any{"type": "INVOICE", "confidence": 0.4}},
		},
		{
			name: "record removed",
			raw:  `{"type":"record_removed","record_id":"rec-7"}`,
			want: RecordRemoved{RecordID: "rec-7"},
		},
		{
			name: "record updated",
			raw:  `{"type":"record_updated","record_id":"rec-7","data":{"updated_fields":["email"]}}`,
			want: RecordUpdated{RecordID: "rec-7", Data: map[string]any{"updated_fields": []any{"email"}}},
		},
		{
			name: "pong",
			raw:  `{"type":"pong"}`,
			want: Pong{},
		},
		{
			name: "ping",
			raw:  `{"type":"ping"}`,
			want: Ping{},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParseFrame([]byte(test.raw))
			if err != nil {
				t.Fatalf("ParseFrame: %v", err)
			}
			switch want := test.want.(type) {
			case RecordAdded:
				added, ok := got.(RecordAdded)
				if !ok || added.RecordID != want.RecordID {
					t.Fatalf("got %#v, want %#v", got, want)
				}
				if len(want.Data) > 0 && len(added.Data) != len(want.Data) {
					t.Fatalf("data = %v, want %v", added.Data, want.Data)
				}
			case RecordRemoved:
				removed, ok := got.(RecordRemoved)
				if !ok || removed.RecordID != want.RecordID {
					t.Fatalf("got %#v, want %#v", got, want)
				}
			case RecordUpdated:
				updated, ok := got.(RecordUpdated)
				if !ok || updated.RecordID != want.RecordID {
					t.Fatalf("got %#v, want %#v", got, want)
				}
			case Pong:
				if _, ok := got.(Pong); !ok {
					t.Fatalf("got %#v, want Pong", got)
				}
			case Ping:
				if _, ok := got.(Ping); !ok {
					t.Fatalf("got %#v, want Ping", got)
				}
			}
		})
	}
}

func TestParseFrameUnknownType(t *testing.T) {
	_, err := ParseFrame([]byte(`{"type":"queue_truncated","record_id":"rec-1"}`))
	var unknown *UnknownFrameError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want *UnknownFrameError", err)
	}
	if unknown.Type != "queue_truncated" {
		t.Errorf("unknown.Type = %q, want queue_truncated", unknown.Type)
	}
}

func TestParseFrameMalformed(t *testing.T) {
	for _, raw := range []string{
		`{"type":`,
		`[]`,
		`"record_added"`,
	} {
		if _, err := ParseFrame([]byte(raw)); err == nil {
			t.Errorf("ParseFrame(%q) accepted malformed input", raw)
		}
	}
}

func TestParseFrameMissingRecordID(t *testing.T) {
	for _, frameType := range []string{"record_added", "record_removed", "record_updated"} {
		raw := `{"type":"` + frameType + `"}`
		_, err := ParseFrame([]byte(raw))
		if err == nil {
			t.Errorf("ParseFrame accepted %s without record_id", frameType)
			continue
		}
		var unknown *UnknownFrameError
		if errors.As(err, &unknown) {
			t.Errorf("missing record_id misclassified as unknown type for %s", frameType)
		}
	}
}

func TestEncodeParseRoundtrip(t *testing.T) {
	events := []Event{
		RecordAdded{RecordID: "rec-3", Data: map[string]any{"confidence": 0.9}},
		RecordRemoved{RecordID: "rec-3"},
		RecordUpdated{RecordID: "rec-3", Data: map[string]any{"updated_fields": []any{"phone"}}},
		Pong{},
		Ping{},
	}

	for _, event := range events {
		data, err := EncodeFrame(event)
		if err != nil {
			t.Fatalf("EncodeFrame(%#v): %v", event, err)
		}
		back, err := ParseFrame(data)
		if err != nil {
			t.Fatalf("ParseFrame of encoded %#v: %v", event, err)
		}
		if gotType, wantType := typeName(back), typeName(event); gotType != wantType {
			t.Errorf("roundtrip of %s produced %s", wantType, gotType)
		}
	}
}

func typeName(event Event) string {
	switch event.(type) {
	case RecordAdded:
		return "RecordAdded"
	case RecordRemoved:
		return "RecordRemoved"
	case RecordUpdated:
		return "RecordUpdated"
	case Pong:
		return "Pong"
	case Ping:
		return "Ping"
	}
	return "unknown"
}
