// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

// samplePayload mirrors the shape of stored record payloads: json
// tags only, since the same type serves the HTTP API.
type samplePayload struct {
	ID          string             `json:"id"`
	ClientName  string             `json:"client_name,omitempty"`
	Confidence  float64            `json:"confidence"`
	Confidences map[string]float64 `json:"field_confidences,omitempty"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := samplePayload{
		ID:         "rec-0017",
		ClientName: "Meridian Logistics",
		Confidence: 0.82,
		Confidences: map[string]float64{
			"client_name": 0.95,
			"email":       0.41,
		},
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Marshal produced empty output")
	}

	var decoded samplePayload
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded.ID != original.ID || decoded.ClientName != original.ClientName {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
	if len(decoded.Confidences) != 2 || decoded.Confidences["email"] != 0.41 {
		t.Errorf("confidence map mismatch: got %v", decoded.Confidences)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	payload := samplePayload{
		ID:         "rec-0002",
		Confidence: 0.5,
		Confidences: map[string]float64{
			"total_amount": 0.7,
			"date":         0.9,
			"vat":          0.3,
		},
	}

	first, err := Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Marshal(payload)
		if err != nil {
			t.Fatalf("Marshal attempt %d: %v", i, err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding not deterministic: attempt %d differs", i)
		}
	}
}

func TestUnmarshalDefaultMapType(t *testing.T) {
	data, err := Marshal(map[string]any{"status": "pending", "nested": map[string]any{"count": 3}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	top, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded top level is %T, want map[string]any", decoded)
	}
	if _, ok := top["nested"].(map[string]any); !ok {
		t.Fatalf("nested value is %T, want map[string]any", top["nested"])
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	data, err := Marshal(map[string]any{
		"id":         "rec-0009",
		"confidence": 0.6,
		"added_in_a_future_version": true,
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded samplePayload
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal with unknown field: %v", err)
	}
	if decoded.ID != "rec-0009" {
		t.Errorf("ID = %q, want rec-0009", decoded.ID)
	}
}
