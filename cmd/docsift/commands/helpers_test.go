// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"strings"
	"testing"

	"github.com/docsift/docsift/extraction"
	"github.com/docsift/docsift/review"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		input string
		want  review.Filter
	}{
		{"all", review.FilterAll},
		{"", review.FilterAll},
		{"form", review.FilterType(extraction.TypeForm)},
		{"FORM", review.FilterType(extraction.TypeForm)},
		{"email", review.FilterType(extraction.TypeEmail)},
		{"Invoice", review.FilterType(extraction.TypeInvoice)},
	}

	for _, test := range tests {
		got, err := parseFilter(test.input)
		if err != nil {
			t.Errorf("parseFilter(%q) error: %v", test.input, err)
			continue
		}
		if got != test.want {
			t.Errorf("parseFilter(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestParseFilterRejectsUnknown(t *testing.T) {
	if _, err := parseFilter("receipt"); err == nil {
		t.Error("parseFilter accepted an unknown type")
	}
}

func TestParseSetFlags(t *testing.T) {
	updates, err := parseSetFlags([]string{
		"client_name=Jane Doe",
		"total_amount=1210.5",
		"confirmed=true",
		`priority="high"`,
	})
	if err != nil {
		t.Fatalf("parseSetFlags: %v", err)
	}

	if got := updates["client_name"]; got != "Jane Doe" {
		t.Errorf("client_name = %v (%T), want string", got, got)
	}
	if got := updates["total_amount"]; got != 1210.5 {
		t.Errorf("total_amount = %v (%T), want 1210.5", got, got)
	}
	if got := updates["confirmed"]; got != true {
		t.Errorf("confirmed = %v (%T), want true", got, got)
	}
	// Quoted values strip to plain strings via the JSON parse.
	if got := updates["priority"]; got != "high" {
		t.Errorf("priority = %v (%T), want %q", got, got, "high")
	}
}

func TestParseSetFlagsRejectsMalformed(t *testing.T) {
	for _, pair := range []string{"no-equals", "=value"} {
		if _, err := parseSetFlags([]string{pair}); err == nil {
			t.Errorf("parseSetFlags(%q) succeeded, want error", pair)
		}
	}
}

func TestRecordSubject(t *testing.T) {
	invoice := extraction.Record{Type: extraction.TypeInvoice, InvoiceNumber: "INV-2026-001", SourceFile: "inv.pdf.json"}
	if got := recordSubject(invoice); got != "INV-2026-001" {
		t.Errorf("invoice subject = %q", got)
	}

	form := extraction.Record{Type: extraction.TypeForm, ClientName: "Jane Doe", SourceFile: "form.json"}
	if got := recordSubject(form); got != "Jane Doe" {
		t.Errorf("form subject = %q", got)
	}

	bare := extraction.Record{Type: extraction.TypeEmail, SourceFile: "msg-42.json"}
	if got := recordSubject(bare); got != "msg-42.json" {
		t.Errorf("bare subject = %q, want the source file", got)
	}
}

func TestWriteRecordTablePreservesOrder(t *testing.T) {
	records := []extraction.Record{
		{ID: "first", Type: extraction.TypeForm, Confidence: 0.2, ClientName: "A"},
		{ID: "second", Type: extraction.TypeInvoice, Confidence: 0.9, InvoiceNumber: "INV-7"},
	}

	var out strings.Builder
	writeRecordTable(&out, records)

	rendered := out.String()
	if !strings.HasPrefix(rendered, "ID") {
		t.Errorf("missing header: %q", rendered)
	}
	firstAt := strings.Index(rendered, "first")
	secondAt := strings.Index(rendered, "second")
	if firstAt < 0 || secondAt < 0 || firstAt > secondAt {
		t.Errorf("rows out of order:\n%s", rendered)
	}
	if !strings.Contains(rendered, "INV-7") {
		t.Errorf("invoice subject missing:\n%s", rendered)
	}
}

func TestFormatSnapshot(t *testing.T) {
	stats := review.NewStats(review.StatsConfig{})
	stats.IncrementApproved()
	stats.IncrementApproved()
	stats.IncrementRejected()

	records := []extraction.Record{
		{ID: "rec-1", Type: extraction.TypeForm, Confidence: 0.35, ClientName: "Jane Doe",
			Warnings: []extraction.Warning{{Field: "email", Message: "missing", Severity: extraction.SeverityWarning}}},
		{ID: "rec-2", Type: extraction.TypeInvoice, Confidence: 0.80, InvoiceNumber: "INV-9"},
	}

	block := formatSnapshot(records, stats)
	if !strings.Contains(block, "queue: 2 pending (session: 2 approved, 1 rejected)") {
		t.Errorf("summary line wrong:\n%s", block)
	}
	if !strings.Contains(block, "rec-1") || !strings.Contains(block, "rec-2") {
		t.Errorf("records missing:\n%s", block)
	}
	if lineCount := strings.Count(block, "\n"); lineCount != 2 {
		t.Errorf("expected 2 record lines, got %d:\n%s", lineCount, block)
	}
}
