// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

// Package extraction defines the record model shared by the queue
// service and the review client: machine-extracted records awaiting
// human review, the validation warnings attached to them, and the
// push events that announce queue changes.
//
// Records cross two boundaries with the same json tags: the HTTP API
// and websocket frames use encoding/json, stored payload blobs use
// lib/codec (CBOR), which reads json tags as fallback.
package extraction

import (
	"fmt"
	"time"
)

// RecordType classifies where a record was extracted from.
type RecordType string

const (
	// TypeForm is a submitted contact or service request form.
	TypeForm RecordType = "FORM"

	// TypeEmail is an inbound email message.
	TypeEmail RecordType = "EMAIL"

	// TypeInvoice is an invoice document.
	TypeInvoice RecordType = "INVOICE"
)

// Valid reports whether t is one of the known record types.
func (t RecordType) Valid() bool {
	switch t {
	case TypeForm, TypeEmail, TypeInvoice:
		return true
	}
	return false
}

// Status is a record's position in the review workflow.
type Status string

const (
	// StatusPending means the record awaits a reviewer decision.
	StatusPending Status = "pending"

	// StatusApproved means a reviewer accepted the record.
	StatusApproved Status = "approved"

	// StatusRejected means a reviewer discarded the record.
	StatusRejected Status = "rejected"
)

// Severity grades a validation warning.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Warning is a validation concern attached to a record. Any warning,
// regardless of severity, forces the record to the front of the
// review order.
type Warning struct {
	// Field names the record field the warning is about.
	Field string `json:"field"`

	// Message describes the concern for the reviewer.
	Message string `json:"message"`

	// Severity is "warning" or "error".
	Severity Severity `json:"severity"`
}

// Record is one machine-extracted item. The server owns it; review
// clients hold read-only cached copies and change it only through the
// approve, reject, and edit operations.
//
// Which optional fields are populated depends on Type: form and email
// records carry the client fields, invoice records the invoice
// fields. Extraction is best-effort, so any of them may be empty.
type Record struct {
	ID          string     `json:"id"`
	Type        RecordType `json:"type"`
	SourceFile  string     `json:"source_file"`
	ExtractedAt time.Time  `json:"extraction_timestamp"`
	Status      Status     `json:"status"`

	// Confidence is the extractor's overall certainty, in [0, 1].
	// Low-confidence records are reviewed first.
	Confidence float64 `json:"confidence"`

	// Warnings lists validation concerns in the order the extractor
	// raised them.
	Warnings []Warning `json:"warnings,omitempty"`

	// Date is the document's own date as written in the source, not
	// a processing timestamp.
	Date string `json:"date,omitempty"`

	// Client fields, for FORM and EMAIL records.
	ClientName      string `json:"client_name,omitempty"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Company         string `json:"company,omitempty"`
	ServiceInterest string `json:"service_interest,omitempty"`
	Priority        string `json:"priority,omitempty"`
	Message         string `json:"message,omitempty"`

	// Invoice fields, for INVOICE records.
	InvoiceNumber string  `json:"invoice_number,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	VAT           float64 `json:"vat,omitempty"`
	TotalAmount   float64 `json:"total_amount,omitempty"`

	// FieldConfidences holds per-field certainty scores when the
	// extractor provides them.
	FieldConfidences map[string]float64 `json:"field_confidences,omitempty"`

	// RawExtraction preserves the extractor's unmapped output for
	// debugging.
	RawExtraction map[string]any `json:"raw_extraction,omitempty"`
}

// HasWarnings reports whether the record carries any validation
// warnings.
func (r *Record) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Validate checks the invariants every stored record must satisfy.
// Ingest rejects records that fail it.
func (r *Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("extraction: record has no id")
	}
	if !r.Type.Valid() {
		return fmt.Errorf("extraction: record %s has unknown type %q", r.ID, r.Type)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("extraction: record %s confidence %v outside [0, 1]", r.ID, r.Confidence)
	}
	switch r.Status {
	case StatusPending, StatusApproved, StatusRejected:
	default:
		return fmt.Errorf("extraction: record %s has unknown status %q", r.ID, r.Status)
	}
	return nil
}
