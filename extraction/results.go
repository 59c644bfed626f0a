// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

// ApprovalResult reports the outcome of approving a record. A failed
// downstream export comes back with Success false and Error set; the
// record stays pending in that case.
type ApprovalResult struct {
	Success  bool   `json:"success"`
	SheetRow int    `json:"sheet_row,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ScanResult summarizes one pass over the extraction inbox.
type ScanResult struct {
	ProcessedCount int      `json:"processed_count"`
	NewItemsCount  int      `json:"new_items_count"`
	FailedCount    int      `json:"failed_count"`
	Errors         []string `json:"errors,omitempty"`
}

// SourceDocument is the original file a record was extracted from,
// returned verbatim for side-by-side review.
type SourceDocument struct {
	Content  string `json:"content"`
	Type     string `json:"type"`
	Filename string `json:"filename"`
}
