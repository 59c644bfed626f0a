// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/docsift/docsift/cmd/docsift/cli"
	"github.com/docsift/docsift/extraction"
	"github.com/docsift/docsift/review"
)

// apiClient builds a review API client from the environment.
func apiClient(logger *slog.Logger) (*review.Client, error) {
	return review.NewClient(review.ClientConfig{
		BaseURL: cli.APIURL(),
		Token:   cli.Token(),
		Logger:  logger,
	})
}

// sessionStats opens the persisted session counters. The same file
// backs the live follow session, so one-shot approvals and rejections
// show up there too.
func sessionStats(logger *slog.Logger) *review.Stats {
	return review.NewStats(review.StatsConfig{
		Path:   cli.StatsFilePath(),
		Logger: logger,
	})
}

// reviewMutator wires a one-shot mutator that bumps the session
// counters on success. No cache to invalidate outside of follow.
func reviewMutator(logger *slog.Logger) (*review.Mutator, error) {
	client, err := apiClient(logger)
	if err != nil {
		return nil, err
	}
	stats := sessionStats(logger)
	return review.NewMutator(review.MutatorConfig{
		Remote: client,
		OnApproved: func(string, extraction.ApprovalResult) {
			stats.IncrementApproved()
		},
		OnRejected: func(string) {
			stats.IncrementRejected()
		},
		Logger: logger,
	})
}

// parseFilter maps the --filter flag value to a projection filter.
func parseFilter(value string) (review.Filter, error) {
	switch strings.ToLower(value) {
	case "", "all":
		return review.FilterAll, nil
	case "form":
		return review.FilterType(extraction.TypeForm), nil
	case "email":
		return review.FilterType(extraction.TypeEmail), nil
	case "invoice":
		return review.FilterType(extraction.TypeInvoice), nil
	}
	return "", fmt.Errorf("unknown filter %q (expected all, form, email, or invoice)", value)
}

// recordSubject returns the most identifying field for the record's
// type: the invoice number for invoices, the client name for forms
// and emails, falling back to the source file.
func recordSubject(record extraction.Record) string {
	if record.Type == extraction.TypeInvoice && record.InvoiceNumber != "" {
		return record.InvoiceNumber
	}
	if record.ClientName != "" {
		return record.ClientName
	}
	return record.SourceFile
}

// writeRecordTable renders records as an aligned table, preserving
// the order given (callers pass projected snapshots, so warnings come
// first and confidence ascends within each group).
func writeRecordTable(w io.Writer, records []extraction.Record) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tCONFIDENCE\tWARNINGS\tSUBJECT")
	for _, record := range records {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%d\t%s\n",
			record.ID, record.Type, record.Confidence, len(record.Warnings), recordSubject(record))
	}
	tw.Flush()
}
