// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/jsonc"

	"github.com/docsift/docsift/extraction"
	"github.com/docsift/docsift/lib/clock"
)

// Ingester scans the inbox directory for extraction result files and
// queues the ones it has not seen before. One file holds one record
// as JSON (// comments and trailing commas allowed); the extractor
// drops files there, Docsift picks them up on the next scan.
//
// Files are recognized by content hash, so re-scanning the same inbox
// is idempotent and renaming a file does not duplicate its record.
type Ingester struct {
	store    *Store
	inboxDir string
	clock    clock.Clock
	logger   *slog.Logger
}

// IngesterConfig holds the parameters for creating an Ingester.
type IngesterConfig struct {
	// Store receives ingested records. Required.
	Store *Store

	// InboxDir is the directory scanned for record files. Required.
	// A missing directory is not an error; scans of it find nothing.
	InboxDir string

	// Clock stamps records that arrive without an extraction
	// timestamp.
	Clock clock.Clock

	// Logger is used for structured logging. If nil, logs are
	// discarded.
	Logger *slog.Logger
}

// NewIngester creates an Ingester.
func NewIngester(cfg IngesterConfig) (*Ingester, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("queue: ingester requires a Store")
	}
	if cfg.InboxDir == "" {
		return nil, fmt.Errorf("queue: ingester requires an InboxDir")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Ingester{
		store:    cfg.Store,
		inboxDir: cfg.InboxDir,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
	}, nil
}

// Scan reads the inbox once. Every new record file is validated,
// given an id if it lacks one, and inserted pending; its source
// document is stored alongside when the file names one. Files seen on
// an earlier scan are skipped silently. A file that fails to parse or
// validate is counted and reported in the result, and the scan moves
// on.
//
// Returns the scan summary and the records added by this scan, in the
// order they were queued.
func (ing *Ingester) Scan(ctx context.Context) (extraction.ScanResult, []extraction.Record, error) {
	var result extraction.ScanResult

	entries, err := os.ReadDir(ing.inboxDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			ing.logger.Info("inbox directory does not exist, nothing to scan",
				"inbox", ing.inboxDir,
			)
			return result, nil, nil
		}
		return result, nil, fmt.Errorf("queue: reading inbox %s: %w", ing.inboxDir, err)
	}

	var added []extraction.Record

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch filepath.Ext(name) {
		case ".json", ".jsonc":
		default:
			continue
		}

		if err := ctx.Err(); err != nil {
			return result, added, fmt.Errorf("queue: scan interrupted: %w", err)
		}

		path := filepath.Join(ing.inboxDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}

		hash := HashContent(data)
		seen, err := ing.store.SeenContent(ctx, hash)
		if err != nil {
			return result, added, err
		}
		if seen {
			ing.logger.Debug("skipping already-ingested file",
				"file", name,
				"hash", hash,
			)
			continue
		}

		record, err := ing.parseRecordFile(data)
		if err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
			ing.logger.Warn("record file rejected",
				"file", name,
				"error", err,
			)
			continue
		}

		if err := ing.store.InsertRecord(ctx, record, hash); err != nil {
			if errors.Is(err, ErrDuplicateRecord) {
				// Lost a race with a concurrent scan; the record
				// is queued either way.
				result.ProcessedCount++
				continue
			}
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}

		ing.storeSourceDocument(ctx, record)

		result.ProcessedCount++
		result.NewItemsCount++
		added = append(added, *record)

		ing.logger.Info("record ingested",
			"file", name,
			"record_id", record.ID,
			"type", record.Type,
			"confidence", record.Confidence,
			"warnings", len(record.Warnings),
		)
	}

	ing.logger.Info("inbox scan complete",
		"processed", result.ProcessedCount,
		"new_items", result.NewItemsCount,
		"failed", result.FailedCount,
	)

	return result, added, nil
}

// parseRecordFile decodes one inbox file into a pending record. The
// file may set its own id and extraction timestamp; missing ones are
// filled in. Status is always forced to pending — inbox files do not
// get to pre-approve themselves.
func (ing *Ingester) parseRecordFile(data []byte) (*extraction.Record, error) {
	// Strip comments and trailing commas before parsing as
	// standard JSON.
	stripped := jsonc.ToJSON(data)

	var record extraction.Record
	if err := json.Unmarshal(stripped, &record); err != nil {
		return nil, fmt.Errorf("parsing record: %w", err)
	}

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.Status = extraction.StatusPending
	if record.ExtractedAt.IsZero() {
		record.ExtractedAt = ing.clock.Now()
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}
	return &record, nil
}

// storeSourceDocument resolves the record's source_file reference
// against the inbox directory and stores its content. Best-effort: a
// record whose source is missing stays queued, and the source
// endpoint reports it not found.
func (ing *Ingester) storeSourceDocument(ctx context.Context, record *extraction.Record) {
	if record.SourceFile == "" {
		return
	}
	// Source references must stay inside the inbox directory.
	// Absolute paths and ".." escapes are refused, not resolved.
	if !filepath.IsLocal(record.SourceFile) {
		ing.logger.Warn("source file reference escapes the inbox, not storing",
			"record_id", record.ID,
			"source_file", record.SourceFile,
		)
		return
	}

	path := filepath.Join(ing.inboxDir, record.SourceFile)
	content, err := os.ReadFile(path)
	if err != nil {
		ing.logger.Warn("source file unreadable, record queued without document",
			"record_id", record.ID,
			"source_file", record.SourceFile,
			"error", err,
		)
		return
	}

	contentType := sourceContentType(path)
	if err := ing.store.PutDocument(ctx, record.ID, content, contentType, filepath.Base(path)); err != nil {
		ing.logger.Warn("storing source document failed",
			"record_id", record.ID,
			"source_file", record.SourceFile,
			"error", err,
		)
	}
}

// sourceContentType maps a source file's extension to the content
// type reported by the source endpoint.
func sourceContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return "text/html"
	case ".json", ".jsonc":
		return "application/json"
	case ".eml":
		return "message/rfc822"
	default:
		return "text/plain"
	}
}
