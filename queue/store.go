// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/docsift/docsift/extraction"
	"github.com/docsift/docsift/lib/clock"
	"github.com/docsift/docsift/lib/codec"
	"github.com/docsift/docsift/lib/sqlitepool"
)

// Store manages SQLite storage for the review queue: extraction
// records with their workflow status, the ingest ledger that
// deduplicates inbox rescans, and the source documents records were
// extracted from.
//
// Records are stored as CBOR payload blobs with the scalar columns
// the queries need (status, confidence, timestamps) mirrored
// alongside. The payload is authoritative; SetStatus and UpdateRecord
// rewrite both.
//
// The ingest ledger (ingested table) outlives the records it ingested:
// clearing the pending queue deletes records but keeps their content
// hashes, so cleared files do not re-enter the queue on the next scan.
type Store struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

// StoreConfig holds the parameters for creating a queue store.
type StoreConfig struct {
	// Path is the filesystem path to the SQLite database file. The
	// parent directory must exist.
	Path string

	// PoolSize is the number of connections in the pool. Defaults
	// to 4 if zero or negative.
	PoolSize int

	// Clock provides record timestamps.
	Clock clock.Clock

	// Logger receives operational messages.
	Logger *slog.Logger
}

// Sentinel errors callers branch on. Handlers map ErrRecordNotFound
// and ErrDocumentNotFound to 404; ingest treats ErrDuplicateRecord as
// an already-processed file, not a failure.
var (
	ErrRecordNotFound   = errors.New("queue store: record not found")
	ErrDuplicateRecord  = errors.New("queue store: duplicate record content")
	ErrDocumentNotFound = errors.New("queue store: source document not found")
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id          TEXT PRIMARY KEY,
	record_type TEXT NOT NULL,
	status      TEXT NOT NULL,
	confidence  REAL NOT NULL,
	added_at    INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL,
	payload     BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_status ON records(status, added_at);

CREATE TABLE IF NOT EXISTS ingested (
	content_hash BLOB PRIMARY KEY,
	record_id    TEXT NOT NULL,
	ingested_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	record_id         TEXT PRIMARY KEY,
	content_type      TEXT NOT NULL,
	filename          TEXT NOT NULL,
	compression       INTEGER NOT NULL,
	uncompressed_size INTEGER NOT NULL,
	content           BLOB NOT NULL
);
`

// OpenStore creates a queue store backed by SQLite. The database file
// is created if it does not exist; the schema is applied on every
// connection open, so upgrades that only add tables or indexes need
// no migration step.
func OpenStore(cfg StoreConfig) (*Store, error) {
	if cfg.Clock == nil {
		return nil, fmt.Errorf("queue store: Clock is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("queue store: Logger is required")
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: poolSize,
		Logger:   cfg.Logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("queue store: %w", err)
	}

	return &Store{
		pool:   pool,
		clock:  cfg.Clock,
		logger: cfg.Logger,
	}, nil
}

// Close closes the underlying connection pool. Blocks until all
// borrowed connections are returned.
func (s *Store) Close() error {
	return s.pool.Close()
}

// InsertRecord stores a newly ingested record together with the hash
// of the file it came from. A hash seen before returns
// ErrDuplicateRecord and changes nothing.
func (s *Store) InsertRecord(ctx context.Context, record *extraction.Record, hash ContentHash) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("queue store: insert: %w", err)
	}

	payload, err := codec.Marshal(record)
	if err != nil {
		return fmt.Errorf("queue store: encode record %s: %w", record.ID, err)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("queue store: insert record: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("queue store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	var seen bool
	err = sqlitex.Execute(conn,
		"SELECT 1 FROM ingested WHERE content_hash = ?",
		&sqlitex.ExecOptions{
			Args: []any{hash[:]},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				seen = true
				return nil
			},
		})
	if err != nil {
		return fmt.Errorf("queue store: check content hash: %w", err)
	}
	if seen {
		return ErrDuplicateRecord
	}

	now := s.clock.Now().UnixNano()

	err = sqlitex.Execute(conn,
		`INSERT INTO records
			(id, record_type, status, confidence, added_at, updated_at, payload)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				record.ID,
				string(record.Type),
				string(record.Status),
				record.Confidence,
				now,
				now,
				payload,
			},
		})
	if err != nil {
		return fmt.Errorf("queue store: insert record %s: %w", record.ID, err)
	}

	err = sqlitex.Execute(conn,
		"INSERT INTO ingested (content_hash, record_id, ingested_at) VALUES (?, ?, ?)",
		&sqlitex.ExecOptions{
			Args: []any{hash[:], record.ID, now},
		})
	if err != nil {
		return fmt.Errorf("queue store: record ingest ledger: %w", err)
	}

	return nil
}

// SeenContent reports whether a content hash is already in the ingest
// ledger. Ingest uses it to skip known files before parsing them.
func (s *Store) SeenContent(ctx context.Context, hash ContentHash) (bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return false, fmt.Errorf("queue store: seen content: %w", err)
	}
	defer s.pool.Put(conn)

	var seen bool
	err = sqlitex.Execute(conn,
		"SELECT 1 FROM ingested WHERE content_hash = ?",
		&sqlitex.ExecOptions{
			Args: []any{hash[:]},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				seen = true
				return nil
			},
		})
	if err != nil {
		return false, fmt.Errorf("queue store: seen content: %w", err)
	}
	return seen, nil
}

// PendingRecords returns every record awaiting review, oldest first.
// This is the queue order the API serves; review clients apply their
// own display ordering on top.
func (s *Store) PendingRecords(ctx context.Context) ([]extraction.Record, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("queue store: pending records: %w", err)
	}
	defer s.pool.Put(conn)

	var records []extraction.Record
	err = sqlitex.Execute(conn,
		"SELECT payload FROM records WHERE status = ? ORDER BY added_at, id",
		&sqlitex.ExecOptions{
			Args: []any{string(extraction.StatusPending)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				record, err := scanRecordPayload(stmt, 0)
				if err != nil {
					return err
				}
				records = append(records, record)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("queue store: pending records: %w", err)
	}
	return records, nil
}

// Record returns a single record by id, in any workflow status.
func (s *Store) Record(ctx context.Context, id string) (*extraction.Record, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("queue store: record %s: %w", id, err)
	}
	defer s.pool.Put(conn)

	record, err := loadRecord(conn, id)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateRecord replaces the stored payload of an existing record and
// refreshes the mirrored scalar columns. The record keeps its
// added_at; updated_at is bumped.
func (s *Store) UpdateRecord(ctx context.Context, record *extraction.Record) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("queue store: update: %w", err)
	}

	payload, err := codec.Marshal(record)
	if err != nil {
		return fmt.Errorf("queue store: encode record %s: %w", record.ID, err)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("queue store: update record: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE records
			SET record_type = ?, status = ?, confidence = ?, updated_at = ?, payload = ?
			WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{
				string(record.Type),
				string(record.Status),
				record.Confidence,
				s.clock.Now().UnixNano(),
				payload,
				record.ID,
			},
		})
	if err != nil {
		return fmt.Errorf("queue store: update record %s: %w", record.ID, err)
	}
	if conn.Changes() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// SetStatus moves a record to a new workflow status, rewriting both
// the payload and the mirrored status column. Workflow rules (only
// pending records may be approved, and so on) are the caller's to
// enforce; this is the mechanical transition.
func (s *Store) SetStatus(ctx context.Context, id string, status extraction.Status) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("queue store: set status: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("queue store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	record, err := loadRecord(conn, id)
	if err != nil {
		return err
	}

	record.Status = status
	payload, err := codec.Marshal(record)
	if err != nil {
		return fmt.Errorf("queue store: encode record %s: %w", id, err)
	}

	err = sqlitex.Execute(conn,
		"UPDATE records SET status = ?, updated_at = ?, payload = ? WHERE id = ?",
		&sqlitex.ExecOptions{
			Args: []any{string(status), s.clock.Now().UnixNano(), payload, id},
		})
	if err != nil {
		return fmt.Errorf("queue store: set status %s: %w", id, err)
	}
	return nil
}

// ClearPending deletes every pending record and its stored source
// document, returning how many records were removed. The ingest
// ledger keeps their content hashes, so the cleared files stay
// recognized on future scans.
func (s *Store) ClearPending(ctx context.Context) (int, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("queue store: clear pending: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return 0, fmt.Errorf("queue store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	err = sqlitex.Execute(conn,
		"DELETE FROM documents WHERE record_id IN (SELECT id FROM records WHERE status = ?)",
		&sqlitex.ExecOptions{
			Args: []any{string(extraction.StatusPending)},
		})
	if err != nil {
		return 0, fmt.Errorf("queue store: clear pending documents: %w", err)
	}

	err = sqlitex.Execute(conn,
		"DELETE FROM records WHERE status = ?",
		&sqlitex.ExecOptions{
			Args: []any{string(extraction.StatusPending)},
		})
	if err != nil {
		return 0, fmt.Errorf("queue store: clear pending records: %w", err)
	}

	return conn.Changes(), nil
}

// PendingCount returns the number of records awaiting review.
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("queue store: pending count: %w", err)
	}
	defer s.pool.Put(conn)

	var count int
	err = sqlitex.Execute(conn,
		"SELECT COUNT(*) FROM records WHERE status = ?",
		&sqlitex.ExecOptions{
			Args: []any{string(extraction.StatusPending)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = stmt.ColumnInt(0)
				return nil
			},
		})
	if err != nil {
		return 0, fmt.Errorf("queue store: pending count: %w", err)
	}
	return count, nil
}

// PutDocument stores the source document a record was extracted from,
// compressed when compression pays. An existing document for the
// record is replaced.
func (s *Store) PutDocument(ctx context.Context, recordID string, content []byte, contentType, filename string) error {
	compressed, tag, err := compressDocument(content, contentType)
	if err != nil {
		return fmt.Errorf("queue store: compress document for %s: %w", recordID, err)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("queue store: put document: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT OR REPLACE INTO documents
			(record_id, content_type, filename, compression, uncompressed_size, content)
			VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				recordID,
				contentType,
				filename,
				int(tag),
				len(content),
				compressed,
			},
		})
	if err != nil {
		return fmt.Errorf("queue store: put document for %s: %w", recordID, err)
	}
	return nil
}

// Document returns the stored source document for a record.
func (s *Store) Document(ctx context.Context, recordID string) (*extraction.SourceDocument, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("queue store: document for %s: %w", recordID, err)
	}
	defer s.pool.Put(conn)

	var document *extraction.SourceDocument
	err = sqlitex.Execute(conn,
		`SELECT content_type, filename, compression, uncompressed_size, content
			FROM documents WHERE record_id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{recordID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				contentType := stmt.ColumnText(0)
				filename := stmt.ColumnText(1)
				tag := compressionTag(stmt.ColumnInt(2))
				uncompressedSize := stmt.ColumnInt(3)

				blob := make([]byte, stmt.ColumnLen(4))
				stmt.ColumnBytes(4, blob)

				content, err := decompressDocument(blob, tag, uncompressedSize)
				if err != nil {
					return fmt.Errorf("document for %s: %w", recordID, err)
				}

				document = &extraction.SourceDocument{
					Content:  string(content),
					Type:     contentType,
					Filename: filename,
				}
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("queue store: document for %s: %w", recordID, err)
	}
	if document == nil {
		return nil, ErrDocumentNotFound
	}
	return document, nil
}

// loadRecord reads one record's payload on an already-borrowed
// connection. Used inside transactions and by Record.
func loadRecord(conn *sqlite.Conn, id string) (*extraction.Record, error) {
	var record *extraction.Record
	err := sqlitex.Execute(conn,
		"SELECT payload FROM records WHERE id = ?",
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				decoded, err := scanRecordPayload(stmt, 0)
				if err != nil {
					return err
				}
				record = &decoded
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("queue store: record %s: %w", id, err)
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}
	return record, nil
}

// scanRecordPayload decodes the CBOR payload blob in the given
// column.
func scanRecordPayload(stmt *sqlite.Stmt, column int) (extraction.Record, error) {
	blob := make([]byte, stmt.ColumnLen(column))
	stmt.ColumnBytes(column, blob)

	var record extraction.Record
	if err := codec.Unmarshal(blob, &record); err != nil {
		return record, fmt.Errorf("decode record payload: %w", err)
	}
	return record, nil
}
