// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides Docsift's standard SQLite connection pool.
//
// The queue service keeps its review queue in a local SQLite file.
// This package wraps zombiezen.com/go/sqlite with the defaults that
// file needs: WAL journal mode, NORMAL synchronous for process-crash
// durability without fsync-per-commit overhead, memory-mapped reads,
// and a busy timeout so write contention degrades to waiting instead
// of SQLITE_BUSY errors.
//
// The pool is built on zombiezen's sqlitex.Pool. Callers [Pool.Take]
// a connection, perform work, and [Pool.Put] it back. Connections are
// NOT safe for concurrent use; each goroutine holds its own for the
// duration of its work.
//
// # Pragmas
//
// Every connection is initialized with:
//
//   - journal_mode=WAL: concurrent readers with a single writer.
//   - synchronous=NORMAL: transactions survive process crashes. Not
//     durable across power failure, which is acceptable here because
//     the inbox files remain the source of truth and a rescan
//     restores anything lost.
//   - busy_timeout=5000: wait up to 5 seconds for a write lock.
//   - foreign_keys=OFF: the store manages the record/document
//     relationship explicitly.
//   - cache_size=-8192: 8 MB page cache per connection.
//   - mmap_size=268435456: 256 MB memory-mapped I/O for reads.
//   - temp_store=MEMORY: temporary tables and indexes in memory.
//
// # Usage
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:   "/var/docsift/queue.db",
//	    Logger: logger,
//	    OnConnect: func(conn *sqlite.Conn) error {
//	        return sqlitex.ExecuteScript(conn, schema, nil)
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	conn, err := pool.Take(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Put(conn)
//
// # Design
//
// The package is intentionally thin. It applies the standard pragmas
// and exposes the zombiezen types directly; callers write SQL, use
// sqlitex.Execute for cached statements, and manage transactions with
// sqlitex.ImmediateTransaction. No query builder, no ORM.
package sqlitepool
