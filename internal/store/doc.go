// Package store provides durable storage for equivalence and migration
// facts.
//
// A Db is loaded once, mutated in memory, and written back explicitly.
// Noting a fact that is already present is a no-op. Facts are never
// removed.
//
// # Backends
//
//   - FileDb: a JSON document. Write replaces the file through a temporary
//     file and a rename, so readers see either the old or the new state.
//   - SQLiteDb: a SQLite database, selected by a .db, .sqlite or .sqlite3
//     path. Write inserts every fact in one transaction with
//     ON CONFLICT DO NOTHING.
//   - Memory: no durable storage at all; Write only clears the changed
//     flag.
//
// # Identity
//
// Facts are deduplicated by their content-addressed ID (revision.Equivalence.ID
// and revision.Migration.ID), so an equivalence and its mirror image are the
// same fact.
//
// # SQLite configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
package store
