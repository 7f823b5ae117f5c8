package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - equivalences and migrations tables
const currentSchemaVersion = 1

// SQLiteDb is a Db stored in a SQLite database. All facts are read into
// memory when it is opened.
type SQLiteDb struct {
	*Storage
	db   *sql.DB
	path string
}

// IsSQLitePath reports whether path names a SQLite database by extension.
func IsSQLitePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// OpenSQLite creates or opens the SQLite database at path, applies pragmas
// and the schema, and loads every stored fact.
func OpenSQLite(ctx context.Context, path string) (*SQLiteDb, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s, err := readFacts(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load database %s: %w", path, err)
	}
	return &SQLiteDb{Storage: s, db: db, path: path}, nil
}

// Close closes the database connection.
func (d *SQLiteDb) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Path returns the database file.
func (d *SQLiteDb) Path() string { return d.path }

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

func readFacts(ctx context.Context, db *sql.DB) (*Storage, error) {
	s := NewStorage()

	rows, err := db.QueryContext(ctx, `
		SELECT rev1_repository, rev1_id, rev2_repository, rev2_id
		FROM equivalences
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query equivalences: %w", err)
	}
	for rows.Next() {
		var r1repo, r1id, r2repo, r2id string
		if err := rows.Scan(&r1repo, &r1id, &r2repo, &r2id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan equivalence: %w", err)
		}
		s.NoteEquivalence(equivalenceRow(r1repo, r1id, r2repo, r2id))
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equivalences: %w", err)
	}

	rows, err = db.QueryContext(ctx, `
		SELECT from_repository, from_id, to_repository, to_id
		FROM migrations
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var fromRepo, fromID, toRepo, toID string
		if err := rows.Scan(&fromRepo, &fromID, &toRepo, &toID); err != nil {
			return nil, fmt.Errorf("scan migration: %w", err)
		}
		s.NoteMigration(migrationRow(fromRepo, fromID, toRepo, toID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate migrations: %w", err)
	}

	s.markWritten()
	return s, nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (d *SQLiteDb) verifyPragma(name, expected string) error {
	var value string
	if err := d.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
