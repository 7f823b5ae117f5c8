package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/roach88/reposync/internal/revision"
)

func openTestDb(t *testing.T, path string) *SQLiteDb {
	t.Helper()
	db, err := OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenSQLite_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.db")
	openTestDb(t, path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpenSQLite_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.db")

	for i := 0; i < 3; i++ {
		db, err := OpenSQLite(context.Background(), path)
		if err != nil {
			t.Fatalf("OpenSQLite() iteration %d failed: %v", i, err)
		}
		db.Close()
	}

	db := openTestDb(t, path)
	for _, table := range []string{"equivalences", "migrations"} {
		var name string
		err := db.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after repeated opens: %v", table, err)
		}
	}
}

func TestOpenSQLite_InvalidPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "/nonexistent/dir/facts.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestSQLiteDb_CloseNil(t *testing.T) {
	d := &SQLiteDb{}
	if err := d.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestSQLiteDb_Pragmas(t *testing.T) {
	db := openTestDb(t, filepath.Join(t.TempDir(), "facts.db"))

	pragmas := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1", // NORMAL
		"busy_timeout": "5000",
		"user_version": "1",
	}
	for name, want := range pragmas {
		if err := db.verifyPragma(name, want); err != nil {
			t.Error(err)
		}
	}
}

func TestSQLiteDb_WriteAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.sqlite")
	db := openTestDb(t, path)

	db.NoteEquivalence(revision.MustEquivalence(pub1, int1))
	db.NoteMigration(revision.NewMigration(migratedFrom, migratedTo))
	if err := db.Write(context.Background()); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if db.Changed() {
		t.Error("Changed() = true after Write")
	}
	db.Close()

	loaded, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	defer loaded.Close()

	if _, ok := loaded.(*SQLiteDb); !ok {
		t.Fatalf("Load() returned %T, want *SQLiteDb", loaded)
	}
	eqs := loaded.Equivalences()
	if len(eqs) != 1 || !eqs[0].Equal(revision.MustEquivalence(int1, pub1)) {
		t.Errorf("Equivalences() = %v", eqs)
	}
	if !loaded.HasMigration(revision.NewMigration(migratedFrom, migratedTo)) {
		t.Error("migration not reloaded")
	}
	if loaded.Changed() {
		t.Error("Changed() = true right after load")
	}
}

func TestSQLiteDb_WriteIsIdempotent(t *testing.T) {
	db := openTestDb(t, filepath.Join(t.TempDir(), "facts.db"))
	db.NoteEquivalence(revision.MustEquivalence(int1, pub1))

	for i := 0; i < 2; i++ {
		if err := db.Write(context.Background()); err != nil {
			t.Fatalf("Write() %d failed: %v", i, err)
		}
	}

	var count int
	if err := db.db.QueryRow("SELECT COUNT(*) FROM equivalences").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("equivalences rows = %d, want 1", count)
	}
}

func TestSQLiteDb_StoresCanonicalOrder(t *testing.T) {
	db := openTestDb(t, filepath.Join(t.TempDir(), "facts.db"))
	e := revision.MustEquivalence(pub1, int1)
	db.NoteEquivalence(e)
	if err := db.Write(context.Background()); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	var id, rev1Repo string
	if err := db.db.QueryRow("SELECT id, rev1_repository FROM equivalences").Scan(&id, &rev1Repo); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if id != e.ID() {
		t.Errorf("id = %q, want %q", id, e.ID())
	}
	if rev1Repo != "int" {
		t.Errorf("rev1_repository = %q, want int", rev1Repo)
	}
}

func TestIsSQLitePath(t *testing.T) {
	tests := map[string]bool{
		"facts.db":      true,
		"facts.SQLite":  true,
		"facts.sqlite3": true,
		"facts.json":    false,
		"facts":         false,
	}
	for path, want := range tests {
		if got := IsSQLitePath(path); got != want {
			t.Errorf("IsSQLitePath(%q) = %v, want %v", path, got, want)
		}
	}
}
