package store

import "context"

// Load opens the database at path, choosing the backend by extension:
// SQLite for .db, .sqlite and .sqlite3, JSON otherwise. An empty path is an
// in-memory database.
func Load(ctx context.Context, path string) (Db, error) {
	switch {
	case path == "":
		return NewMemory(), nil
	case IsSQLitePath(path):
		db, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		db, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
}
