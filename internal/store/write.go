package store

import (
	"context"
	"fmt"

	"github.com/roach88/reposync/internal/revision"
)

// Write implements Db. Every fact is inserted in a single transaction;
// ON CONFLICT(id) DO NOTHING makes facts already on disk no-ops, so a
// failed Write leaves the database as it was.
func (d *SQLiteDb) Write(ctx context.Context) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write database: %w", err)
	}
	defer tx.Rollback()

	for _, e := range d.Equivalences() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO equivalences
			(id, rev1_repository, rev1_id, rev2_repository, rev2_id)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, e.ID(), e.Rev1.RepositoryName, e.Rev1.ID, e.Rev2.RepositoryName, e.Rev2.ID)
		if err != nil {
			return fmt.Errorf("write equivalence %s: %w", e, err)
		}
	}

	for _, m := range d.Migrations() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO migrations
			(id, from_repository, from_id, to_repository, to_id)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, m.ID(), m.From.RepositoryName, m.From.ID, m.To.RepositoryName, m.To.ID)
		if err != nil {
			return fmt.Errorf("write migration %s: %w", m, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write database: %w", err)
	}
	d.markWritten()
	return nil
}

func equivalenceRow(r1repo, r1id, r2repo, r2id string) revision.Equivalence {
	return revision.Equivalence{Rev1: revision.New(r1id, r1repo), Rev2: revision.New(r2id, r2repo)}
}

func migrationRow(fromRepo, fromID, toRepo, toID string) revision.Migration {
	return revision.NewMigration(revision.New(fromID, fromRepo), revision.New(toID, toRepo))
}
