package bookkeep

import (
	"context"
	"fmt"
	"regexp"

	"github.com/roach88/reposync/internal/repository"
	"github.com/roach88/reposync/internal/revision"
	"github.com/roach88/reposync/internal/store"
)

// MigrationFinder lists submitted migrations from one repository into
// another that db does not record yet.
type MigrationFinder interface {
	FindMigrations(ctx context.Context, from, to repository.Type, db store.Db) ([]revision.Migration, error)
}

// MigratedRevIDKey is the description marker naming the source revision of
// a migrated commit: MIGRATED_REVID=<id>.
const MigratedRevIDKey = "MIGRATED_REVID"

var migratedRevIDPattern = regexp.MustCompile(`(?m)` + MigratedRevIDKey + `=(\S+)`)

// MigratedRevID returns the source revision id recorded in a commit
// description, if any.
func MigratedRevID(description string) (string, bool) {
	m := migratedRevIDPattern.FindStringSubmatch(description)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// HistoryScanner finds migrations by walking the target repository's
// history from its head through parent revisions. A revision whose
// description carries MIGRATED_REVID=<id> is a migration from <id> of the
// source repository.
//
// The walk does not continue past a revision that is already known to be
// equivalent to some source revision or that is already the target of a
// recorded migration: everything older has been accounted for by an earlier
// run.
type HistoryScanner struct {
	// MaxRevisions bounds the walk. Zero means DefaultMaxRevisions.
	MaxRevisions int
}

// DefaultMaxRevisions bounds a HistoryScanner walk when MaxRevisions is zero.
const DefaultMaxRevisions = 1000

// FindMigrations implements MigrationFinder. Migrations are returned oldest
// first.
func (h HistoryScanner) FindMigrations(ctx context.Context, from, to repository.Type, db store.Db) ([]revision.Migration, error) {
	limit := h.MaxRevisions
	if limit <= 0 {
		limit = DefaultMaxRevisions
	}

	head, err := to.FindHighestRevision(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("scan %s for migrations: %w", to.Name(), err)
	}

	var found []revision.Migration
	seen := map[revision.Revision]bool{head: true}
	queue := []revision.Revision{head}
	for visited := 0; len(queue) > 0 && visited < limit; visited++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rev := queue[0]
		queue = queue[1:]

		if len(db.FindEquivalences(rev, from.Name())) > 0 || len(db.MigrationsTo(rev)) > 0 {
			continue
		}

		md, err := to.Metadata(ctx, rev)
		if err != nil {
			return nil, fmt.Errorf("scan %s for migrations: %w", to.Name(), err)
		}
		if id, ok := MigratedRevID(md.Description); ok {
			m := revision.NewMigration(revision.New(id, from.Name()), rev)
			if !db.HasMigration(m) {
				found = append(found, m)
			}
		}
		for _, parent := range md.Parents {
			if !seen[parent] {
				seen[parent] = true
				queue = append(queue, parent)
			}
		}
	}

	// oldest first
	for i, j := 0, len(found)-1; i < j; i, j = i+1, j-1 {
		found[i], found[j] = found[j], found[i]
	}
	return found, nil
}

// FixedFinder returns the same candidates every time, minus those db
// already records.
type FixedFinder []revision.Migration

// FindMigrations implements MigrationFinder.
func (f FixedFinder) FindMigrations(_ context.Context, _, _ repository.Type, db store.Db) ([]revision.Migration, error) {
	var out []revision.Migration
	for _, m := range f {
		if !db.HasMigration(m) {
			out = append(out, m)
		}
	}
	return out, nil
}
