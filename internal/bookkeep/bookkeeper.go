package bookkeep

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/reposync/internal/differ"
	"github.com/roach88/reposync/internal/expression"
	"github.com/roach88/reposync/internal/project"
	"github.com/roach88/reposync/internal/repository"
	"github.com/roach88/reposync/internal/resolve"
	"github.com/roach88/reposync/internal/revision"
	"github.com/roach88/reposync/internal/store"
)

// Result lists the facts a run added, in the order they were noted.
type Result struct {
	RunID        string                 `json:"run_id"`
	Equivalences []revision.Equivalence `json:"equivalences"`
	Migrations   []revision.Migration   `json:"migrations"`
	Written      bool                   `json:"written"`
}

// Empty reports whether the run added nothing.
func (r *Result) Empty() bool {
	return len(r.Equivalences) == 0 && len(r.Migrations) == 0
}

// Bookkeeper updates a Db with the equivalences and migrations it can
// confirm for a project's migration pairings.
type Bookkeeper struct {
	Project *project.Context
	Engine  *resolve.Engine
	Differ  *differ.CodebaseDiffer
	Db      store.Db
	Finder  MigrationFinder
	RunIDs  RunIDGenerator
	Logger  *slog.Logger
}

// New returns a Bookkeeper over pc and db that compares trees with d and
// finds migrations by scanning history.
func New(pc *project.Context, db store.Db, d *differ.CodebaseDiffer) *Bookkeeper {
	return &Bookkeeper{
		Project: pc,
		Engine:  resolve.NewEngine(pc),
		Differ:  d,
		Db:      db,
		Finder:  HistoryScanner{},
		RunIDs:  UUIDv7Generator{},
		Logger:  pc.Logger,
	}
}

func (b *Bookkeeper) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}

func (b *Bookkeeper) runID() string {
	if b.RunIDs == nil {
		return UUIDv7Generator{}.Generate()
	}
	return b.RunIDs.Generate()
}

// Bookkeep runs both checks for every configured migration, then writes the
// database once if anything was added.
func (b *Bookkeeper) Bookkeep(ctx context.Context) (*Result, error) {
	res := &Result{RunID: b.runID()}
	for _, m := range b.Project.Migrations() {
		if err := b.bookkeep(ctx, m, res); err != nil {
			return res, err
		}
	}
	return res, b.write(ctx, res)
}

// BookkeepMigration runs both checks for one migration pairing and writes
// the database if anything was added.
func (b *Bookkeeper) BookkeepMigration(ctx context.Context, m project.MigrationConfig) (*Result, error) {
	res := &Result{RunID: b.runID()}
	if err := b.bookkeep(ctx, m, res); err != nil {
		return res, err
	}
	return res, b.write(ctx, res)
}

func (b *Bookkeeper) write(ctx context.Context, res *Result) error {
	if !b.Db.Changed() {
		b.logger().Info("bookkeeping found nothing new", "run_id", res.RunID)
		return nil
	}
	if err := b.Db.Write(ctx); err != nil {
		return fmt.Errorf("bookkeeping: %w", err)
	}
	res.Written = true
	b.logger().Info("bookkeeping database written",
		"run_id", res.RunID,
		"equivalences", len(res.Equivalences),
		"migrations", len(res.Migrations))
	return nil
}

func (b *Bookkeeper) bookkeep(ctx context.Context, m project.MigrationConfig, res *Result) error {
	from, ok := b.Project.Repository(m.FromRepository)
	if !ok {
		return repository.InvalidProject("migration %s: unknown repository %q", m.Name, m.FromRepository)
	}
	to, ok := b.Project.Repository(m.ToRepository)
	if !ok {
		return repository.InvalidProject("migration %s: unknown repository %q", m.Name, m.ToRepository)
	}
	log := b.logger().With("run_id", res.RunID, "migration", m.Name)

	if err := b.checkHeads(ctx, from, to, res, log); err != nil {
		return fmt.Errorf("bookkeeping %s: head check: %w", m.Name, err)
	}
	if err := b.promoteMigrations(ctx, from, to, res, log); err != nil {
		return fmt.Errorf("bookkeeping %s: migrations: %w", m.Name, err)
	}
	return nil
}

func (b *Bookkeeper) checkHeads(ctx context.Context, from, to repository.Type, res *Result, log *slog.Logger) error {
	headFrom, err := from.FindHighestRevision(ctx, "")
	if err != nil {
		return err
	}
	headTo, err := to.FindHighestRevision(ctx, "")
	if err != nil {
		return err
	}
	log.Debug("comparing heads", "from", headFrom.String(), "to", headTo.String())

	same, err := b.equivalent(ctx, from, headFrom, to, headTo)
	if err != nil {
		return err
	}
	if !same {
		log.Debug("heads differ", "from", headFrom.String(), "to", headTo.String())
		return nil
	}
	return b.noteEquivalence(headFrom, headTo, res, log)
}

func (b *Bookkeeper) promoteMigrations(ctx context.Context, from, to repository.Type, res *Result, log *slog.Logger) error {
	candidates, err := b.Finder.FindMigrations(ctx, from, to, b.Db)
	if err != nil {
		return err
	}
	for _, c := range candidates {
		m, err := resolveCandidate(ctx, from, to, c)
		if err != nil {
			return err
		}
		same, err := b.equivalent(ctx, from, m.From, to, m.To)
		if err != nil {
			return fmt.Errorf("%s: %w", m, err)
		}
		if b.Db.NoteMigration(m) {
			res.Migrations = append(res.Migrations, m)
			log.Info("noted migration", "from", m.From.String(), "to", m.To.String())
		}
		if !same {
			log.Debug("migrated revisions differ", "from", m.From.String(), "to", m.To.String())
			continue
		}
		if err := b.noteEquivalence(m.From, m.To, res, log); err != nil {
			return err
		}
	}
	return nil
}

// resolveCandidate checks that c runs from from to to and resolves both of
// its revisions, so an abbreviated id is recorded in full.
func resolveCandidate(ctx context.Context, from, to repository.Type, c revision.Migration) (revision.Migration, error) {
	if c.From.RepositoryName != from.Name() || c.To.RepositoryName != to.Name() {
		return revision.Migration{}, fmt.Errorf("candidate %s is not a migration from %s to %s", c, from.Name(), to.Name())
	}
	fromRev, err := from.FindHighestRevision(ctx, c.From.ID)
	if err != nil {
		return revision.Migration{}, fmt.Errorf("candidate %s: %w", c, err)
	}
	toRev, err := to.FindHighestRevision(ctx, c.To.ID)
	if err != nil {
		return revision.Migration{}, fmt.Errorf("candidate %s: %w", c, err)
	}
	return revision.NewMigration(fromRev, toRev), nil
}

func (b *Bookkeeper) noteEquivalence(r1, r2 revision.Revision, res *Result, log *slog.Logger) error {
	e, err := revision.NewEquivalence(r1, r2)
	if err != nil {
		return err
	}
	if b.Db.NoteEquivalence(e) {
		res.Equivalences = append(res.Equivalences, e)
		log.Info("noted equivalence", "rev1", r1.String(), "rev2", r2.String())
	}
	return nil
}

// equivalent builds fromRev translated into to's project space and the raw
// toRev, and reports whether the two trees are identical. Every directory
// created for the comparison is removed before it returns.
func (b *Bookkeeper) equivalent(ctx context.Context, from repository.Type, fromRev revision.Revision, to repository.Type, toRev revision.Revision) (same bool, err error) {
	eng := *b.Engine
	eng.Scope = b.Engine.Scope.Sub()
	defer func() {
		if cerr := eng.Scope.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	fromExpr := expression.New(from.Name(), map[string]string{resolve.RevisionOption: fromRev.ID})
	if from.ProjectSpace() != to.ProjectSpace() {
		fromExpr = fromExpr.TranslateTo(to.ProjectSpace())
	}
	toExpr := expression.New(to.Name(), map[string]string{resolve.RevisionOption: toRev.ID})

	c1, err := eng.Create(ctx, fromExpr)
	if err != nil {
		return false, err
	}
	c2, err := eng.Create(ctx, toExpr)
	if err != nil {
		return false, err
	}
	diff, err := b.Differ.Diff(ctx, c1, c2)
	if err != nil {
		return false, err
	}
	return !diff.AreDifferent(), nil
}
