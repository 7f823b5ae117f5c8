package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/roach88/reposync/internal/bookkeep"
	"github.com/roach88/reposync/internal/differ"
	"github.com/roach88/reposync/internal/fsys"
	"github.com/roach88/reposync/internal/project"
	"github.com/roach88/reposync/internal/repository"
	"github.com/roach88/reposync/internal/store"
	"github.com/roach88/reposync/internal/testutil"
	"github.com/roach88/reposync/internal/translate"
)

// Harness runs scenarios inside a work directory. Trees, scoped
// directories and the database all live below it.
type Harness struct {
	workDir string
	logger  *slog.Logger
}

// historyFactory builds dummy repositories with the histories of a
// scenario.
type historyFactory map[string][]repository.DummyEntry

func (historyFactory) Type() string { return "dummy" }

func (f historyFactory) Create(name string, cfg repository.Config) (repository.Type, error) {
	return repository.NewDummy(name, cfg.ProjectSpace, cfg.Root, f[name]...), nil
}

// Run executes a scenario below workDir and returns the result.
//
// Execution flow:
//  1. Write every revision tree below workDir/trees
//  2. Build the project from the scenario's repositories and migrations
//  3. Run bookkeeping Runs times, reopening the database each time
//  4. Evaluate assertions against the run records and final facts
//
// Run IDs are run-1, run-2 and so on. File comparison happens in process
// so scenarios do not depend on an installed diff tool.
func Run(ctx context.Context, scenario *Scenario, workDir string) (*Result, error) {
	h := &Harness{
		workDir: workDir,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return h.run(ctx, scenario)
}

func (h *Harness) run(ctx context.Context, s *Scenario) (*Result, error) {
	root := filepath.Join(h.workDir, "trees")
	if err := writeTrees(root, s.Repositories); err != nil {
		return nil, fmt.Errorf("failed to write trees: %w", err)
	}

	scope := fsys.NewScope(filepath.Join(h.workDir, "scope"))
	defer scope.Close()

	runner := &testutil.DiffRunner{}
	pc, err := project.NewContext(projectConfig(s, root), project.Options{
		Scope:     scope,
		Runner:    runner,
		Factories: []repository.Factory{histories(s.Repositories)},
		Logger:    h.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build project: %w", err)
	}
	d := differ.NewCodebaseDiffer(differ.NewToolDiffer(runner))

	dbPath := filepath.Join(h.workDir, s.Database)
	result := NewResult()
	for i := 1; i <= s.Runs; i++ {
		record, facts, err := h.pass(ctx, pc, d, dbPath, fmt.Sprintf("run-%d", i))
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i, err)
		}
		result.Runs = append(result.Runs, record)
		result.Facts = facts
	}

	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// pass runs one bookkeeping pass against a freshly loaded database.
func (h *Harness) pass(ctx context.Context, pc *project.Context, d *differ.CodebaseDiffer, dbPath, runID string) (RunRecord, Facts, error) {
	db, err := store.Load(ctx, dbPath)
	if err != nil {
		return RunRecord{}, Facts{}, err
	}
	defer db.Close()

	b := bookkeep.New(pc, db, d)
	b.RunIDs = testutil.NewFixedRunID(runID)
	b.Logger = h.logger

	res, err := b.Bookkeep(ctx)
	if err != nil {
		return RunRecord{}, Facts{}, err
	}

	record := RunRecord{
		RunID:        res.RunID,
		Equivalences: []string{},
		Migrations:   []string{},
		Written:      res.Written,
	}
	for _, e := range res.Equivalences {
		record.Equivalences = append(record.Equivalences, e.Canonical().String())
	}
	for _, m := range res.Migrations {
		record.Migrations = append(record.Migrations, m.String())
	}

	facts := Facts{Equivalences: []string{}, Migrations: []string{}}
	for _, e := range db.Equivalences() {
		facts.Equivalences = append(facts.Equivalences, e.String())
	}
	for _, m := range db.Migrations() {
		facts.Migrations = append(facts.Migrations, m.String())
	}
	return record, facts, nil
}

func projectConfig(s *Scenario, root string) *project.Config {
	cfg := &project.Config{
		Name:         s.Name,
		Repositories: map[string]repository.Config{},
	}
	for name, repo := range s.Repositories {
		space := repo.ProjectSpace
		if space == "" {
			space = repository.DefaultProjectSpace
		}
		cfg.Repositories[name] = repository.Config{Type: "dummy", ProjectSpace: space, Root: root}
	}
	for _, t := range s.Translators {
		cfg.Translators = append(cfg.Translators, project.TranslatorConfig{
			FromProjectSpace: t.From,
			ToProjectSpace:   t.To,
			Steps: []project.StepConfig{{
				Name:   "identity",
				Editor: translate.EditorConfig{Type: translate.TypeIdentity},
			}},
		})
	}
	for _, m := range s.Migrations {
		cfg.Migrations = append(cfg.Migrations, project.MigrationConfig{
			Name:           m.Name,
			FromRepository: m.From,
			ToRepository:   m.To,
		})
	}
	return cfg
}

func histories(repos map[string]RepositorySetup) historyFactory {
	f := historyFactory{}
	for name, repo := range repos {
		for _, h := range repo.History {
			f[name] = append(f[name], repository.DummyEntry{
				ID:          h.ID,
				Description: h.Description,
				Parents:     h.Parents,
			})
		}
	}
	return f
}

// writeTrees lays out root/<repository>/<revision>/<file>. Every revision
// in a history gets a directory, even without files.
func writeTrees(root string, repos map[string]RepositorySetup) error {
	for _, name := range slices.Sorted(maps.Keys(repos)) {
		repo := repos[name]
		ids := []string{repository.DummyHead}
		if len(repo.History) > 0 {
			ids = ids[:0]
			for _, h := range repo.History {
				ids = append(ids, h.ID)
			}
		}
		for id := range repo.Trees {
			if !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
		for _, id := range ids {
			dir := filepath.Join(root, name, id)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			for rel, content := range repo.Trees[id] {
				path := filepath.Join(dir, filepath.FromSlash(rel))
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return err
				}
				if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
