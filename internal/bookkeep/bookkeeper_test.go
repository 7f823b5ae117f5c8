package bookkeep

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reposync/internal/cmdrun"
	"github.com/roach88/reposync/internal/differ"
	"github.com/roach88/reposync/internal/fsys"
	"github.com/roach88/reposync/internal/project"
	"github.com/roach88/reposync/internal/repository"
	"github.com/roach88/reposync/internal/revision"
	"github.com/roach88/reposync/internal/store"
	"github.com/roach88/reposync/internal/testutil"
	"github.com/roach88/reposync/internal/translate"
)

var (
	int1         = revision.New("1", "int")
	pub1         = revision.New("1", "pub")
	migratedFrom = revision.New("migrated_from", "int")
	migratedTo   = revision.New("migrated_to", "pub")
)

// historyFactory builds dummy repositories with fixed histories.
type historyFactory map[string][]repository.DummyEntry

func (historyFactory) Type() string { return "dummy" }

func (f historyFactory) Create(name string, cfg repository.Config) (repository.Type, error) {
	return repository.NewDummy(name, cfg.ProjectSpace, cfg.Root, f[name]...), nil
}

// scenarioHistory has int@1 descend from migrated_from and pub@1 descend
// from migrated_to, which records its migration from int@migrated_from.
var scenarioHistory = historyFactory{
	"int": {
		{ID: "1", Parents: []string{"migrated_from"}},
		{ID: "migrated_from"},
	},
	"pub": {
		{ID: "1", Parents: []string{"migrated_to"}},
		{ID: "migrated_to", Description: "Export\n\nMIGRATED_REVID=migrated_from"},
	},
}

// countingDb counts Write calls.
type countingDb struct {
	store.Db
	writes int
}

func (c *countingDb) Write(ctx context.Context) error {
	c.writes++
	return c.Db.Write(ctx)
}

func newBookkeeper(t *testing.T, trees map[string]string, runner cmdrun.Runner, db store.Db) *Bookkeeper {
	t.Helper()
	root := testutil.WriteTree(t, t.TempDir(), trees)
	cfg := &project.Config{
		Name: "test",
		Repositories: map[string]repository.Config{
			"int": {Type: "dummy", ProjectSpace: "internal", Root: root},
			"pub": {Type: "dummy", ProjectSpace: "public", Root: root},
		},
		Translators: []project.TranslatorConfig{{
			FromProjectSpace: "internal",
			ToProjectSpace:   "public",
			Steps:            []project.StepConfig{{Name: "id_step", Editor: translate.EditorConfig{Type: translate.TypeIdentity}}},
		}},
		Migrations: []project.MigrationConfig{{Name: "test", FromRepository: "int", ToRepository: "pub"}},
	}
	scope := fsys.NewScope(t.TempDir())
	t.Cleanup(func() { _ = scope.Close() })

	pc, err := project.NewContext(cfg, project.Options{
		Scope:     scope,
		Runner:    runner,
		Factories: []repository.Factory{scenarioHistory},
	})
	require.NoError(t, err)

	b := New(pc, db, differ.NewCodebaseDiffer(differ.NewToolDiffer(runner)))
	b.RunIDs = testutil.NewFixedRunID("run-1")
	return b
}

func TestBookkeepHeadsEquivalentMigratedRevisionsDiffer(t *testing.T) {
	db := &countingDb{Db: store.NewMemory()}
	b := newBookkeeper(t, map[string]string{
		"int/1/file":             "1",
		"pub/1/file":             "1",
		"int/migrated_from/file": "1",
		"pub/migrated_to/":       "",
	}, &testutil.DiffRunner{}, db)

	res, err := b.Bookkeep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, []revision.Equivalence{revision.MustEquivalence(int1, pub1)}, res.Equivalences)
	assert.Empty(t, res.Migrations)
	assert.True(t, res.Written)

	assert.Len(t, db.Equivalences(), 1)
	assert.Empty(t, db.Migrations())
	assert.Equal(t, 1, db.writes)
}

func TestBookkeepHeadsDifferMigrationNotEquivalent(t *testing.T) {
	db := &countingDb{Db: store.NewMemory()}
	b := newBookkeeper(t, map[string]string{
		"int/1/file":             "1",
		"pub/1/":                 "",
		"int/migrated_from/file": "1",
		"pub/migrated_to/":       "",
	}, &testutil.DiffRunner{}, db)

	res, err := b.Bookkeep(context.Background())
	require.NoError(t, err)

	assert.Empty(t, res.Equivalences)
	assert.Equal(t, []revision.Migration{revision.NewMigration(migratedFrom, migratedTo)}, res.Migrations)
	assert.Empty(t, db.Equivalences())
	assert.Len(t, db.Migrations(), 1)
	assert.Equal(t, 1, db.writes)
}

func TestBookkeepHeadsDifferMigrationEquivalent(t *testing.T) {
	db := &countingDb{Db: store.NewMemory()}
	b := newBookkeeper(t, map[string]string{
		"int/1/file":             "1",
		"pub/1/":                 "",
		"int/migrated_from/file": "1",
		"pub/migrated_to/file":   "1",
	}, &testutil.DiffRunner{}, db)

	res, err := b.Bookkeep(context.Background())
	require.NoError(t, err)

	want := &Result{
		RunID:        "run-1",
		Equivalences: []revision.Equivalence{revision.MustEquivalence(migratedFrom, migratedTo)},
		Migrations:   []revision.Migration{revision.NewMigration(migratedFrom, migratedTo)},
		Written:      true,
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("Bookkeep() mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, db.Equivalences(), 1)
	assert.Len(t, db.Migrations(), 1)
}

func TestBookkeepIsIdempotent(t *testing.T) {
	trees := map[string]string{
		"int/1/file":             "1",
		"pub/1/":                 "",
		"int/migrated_from/file": "1",
		"pub/migrated_to/file":   "1",
	}
	db := &countingDb{Db: store.NewMemory()}
	b := newBookkeeper(t, trees, &testutil.DiffRunner{}, db)

	_, err := b.Bookkeep(context.Background())
	require.NoError(t, err)
	equivalences, migrations := db.Equivalences(), db.Migrations()

	res, err := b.Bookkeep(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.False(t, res.Written)
	assert.Equal(t, 1, db.writes, "nothing new, nothing written")
	assert.Equal(t, equivalences, db.Equivalences())
	assert.Equal(t, migrations, db.Migrations())
}

func TestBookkeepMigrationPersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	db, err := store.LoadFile(path)
	require.NoError(t, err)
	b := newBookkeeper(t, map[string]string{
		"int/1/file": "1",
		"pub/1/file": "1",
	}, &testutil.DiffRunner{}, db)

	m, ok := b.Project.Migration("test")
	require.True(t, ok)
	_, err = b.BookkeepMigration(context.Background(), m)
	require.NoError(t, err)

	reloaded, err := store.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []revision.Revision{pub1}, reloaded.FindEquivalences(int1, "pub"))
}

type brokenRunner struct{}

func (brokenRunner) Run(_ context.Context, _, command string, args ...string) (cmdrun.Output, error) {
	return cmdrun.Output{}, &cmdrun.LaunchError{Command: command, Args: args, Err: errors.New("no such tool")}
}

func TestBookkeepAbortsBeforeWriteOnDiffFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	fileDb, err := store.LoadFile(path)
	require.NoError(t, err)
	db := &countingDb{Db: fileDb}
	b := newBookkeeper(t, map[string]string{
		"int/1/file":             "1",
		"pub/1/file":             "1",
		"int/migrated_from/file": "1",
		"pub/migrated_to/file":   "1",
	}, brokenRunner{}, db)

	_, err = b.Bookkeep(context.Background())
	require.Error(t, err)
	assert.True(t, cmdrun.IsLaunchError(err))
	assert.Equal(t, 0, db.writes)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBookkeepWithFixedCandidates(t *testing.T) {
	db := store.NewMemory()
	b := newBookkeeper(t, map[string]string{
		"int/1/file":             "1",
		"pub/1/":                 "",
		"int/migrated_from/file": "1",
		"pub/migrated_to/file":   "1",
	}, &testutil.DiffRunner{}, db)
	b.Finder = FixedFinder{revision.NewMigration(migratedFrom, migratedTo)}

	res, err := b.Bookkeep(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Migrations, 1)
	assert.Len(t, res.Equivalences, 1)

	// the candidate is now recorded, so a second run skips it
	res, err = b.Bookkeep(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestBookkeepRemovesComparisonDirectories(t *testing.T) {
	runner := &testutil.DiffRunner{}
	b := newBookkeeper(t, map[string]string{
		"int/1/file": "1",
		"pub/1/file": "1",
	}, runner, store.NewMemory())
	// a translator that copies forces scoped directories to be created
	b.Engine.Translators = translate.NewTranslators()
	require.NoError(t, b.Engine.Translators.Add(&translate.Translator{
		From:  "internal",
		To:    "public",
		Steps: []translate.NamedStep{{Name: "mv", Editor: &translate.Renamer{EditorName: "mv", Mappings: []translate.Mapping{{From: "x", To: "y"}}}}},
	}))
	scopeBase := filepath.Dir(scopeDir(t, b))

	_, err := b.Bookkeep(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, runner.Calls())

	entries, err := os.ReadDir(scopeBase)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), "rename_mv")
	}
}

// scopeDir creates and returns one directory in the engine's scope, to
// find out where the scope creates directories.
func scopeDir(t *testing.T, b *Bookkeeper) string {
	t.Helper()
	dir, err := b.Engine.Scope.TempDir("locate")
	require.NoError(t, err)
	return dir
}

func TestBookkeepRejectsForeignCandidates(t *testing.T) {
	tests := []struct {
		name      string
		candidate revision.Migration
		wantErr   string
	}{
		{
			name:      "source from another repository",
			candidate: revision.NewMigration(revision.New("migrated_from", "other"), migratedTo),
			wantErr:   "is not a migration from int to pub",
		},
		{
			name:      "same repository on both sides",
			candidate: revision.NewMigration(pub1, pub1),
			wantErr:   "is not a migration from int to pub",
		},
		{
			name:      "unknown source revision",
			candidate: revision.NewMigration(revision.New("nope", "int"), migratedTo),
			wantErr:   "unresolvable revision",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &countingDb{Db: store.NewMemory()}
			b := newBookkeeper(t, map[string]string{
				"int/1/file":             "1",
				"pub/1/":                 "",
				"int/migrated_from/file": "1",
				"pub/migrated_to/file":   "1",
			}, &testutil.DiffRunner{}, db)
			b.Finder = FixedFinder{tt.candidate}

			_, err := b.Bookkeep(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Empty(t, db.Equivalences())
			assert.Empty(t, db.Migrations())
			assert.Equal(t, 0, db.writes)
		})
	}
}

// abbreviating wraps a repository so that a prefix of a revision id
// resolves to the full id, the way a short git hash does.
type abbreviating struct {
	repository.Type
	full map[string]string
}

func (a abbreviating) FindHighestRevision(ctx context.Context, spec string) (revision.Revision, error) {
	if id, ok := a.full[spec]; ok {
		spec = id
	}
	return a.Type.FindHighestRevision(ctx, spec)
}

type abbreviatingFactory struct {
	historyFactory
	full map[string]map[string]string
}

func (f abbreviatingFactory) Create(name string, cfg repository.Config) (repository.Type, error) {
	repo, err := f.historyFactory.Create(name, cfg)
	if err != nil {
		return nil, err
	}
	return abbreviating{Type: repo, full: f.full[name]}, nil
}

func TestBookkeepResolvesAbbreviatedMigratedRevID(t *testing.T) {
	root := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"int/1/file":          "1",
		"pub/1/":              "",
		"int/c0ffee1234/file": "1",
		"pub/exported/file":   "1",
	})
	cfg := &project.Config{
		Name: "test",
		Repositories: map[string]repository.Config{
			"int": {Type: "dummy", ProjectSpace: "public", Root: root},
			"pub": {Type: "dummy", ProjectSpace: "public", Root: root},
		},
		Migrations: []project.MigrationConfig{{Name: "test", FromRepository: "int", ToRepository: "pub"}},
	}
	scope := fsys.NewScope(t.TempDir())
	t.Cleanup(func() { _ = scope.Close() })

	factory := abbreviatingFactory{
		historyFactory: historyFactory{
			"int": {{ID: "1", Parents: []string{"c0ffee1234"}}, {ID: "c0ffee1234"}},
			"pub": {{ID: "1", Parents: []string{"exported"}}, {ID: "exported", Description: "MIGRATED_REVID=c0ffee"}},
		},
		full: map[string]map[string]string{"int": {"c0ffee": "c0ffee1234"}},
	}
	runner := &testutil.DiffRunner{}
	pc, err := project.NewContext(cfg, project.Options{
		Scope:     scope,
		Runner:    runner,
		Factories: []repository.Factory{factory},
	})
	require.NoError(t, err)

	db := store.NewMemory()
	b := New(pc, db, differ.NewCodebaseDiffer(differ.NewToolDiffer(runner)))
	res, err := b.Bookkeep(context.Background())
	require.NoError(t, err)

	full := revision.New("c0ffee1234", "int")
	exported := revision.New("exported", "pub")
	assert.Equal(t, []revision.Migration{revision.NewMigration(full, exported)}, res.Migrations)
	assert.Equal(t, []revision.Equivalence{revision.MustEquivalence(full, exported)}, res.Equivalences)
	assert.True(t, db.HasMigration(revision.NewMigration(full, exported)))
}
