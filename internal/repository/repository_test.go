package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reposync/internal/fsys"
	"github.com/roach88/reposync/internal/revision"
)

func TestRegistryCreate(t *testing.T) {
	r := NewRegistry(DefaultFactories(fsys.NewScope(t.TempDir()))...)

	repo, err := r.Create("myRepository", Config{Type: "dummy"})
	require.NoError(t, err)
	require.NotNil(t, repo)
	assert.Equal(t, "myRepository", repo.Name())
	assert.Equal(t, DefaultProjectSpace, repo.ProjectSpace())

	got, ok := r.Get("myRepository")
	require.True(t, ok)
	assert.Same(t, repo, got)
	assert.Equal(t, []string{"myRepository"}, r.Names())
	assert.Equal(t, []string{"dummy", "git"}, r.Types())
}

func TestRegistryReservedKeyword(t *testing.T) {
	r := NewRegistry(DummyFactory{})

	for _, keyword := range ReservedKeywords {
		_, err := r.Create(keyword, Config{Type: "dummy"})
		var ipe *InvalidProjectError
		require.ErrorAs(t, err, &ipe, "reserved keyword %q must be rejected", keyword)
		assert.Contains(t, err.Error(), "reserved keyword")
	}
}

func TestRegistryUnknownType(t *testing.T) {
	r := NewRegistry(DummyFactory{})

	_, err := r.Create("int", Config{Type: "svn"})
	var ipe *InvalidProjectError
	require.ErrorAs(t, err, &ipe)
	assert.Contains(t, err.Error(), `unknown type "svn"`)
}

func TestRegistryDuplicateName(t *testing.T) {
	r := NewRegistry(DummyFactory{})

	_, err := r.Create("int", Config{Type: "dummy"})
	require.NoError(t, err)
	_, err = r.Create("int", Config{Type: "dummy"})
	var ipe *InvalidProjectError
	require.ErrorAs(t, err, &ipe)
}

func TestDummyWithoutHistory(t *testing.T) {
	d := NewDummy("int", "internal", "/fixtures")
	ctx := context.Background()

	head, err := d.FindHighestRevision(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, revision.New("1", "int"), head)

	rev, err := d.FindHighestRevision(ctx, "migrated_from")
	require.NoError(t, err)
	assert.Equal(t, revision.New("migrated_from", "int"), rev)

	cb, err := d.Checkout(ctx, rev, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/fixtures", "int", "migrated_from"), cb.Path)
	assert.Equal(t, "internal", cb.ProjectSpace)
	assert.Equal(t, rev, cb.Revision)

	md, err := d.Metadata(ctx, rev)
	require.NoError(t, err)
	assert.Equal(t, "migrated_from", md.ID)
	assert.Empty(t, md.Parents)
}

func TestDummyWithHistory(t *testing.T) {
	d := NewDummy("pub", "", "",
		DummyEntry{ID: "2", Parents: []string{"1"}},
		DummyEntry{ID: "1", Description: "MIGRATED_REVID=5"},
	)
	ctx := context.Background()

	head, err := d.FindHighestRevision(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "2", head.ID)

	_, err = d.FindHighestRevision(ctx, "3")
	require.ErrorIs(t, err, ErrUnresolvableRevision)

	md, err := d.Metadata(ctx, head)
	require.NoError(t, err)
	assert.Equal(t, []revision.Revision{revision.New("1", "pub")}, md.Parents)

	md, err = d.Metadata(ctx, revision.New("1", "pub"))
	require.NoError(t, err)
	assert.Equal(t, "MIGRATED_REVID=5", md.Description)

	cb, err := d.Checkout(ctx, head, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(DummyRoot, "pub", "2"), cb.Path)
}

func commitFiles(t *testing.T, repo *git.Repository, dir string, files map[string]string, msg string, when time.Time) string {
	t.Helper()
	w, err := repo.Worktree()
	require.NoError(t, err)
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		_, err := w.Add(name)
		require.NoError(t, err)
	}
	hash, err := w.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "Dev", Email: "dev@example.com", When: when},
	})
	require.NoError(t, err)
	return hash.String()
}

func TestGitRepository(t *testing.T) {
	src := t.TempDir()
	gr, err := git.PlainInit(src, false)
	require.NoError(t, err)
	when := time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)
	first := commitFiles(t, gr, src, map[string]string{"file": "1"}, "first", when)
	second := commitFiles(t, gr, src, map[string]string{"file": "2", "dir/nested": "n"}, "second\n\nMIGRATED_REVID=7", when.Add(time.Hour))

	scope := fsys.NewScope(t.TempDir())
	t.Cleanup(func() { scope.Close() })
	r := NewRegistry(DefaultFactories(scope)...)
	repo, err := r.Create("pub", Config{Type: "git", URL: src})
	require.NoError(t, err)
	ctx := context.Background()

	head, err := repo.FindHighestRevision(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, revision.New(second, "pub"), head)

	prev, err := repo.FindHighestRevision(ctx, "HEAD~1")
	require.NoError(t, err)
	assert.Equal(t, first, prev.ID)

	byHash, err := repo.FindHighestRevision(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, prev, byHash)

	_, err = repo.FindHighestRevision(ctx, "no-such-ref")
	require.ErrorIs(t, err, ErrUnresolvableRevision)

	md, err := repo.Metadata(ctx, head)
	require.NoError(t, err)
	assert.Equal(t, "Dev <dev@example.com>", md.Author)
	assert.Contains(t, md.Description, "MIGRATED_REVID=7")
	assert.Equal(t, []revision.Revision{revision.New(first, "pub")}, md.Parents)
	assert.True(t, md.Date.Equal(when.Add(time.Hour)))

	cb, err := repo.Checkout(ctx, head, scope)
	require.NoError(t, err)
	assert.Equal(t, head, cb.Revision)
	assert.Equal(t, DefaultProjectSpace, cb.ProjectSpace)
	files, err := fsys.Files(cb.Path)
	require.NoError(t, err)
	assert.Equal(t, []string{"dir/nested", "file"}, files)
	data, err := os.ReadFile(filepath.Join(cb.Path, "file"))
	require.NoError(t, err)
	assert.Equal(t, "2", string(data))

	old, err := repo.Checkout(ctx, prev, scope)
	require.NoError(t, err)
	files, err = fsys.Files(old.Path)
	require.NoError(t, err)
	assert.Equal(t, []string{"file"}, files)
}

func TestGitFactoryNeedsURL(t *testing.T) {
	_, err := GitFactory{Scope: fsys.NewScope(t.TempDir())}.Create("pub", Config{Type: "git"})
	var ipe *InvalidProjectError
	require.ErrorAs(t, err, &ipe)
}
