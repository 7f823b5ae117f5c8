package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/roach88/reposync/internal/codebase"
	"github.com/roach88/reposync/internal/fsys"
	"github.com/roach88/reposync/internal/revision"
)

// Git is a repository backed by go-git. A URL naming a local directory is
// opened in place; anything else is cloned, bare, into a directory owned by
// the factory's scope the first time the repository is used.
type Git struct {
	name         string
	projectSpace string
	url          string
	branch       string
	scope        *fsys.Scope

	mu   sync.Mutex
	repo *git.Repository
}

// Name implements Type.
func (g *Git) Name() string { return g.name }

// ProjectSpace implements Type.
func (g *Git) ProjectSpace() string { return g.projectSpace }

func (g *Git) open(ctx context.Context) (*git.Repository, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.repo != nil {
		return g.repo, nil
	}

	if info, err := os.Stat(g.url); err == nil && info.IsDir() {
		repo, err := git.PlainOpenWithOptions(g.url, &git.PlainOpenOptions{DetectDotGit: true})
		if err != nil {
			return nil, fmt.Errorf("repository %s: open %s: %w", g.name, g.url, err)
		}
		g.repo = repo
		return repo, nil
	}

	dir, err := g.scope.TempDir("git_clone_" + g.name)
	if err != nil {
		return nil, err
	}
	repo, err := git.PlainCloneContext(ctx, dir, true, &git.CloneOptions{URL: g.url})
	if err != nil {
		return nil, fmt.Errorf("repository %s: clone %s: %w", g.name, g.url, err)
	}
	g.repo = repo
	return repo, nil
}

// head resolves the configured branch, or HEAD when no branch is set.
func (g *Git) head(repo *git.Repository) (*plumbing.Reference, error) {
	if g.branch == "" {
		return repo.Head()
	}
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(g.branch), true)
	if err == nil {
		return ref, nil
	}
	return repo.Reference(plumbing.NewRemoteReferenceName(git.DefaultRemoteName, g.branch), true)
}

// FindHighestRevision implements Type. An empty spec resolves the branch
// head; anything else goes through git revision syntax (hashes, refs,
// HEAD~n).
func (g *Git) FindHighestRevision(ctx context.Context, spec string) (revision.Revision, error) {
	repo, err := g.open(ctx)
	if err != nil {
		return revision.Revision{}, err
	}
	if spec == "" {
		ref, err := g.head(repo)
		if err != nil {
			return revision.Revision{}, unresolvable(g.name, "HEAD", err)
		}
		return revision.New(ref.Hash().String(), g.name), nil
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(spec))
	if err != nil {
		return revision.Revision{}, unresolvable(g.name, spec, err)
	}
	return revision.New(hash.String(), g.name), nil
}

func (g *Git) commit(ctx context.Context, rev revision.Revision) (*object.Commit, error) {
	repo, err := g.open(ctx)
	if err != nil {
		return nil, err
	}
	c, err := repo.CommitObject(plumbing.NewHash(rev.ID))
	if err != nil {
		return nil, unresolvable(g.name, rev.ID, err)
	}
	return c, nil
}

// Metadata implements Type.
func (g *Git) Metadata(ctx context.Context, rev revision.Revision) (revision.Metadata, error) {
	c, err := g.commit(ctx, rev)
	if err != nil {
		return revision.Metadata{}, err
	}
	md := revision.Metadata{
		ID:          c.Hash.String(),
		Author:      fmt.Sprintf("%s <%s>", c.Author.Name, c.Author.Email),
		Date:        c.Author.When,
		Description: c.Message,
	}
	for _, p := range c.ParentHashes {
		md.Parents = append(md.Parents, revision.New(p.String(), g.name))
	}
	return md, nil
}

// Checkout implements Type. Files are written from the commit's tree;
// executable bits and symlinks are preserved.
func (g *Git) Checkout(ctx context.Context, rev revision.Revision, scope *fsys.Scope) (codebase.Codebase, error) {
	c, err := g.commit(ctx, rev)
	if err != nil {
		return codebase.Codebase{}, err
	}
	dir, err := scope.TempDir(fmt.Sprintf("git_export_%s_%s", g.name, shortID(rev.ID)))
	if err != nil {
		return codebase.Codebase{}, err
	}
	files, err := c.Files()
	if err != nil {
		return codebase.Codebase{}, fmt.Errorf("repository %s: list files of %s: %w", g.name, rev.ID, err)
	}
	err = files.ForEach(func(f *object.File) error {
		return writeGitFile(dir, f)
	})
	if err != nil {
		return codebase.Codebase{}, fmt.Errorf("repository %s: export %s: %w", g.name, rev.ID, err)
	}
	return codebase.New(dir, g.projectSpace, rev), nil
}

func writeGitFile(root string, f *object.File) error {
	path := fsys.Join(root, f.Name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if f.Mode == filemode.Symlink {
		target, err := f.Contents()
		if err != nil {
			return err
		}
		return os.Symlink(target, path)
	}
	perm := os.FileMode(0o644)
	if f.Mode == filemode.Executable {
		perm = 0o755
	}
	r, err := f.Reader()
	if err != nil {
		return err
	}
	defer r.Close()
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// GitFactory builds Git repositories for the "git" type. Clones live as
// long as Scope.
type GitFactory struct {
	Scope *fsys.Scope
}

// Type implements Factory.
func (GitFactory) Type() string { return "git" }

// Create implements Factory.
func (f GitFactory) Create(name string, cfg Config) (Type, error) {
	if cfg.URL == "" {
		return nil, InvalidProject("git repository %q needs a url", name)
	}
	if f.Scope == nil {
		return nil, InvalidProject("git repository %q: no scope for clones", name)
	}
	return &Git{
		name:         name,
		projectSpace: cfg.projectSpace(),
		url:          cfg.URL,
		branch:       cfg.Branch,
		scope:        f.Scope,
	}, nil
}

// DefaultFactories returns the factories for every built-in backend.
func DefaultFactories(scope *fsys.Scope) []Factory {
	return []Factory{DummyFactory{}, GitFactory{Scope: scope}}
}
