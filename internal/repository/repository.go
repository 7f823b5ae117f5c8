package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/reposync/internal/codebase"
	"github.com/roach88/reposync/internal/fsys"
	"github.com/roach88/reposync/internal/revision"
)

// ErrUnresolvableRevision is returned when no history element matches a
// revision specification.
var ErrUnresolvableRevision = errors.New("unresolvable revision")

// unresolvable wraps ErrUnresolvableRevision with the repository and spec.
func unresolvable(repo, spec string, cause error) error {
	if cause != nil {
		return fmt.Errorf("repository %s: revision %q: %w: %v", repo, spec, ErrUnresolvableRevision, cause)
	}
	return fmt.Errorf("repository %s: revision %q: %w", repo, spec, ErrUnresolvableRevision)
}

// Type is one configured repository.
type Type interface {
	// Name returns the name the repository is configured under.
	Name() string

	// ProjectSpace returns the project space the repository's content is in.
	ProjectSpace() string

	// FindHighestRevision resolves spec to the most recent matching
	// revision. An empty spec means the current head.
	FindHighestRevision(ctx context.Context, spec string) (revision.Revision, error)

	// Metadata describes rev, including its parents.
	Metadata(ctx context.Context, rev revision.Revision) (revision.Metadata, error)

	// Checkout materializes the tree as of rev. Directories it creates
	// belong to scope.
	Checkout(ctx context.Context, rev revision.Revision, scope *fsys.Scope) (codebase.Codebase, error)
}

// Config is the configuration of one repository. Only Type is interpreted
// by the Registry; the remaining fields seed the selected backend.
type Config struct {
	Type         string `json:"type"`
	ProjectSpace string `json:"project_space"`
	URL          string `json:"url,omitempty"`
	Branch       string `json:"branch,omitempty"`
	Root         string `json:"root,omitempty"`
}

// DefaultProjectSpace is used when a repository does not declare one.
const DefaultProjectSpace = "public"

func (c Config) projectSpace() string {
	if c.ProjectSpace == "" {
		return DefaultProjectSpace
	}
	return c.ProjectSpace
}

// Factory builds repositories of one type.
type Factory interface {
	// Type returns the configuration type name the factory serves.
	Type() string

	// Create validates cfg and builds the repository called name.
	Create(name string, cfg Config) (Type, error)
}
