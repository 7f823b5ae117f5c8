// Package codebase defines Codebase, a file tree materialized on disk for
// one repository revision in one project space.
package codebase

import (
	"fmt"

	"github.com/roach88/reposync/internal/revision"
)

// Codebase is a materialized file tree rooted at Path.
//
// ProjectSpace names the variant of the content the tree currently holds
// (for example "internal" or "public"); translation changes it. Revision is
// the revision the tree was checked out from, and is zero for trees that do
// not come from a repository. Expression is the text that produced the
// codebase, kept for reporting.
//
// The directory at Path is owned by whichever operation created the
// Codebase and lives no longer than that operation's fsys.Scope.
type Codebase struct {
	Path         string
	ProjectSpace string
	Revision     revision.Revision
	Expression   string
}

// New returns a Codebase rooted at path.
func New(path, projectSpace string, rev revision.Revision) Codebase {
	return Codebase{Path: path, ProjectSpace: projectSpace, Revision: rev}
}

// WithPath returns a copy of c rooted at path in projectSpace.
func (c Codebase) WithPath(path, projectSpace string) Codebase {
	c.Path = path
	c.ProjectSpace = projectSpace
	return c
}

// WithExpression returns a copy of c that records the expression text.
func (c Codebase) WithExpression(expr string) Codebase {
	c.Expression = expr
	return c
}

// String describes c by its expression when known, otherwise by its path.
func (c Codebase) String() string {
	if c.Expression != "" {
		return c.Expression
	}
	return fmt.Sprintf("%s (%s)", c.Path, c.ProjectSpace)
}
