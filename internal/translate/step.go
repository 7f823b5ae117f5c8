package translate

import (
	"context"
	"fmt"

	"github.com/roach88/reposync/internal/codebase"
	"github.com/roach88/reposync/internal/fsys"
)

// Step is one element of a transform pipeline.
type Step interface {
	// Describe names the step for error messages and logs.
	Describe() string

	// Apply transforms in. Directories it creates belong to scope.
	Apply(ctx context.Context, in codebase.Codebase, scope *fsys.Scope) (codebase.Codebase, error)
}

// Run applies steps to in from left to right, threading the codebase and its
// project space through each. With no steps it returns in unchanged.
func Run(ctx context.Context, in codebase.Codebase, scope *fsys.Scope, steps ...Step) (codebase.Codebase, error) {
	cur := in
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return codebase.Codebase{}, err
		}
		next, err := s.Apply(ctx, cur, scope)
		if err != nil {
			return codebase.Codebase{}, fmt.Errorf("%s: %w", s.Describe(), err)
		}
		cur = next
	}
	return cur, nil
}

// EditStep applies Editor with Options.
type EditStep struct {
	Editor  Editor
	Options map[string]string
}

// Describe implements Step.
func (s EditStep) Describe() string { return "edit " + s.Editor.Name() }

// Apply implements Step. The project space is unchanged.
func (s EditStep) Apply(ctx context.Context, in codebase.Codebase, scope *fsys.Scope) (codebase.Codebase, error) {
	out, err := s.Editor.Edit(ctx, in, scope, s.Options)
	if err != nil {
		return codebase.Codebase{}, err
	}
	return out.WithPath(out.Path, in.ProjectSpace), nil
}

// TranslateStep translates the codebase into To using the translator
// registered for its current project space.
type TranslateStep struct {
	Translators *Translators
	To          string
}

// Describe implements Step.
func (s TranslateStep) Describe() string { return "translate to " + s.To }

// Apply implements Step.
func (s TranslateStep) Apply(ctx context.Context, in codebase.Codebase, scope *fsys.Scope) (codebase.Codebase, error) {
	if in.ProjectSpace == s.To {
		return in, nil
	}
	t, ok := s.Translators.Find(in.ProjectSpace, s.To)
	if !ok {
		return codebase.Codebase{}, &NoTranslatorError{From: in.ProjectSpace, To: s.To}
	}
	return t.Translate(ctx, in, scope)
}
