package translate

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/reposync/internal/codebase"
	"github.com/roach88/reposync/internal/fsys"
)

// NoTranslatorError is returned when no translator converts From into To.
type NoTranslatorError struct {
	From string
	To   string
}

func (e *NoTranslatorError) Error() string {
	return fmt.Sprintf("no translator from project space %q to %q", e.From, e.To)
}

// Translator converts codebases from one project space into another by
// running its steps in order.
type Translator struct {
	From  string
	To    string
	Steps []NamedStep
}

// NamedStep is a configured editor invocation inside a translator.
type NamedStep struct {
	Name   string
	Editor Editor
}

// Translate runs the translator's steps on in and tags the result with To.
// The input must be in the From project space.
func (t *Translator) Translate(ctx context.Context, in codebase.Codebase, scope *fsys.Scope) (codebase.Codebase, error) {
	if in.ProjectSpace != t.From {
		return codebase.Codebase{}, fmt.Errorf("translator %s->%s given codebase in project space %q", t.From, t.To, in.ProjectSpace)
	}
	steps := make([]Step, len(t.Steps))
	for i, s := range t.Steps {
		steps[i] = EditStep{Editor: s.Editor}
	}
	out, err := Run(ctx, in, scope, steps...)
	if err != nil {
		return codebase.Codebase{}, fmt.Errorf("translate %s->%s: %w", t.From, t.To, err)
	}
	return out.WithPath(out.Path, t.To), nil
}

type spacePair struct{ from, to string }

// Translators indexes translators by their (from, to) project spaces.
type Translators struct {
	byPair map[spacePair]*Translator
}

// NewTranslators returns an empty index.
func NewTranslators() *Translators {
	return &Translators{byPair: map[spacePair]*Translator{}}
}

// Add registers t. A second translator for the same pair is an error.
func (ts *Translators) Add(t *Translator) error {
	key := spacePair{t.From, t.To}
	if _, dup := ts.byPair[key]; dup {
		return fmt.Errorf("duplicate translator from %q to %q", t.From, t.To)
	}
	ts.byPair[key] = t
	return nil
}

// Find returns the translator from one project space to another.
func (ts *Translators) Find(from, to string) (*Translator, bool) {
	if ts == nil {
		return nil, false
	}
	t, ok := ts.byPair[spacePair{from, to}]
	return t, ok
}

// All returns the registered translators ordered by (from, to).
func (ts *Translators) All() []*Translator {
	if ts == nil {
		return nil
	}
	out := make([]*Translator, 0, len(ts.byPair))
	for _, t := range ts.byPair {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}
