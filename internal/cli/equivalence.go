package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/reposync/internal/expression"
	"github.com/roach88/reposync/internal/resolve"
	"github.com/roach88/reposync/internal/revision"
)

// NoteEquivalenceResult is the outcome of note_equivalence.
type NoteEquivalenceResult struct {
	Equivalence revision.Equivalence `json:"equivalence"`
	Noted       bool                 `json:"noted"` // false if it was already recorded
}

// NewNoteEquivalenceCommand creates the note_equivalence command.
func NewNoteEquivalenceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note_equivalence <expression> <expression>",
		Short: "Record that two revisions hold the same content",
		Long: `Record an equivalence between two revisions of different repositories
without comparing them. Both expressions must name a revision.

Example:
  reposync note_equivalence -c project.yaml --db books.json \
    'internal(revision=1a2b3c)' 'public(revision=4d5e6f)'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNoteEquivalence(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runNoteEquivalence(opts *RootOptions, text1, text2 string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	f := newFormatter(opts, cmd)

	exprs := make([]*expression.Expression, 2)
	for i, text := range []string{text1, text2} {
		expr, err := expression.Parse(text)
		if err != nil {
			return f.Fail(ExitCommandError, "invalid expression", err)
		}
		if _, ok := expr.Option(resolve.RevisionOption); !ok {
			return f.Fail(ExitCommandError, fmt.Sprintf("expression %s must name a revision", expr), nil)
		}
		exprs[i] = expr
	}

	s, err := openSession(opts, cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	revs := make([]revision.Revision, 2)
	for i, expr := range exprs {
		_, rev, err := s.Engine.ResolveRevision(ctx, expr)
		if err != nil {
			return f.Fail(ExitCommandError, fmt.Sprintf("cannot resolve %s", expr), err)
		}
		revs[i] = rev
	}
	e, err := revision.NewEquivalence(revs[0], revs[1])
	if err != nil {
		return f.Fail(ExitCommandError, "invalid equivalence", err)
	}

	db, err := openDatabase(ctx, opts, f)
	if err != nil {
		return err
	}
	defer closeDatabase(db, s.Logger)

	res := NoteEquivalenceResult{Equivalence: e, Noted: db.NoteEquivalence(e)}
	if db.Changed() {
		if err := db.Write(ctx); err != nil {
			return f.Fail(ExitCommandError, "failed to write database", err)
		}
		s.Logger.Info("noted equivalence", "rev1", e.Rev1.String(), "rev2", e.Rev2.String())
	}

	return f.Emit(res, func(w io.Writer) {
		if res.Noted {
			fmt.Fprintf(w, "Noted %s\n", e)
			return
		}
		fmt.Fprintf(w, "Already noted: %s\n", e)
	})
}

// FindEquivalencesOptions holds flags for the find_equivalences command.
type FindEquivalencesOptions struct {
	*RootOptions
	With string
}

// FindEquivalencesResult is the outcome of find_equivalences.
type FindEquivalencesResult struct {
	Revision    revision.Revision   `json:"revision"`
	Repository  string              `json:"repository"`
	Equivalents []revision.Revision `json:"equivalents"`
}

// NewFindEquivalencesCommand creates the find_equivalences command.
func NewFindEquivalencesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FindEquivalencesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "find_equivalences <expression>",
		Short: "List the recorded equivalents of a revision in another repository",
		Long: `Resolve the expression to a revision (the head when it names none) and
list the revisions of the --with repository recorded as equivalent to it.

Exit codes:
  0 - At least one equivalent found
  1 - None found
  2 - Command error

Example:
  reposync find_equivalences -c project.yaml --db books.json internal --with public`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFindEquivalences(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.With, "with", "", "repository to find equivalents in (required)")
	_ = cmd.MarkFlagRequired("with")

	return cmd
}

func runFindEquivalences(opts *FindEquivalencesOptions, text string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	f := newFormatter(opts.RootOptions, cmd)

	expr, err := expression.Parse(text)
	if err != nil {
		return f.Fail(ExitCommandError, "invalid expression", err)
	}

	s, err := openSession(opts.RootOptions, cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, ok := s.Project.Repository(opts.With); !ok {
		return f.Fail(ExitCommandError, fmt.Sprintf("unknown repository %q", opts.With), nil)
	}
	_, rev, err := s.Engine.ResolveRevision(ctx, expr)
	if err != nil {
		return f.Fail(ExitCommandError, fmt.Sprintf("cannot resolve %s", expr), err)
	}

	db, err := openDatabase(ctx, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer closeDatabase(db, s.Logger)

	res := FindEquivalencesResult{
		Revision:    rev,
		Repository:  opts.With,
		Equivalents: db.FindEquivalences(rev, opts.With),
	}
	if res.Equivalents == nil {
		res.Equivalents = []revision.Revision{}
	}

	if err := f.Emit(res, func(w io.Writer) {
		if len(res.Equivalents) == 0 {
			fmt.Fprintf(w, "No revision of %s is recorded as equivalent to %s\n", opts.With, rev)
			return
		}
		for _, r := range res.Equivalents {
			fmt.Fprintln(w, r)
		}
	}); err != nil {
		return err
	}
	if len(res.Equivalents) == 0 {
		return reportedExit(ExitFailure, "no equivalents found")
	}
	return nil
}
