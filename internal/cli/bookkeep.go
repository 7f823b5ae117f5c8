package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/reposync/internal/bookkeep"
	"github.com/roach88/reposync/internal/differ"
)

// BookkeepOptions holds flags for the bookkeep command.
type BookkeepOptions struct {
	*RootOptions
	Migration string
}

// NewBookkeepCommand creates the bookkeep command.
func NewBookkeepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BookkeepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bookkeep",
		Short: "Record equivalences and completed migrations",
		Long: `Bring the equivalence database up to date for the configured migrations.

For each migration the heads of both repositories are compared after
translating the source into the target's project space; identical heads are
recorded as equivalent. Then the target's history is scanned for revisions
whose description carries MIGRATED_REVID=<source revision>; each is recorded
as a migration, and as an equivalence too when the trees still match.

The database is written once, and only if something new was recorded.

Examples:
  reposync bookkeep --config project.yaml --db equivalences.json
  reposync bookkeep -c project.yaml --db books.db --migration int_to_pub`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBookkeep(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Migration, "migration", "", "bookkeep only the named migration")

	return cmd
}

func runBookkeep(opts *BookkeepOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	f := newFormatter(opts.RootOptions, cmd)

	s, err := openSession(opts.RootOptions, cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	db, err := openDatabase(ctx, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer closeDatabase(db, s.Logger)

	b := bookkeep.New(s.Project, db, differ.NewCodebaseDiffer(differ.NewToolDiffer(s.Project.Runner)))
	if opts.RunIDs != nil {
		b.RunIDs = opts.RunIDs
	}

	var res *bookkeep.Result
	if opts.Migration != "" {
		m, ok := s.Project.Migration(opts.Migration)
		if !ok {
			return f.Fail(ExitCommandError, fmt.Sprintf("unknown migration %q", opts.Migration), nil)
		}
		res, err = b.BookkeepMigration(ctx, m)
	} else {
		res, err = b.Bookkeep(ctx)
	}
	if err != nil {
		return f.Fail(ExitCommandError, "bookkeeping failed", err)
	}

	return f.Emit(res, func(w io.Writer) {
		writeBookkeepText(w, res)
	})
}

func writeBookkeepText(w io.Writer, res *bookkeep.Result) {
	fmt.Fprintf(w, "Run %s\n", res.RunID)
	for _, e := range res.Equivalences {
		fmt.Fprintf(w, "  equivalence %s\n", e)
	}
	for _, m := range res.Migrations {
		fmt.Fprintf(w, "  migration   %s\n", m)
	}
	if res.Empty() {
		fmt.Fprintln(w, "Nothing new.")
		return
	}
	fmt.Fprintf(w, "Recorded %d equivalence(s) and %d migration(s).\n", len(res.Equivalences), len(res.Migrations))
}
