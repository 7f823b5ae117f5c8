package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/reposync/internal/expression"
	"github.com/roach88/reposync/internal/revision"
)

// DescribeRevisionOptions holds flags for the describe_revision command.
type DescribeRevisionOptions struct {
	*RootOptions
	LogFormat string
}

// RevisionDescription is the JSON form of revision metadata.
type RevisionDescription struct {
	Revision    revision.Revision   `json:"revision"`
	Author      string              `json:"author"`
	Date        string              `json:"date"`
	Description string              `json:"description"`
	Parents     []revision.Revision `json:"parents"`
}

// NewDescribeRevisionCommand creates the describe_revision command.
func NewDescribeRevisionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DescribeRevisionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "describe_revision <expression>",
		Short: "Show the metadata of a revision",
		Long: `Resolve the expression to a revision (the head when it names none) and
print its author, date, parents and description.

--log-format replaces the description with a template in which {id},
{author}, {date}, {description} and {parents} are substituted.

Example:
  reposync describe_revision -c project.yaml 'internal(revision=42)' \
    --log-format '{description}

Migrated from {id} by {author} on {date}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribeRevision(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.LogFormat, "log-format", "", "template for the description")

	return cmd
}

func runDescribeRevision(opts *DescribeRevisionOptions, text string, cmd *cobra.Command) error {
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

	repo, rev, err := s.Engine.ResolveRevision(ctx, expr)
	if err != nil {
		return f.Fail(ExitCommandError, fmt.Sprintf("cannot resolve %s", expr), err)
	}
	md, err := repo.Metadata(ctx, rev)
	if err != nil {
		return f.Fail(ExitCommandError, fmt.Sprintf("cannot read metadata of %s", rev), err)
	}
	if opts.LogFormat != "" {
		md = revision.FormatDescription(md, opts.LogFormat)
	}

	res := RevisionDescription{
		Revision:    rev,
		Author:      md.Author,
		Date:        md.Date.Format(revision.DateFormat),
		Description: md.Description,
		Parents:     md.Parents,
	}
	if res.Parents == nil {
		res.Parents = []revision.Revision{}
	}

	return f.Emit(res, func(w io.Writer) {
		fmt.Fprintf(w, "revision %s\n", res.Revision)
		fmt.Fprintf(w, "Author:  %s\n", res.Author)
		fmt.Fprintf(w, "Date:    %s\n", res.Date)
		if len(res.Parents) > 0 {
			ids := make([]string, len(res.Parents))
			for i, p := range res.Parents {
				ids[i] = p.ID
			}
			fmt.Fprintf(w, "Parents: %s\n", strings.Join(ids, ", "))
		}
		fmt.Fprintln(w)
		for _, line := range strings.Split(strings.TrimRight(res.Description, "\n"), "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	})
}
