package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/reposync/internal/differ"
)

// DiffCodebasesOptions holds flags for the diff_codebases command.
type DiffCodebasesOptions struct {
	*RootOptions
	Content bool
}

// DiffCodebasesResult is the JSON form of a codebase comparison.
type DiffCodebasesResult struct {
	Codebase1 string   `json:"codebase1"`
	Codebase2 string   `json:"codebase2"`
	Different bool     `json:"different"`
	OnlyIn1   []string `json:"only_in_1"`
	OnlyIn2   []string `json:"only_in_2"`
	Changed   []string `json:"changed"`
}

// NewDiffCodebasesCommand creates the diff_codebases command.
func NewDiffCodebasesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffCodebasesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff_codebases <expression> <expression>",
		Short: "Compare the trees two expressions produce",
		Long: `Build both codebases, applying any translations and edits, and report the
files that exist on one side only or differ in content or executable bit.

Exit codes:
  0 - Codebases are identical
  1 - Codebases differ
  2 - Command error

Examples:
  reposync diff_codebases -c project.yaml 'internal(revision=42)>public' public
  reposync diff_codebases -c project.yaml --content 'file(path=./out)' public`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiffCodebases(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Content, "content", false, "include the content diff of changed files")

	return cmd
}

func runDiffCodebases(opts *DiffCodebasesOptions, text1, text2 string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	f := newFormatter(opts.RootOptions, cmd)

	s, err := openSession(opts.RootOptions, cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	c1, err := s.Engine.CreateFromText(ctx, text1)
	if err != nil {
		return f.Fail(ExitCommandError, "cannot create first codebase", err)
	}
	c2, err := s.Engine.CreateFromText(ctx, text2)
	if err != nil {
		return f.Fail(ExitCommandError, "cannot create second codebase", err)
	}
	f.VerboseLog("Comparing %s with %s", c1.Path, c2.Path)

	d := differ.NewCodebaseDiffer(differ.NewToolDiffer(s.Project.Runner))
	diff, err := d.Diff(ctx, c1, c2)
	if err != nil {
		return f.Fail(ExitCommandError, "comparison failed", err)
	}

	res := DiffCodebasesResult{
		Codebase1: c1.String(),
		Codebase2: c2.String(),
		Different: diff.AreDifferent(),
		OnlyIn1:   nonNil(diff.OnlyIn1()),
		OnlyIn2:   nonNil(diff.OnlyIn2()),
		Changed:   nonNil(diff.Changed()),
	}
	var reportErr error
	if err := f.Emit(res, func(w io.Writer) {
		reportErr = diff.WriteReport(w, opts.Content)
	}); err != nil {
		return err
	}
	if reportErr != nil {
		return reportErr
	}
	if res.Different {
		return reportedExit(ExitFailure, "codebases differ")
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
