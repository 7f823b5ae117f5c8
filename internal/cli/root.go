package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/reposync/internal/bookkeep"
	"github.com/roach88/reposync/internal/cmdrun"
	"github.com/roach88/reposync/internal/repository"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Config   string // project configuration file
	Database string // equivalence database file

	// Runner and Factories override how commands run external tools and
	// build repositories. Nil means the defaults; tests set them.
	Runner    cmdrun.Runner
	Factories []repository.Factory

	// RunIDs overrides the bookkeeping run ID generator (for testing).
	// If nil, defaults to bookkeep.UUIDv7Generator.
	RunIDs bookkeep.RunIDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the reposync CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reposync",
		Short: "Track equivalences and migrations between synchronized repositories",
		Long: `reposync keeps the books for repositories that are kept in sync by
migrating changes between them. It records which revisions hold the same
content (equivalences) and which revisions were produced from which
(migrations), so the next sync knows where to start.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "project configuration file (CUE, JSON or YAML)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "equivalence database (.json, or .db for SQLite)")

	cmd.AddCommand(NewBookkeepCommand(opts))
	cmd.AddCommand(NewNoteEquivalenceCommand(opts))
	cmd.AddCommand(NewFindEquivalencesCommand(opts))
	cmd.AddCommand(NewDiffCodebasesCommand(opts))
	cmd.AddCommand(NewDescribeRevisionCommand(opts))
	cmd.AddCommand(NewCheckConfigCommand(opts))
	cmd.AddCommand(NewMatchPullCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
