package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ConfigSummary describes a project configuration that loaded cleanly.
type ConfigSummary struct {
	Name         string   `json:"name"`
	Repositories []string `json:"repositories"`
	Editors      int      `json:"editors"`
	Translators  int      `json:"translators"`
	Migrations   []string `json:"migrations"`
}

// NewCheckConfigCommand creates the check_config command.
func NewCheckConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check_config",
		Short: "Validate a project configuration",
		Long: `Load the project configuration, check it against the schema and for
consistency, and instantiate every repository, editor and translator it
declares. Nothing is checked out.

Example:
  reposync check_config --config project.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckConfig(rootOpts, cmd)
		},
	}
	return cmd
}

func runCheckConfig(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	s, err := openSession(opts, cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := s.Project.Config
	res := ConfigSummary{
		Name:         cfg.Name,
		Repositories: s.Project.Registry.Names(),
		Editors:      len(s.Project.Editors),
		Translators:  len(cfg.Translators),
		Migrations:   []string{},
	}
	for _, m := range s.Project.Migrations() {
		res.Migrations = append(res.Migrations, m.Name)
	}

	return f.Emit(res, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %s: %d repositories, %d editors, %d translators, %d migrations\n",
			res.Name, len(res.Repositories), res.Editors, res.Translators, len(res.Migrations))
	})
}
