package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/reposync/internal/github"
)

// MatchPullOptions holds flags for the match_pull command.
type MatchPullOptions struct {
	*RootOptions
	Fetch  bool
	Token  string
	APIURL string
}

// MatchPullResult is the outcome of match_pull.
type MatchPullResult struct {
	PullRequest github.PullRequest      `json:"pull_request"`
	Repository  string                  `json:"repository"`
	Info        *github.PullRequestInfo `json:"info,omitempty"`
}

// NewMatchPullCommand creates the match_pull command.
func NewMatchPullCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatchPullOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "match_pull <pull-request-url>",
		Short: "Find the configured repository a GitHub pull request belongs to",
		Long: `Parse a GitHub pull request URL and find the single configured repository
whose url points at the same GitHub repository.

With --fetch the pull request is also looked up through the GitHub API to
report its title, state and head branch. The token defaults to $GITHUB_TOKEN.

Example:
  reposync match_pull -c project.yaml https://github.com/acme/widgets/pull/42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatchPull(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Fetch, "fetch", false, "look the pull request up through the GitHub API")
	cmd.Flags().StringVar(&opts.Token, "token", os.Getenv("GITHUB_TOKEN"), "GitHub API token")
	cmd.Flags().StringVar(&opts.APIURL, "api-url", "", "GitHub API base URL (for GitHub Enterprise)")

	return cmd
}

func runMatchPull(opts *MatchPullOptions, rawURL string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	f := newFormatter(opts.RootOptions, cmd)

	pr, err := github.ParsePullRequestURL(rawURL)
	if err != nil {
		return f.Fail(ExitCommandError, "invalid pull request url", err)
	}

	cfg, err := loadConfig(opts.RootOptions, f)
	if err != nil {
		return err
	}
	name, err := github.FindRepository(cfg.Repositories, pr)
	if err != nil {
		return f.Fail(ExitFailure, "no matching repository", err)
	}
	res := MatchPullResult{PullRequest: pr, Repository: name}

	if opts.Fetch {
		fetcher, err := github.NewAPIFetcher(ctx, opts.Token, opts.APIURL)
		if err != nil {
			return f.Fail(ExitCommandError, "cannot build GitHub client", err)
		}
		info, err := fetcher.Fetch(ctx, pr)
		if err != nil {
			return f.Fail(ExitCommandError, "cannot fetch pull request", err)
		}
		res.Info = &info
	}

	return f.Emit(res, func(w io.Writer) {
		fmt.Fprintf(w, "%s -> %s\n", pr, res.Repository)
		if res.Info != nil {
			fmt.Fprintf(w, "  %s (%s)\n", res.Info.Title, res.Info.State)
			fmt.Fprintf(w, "  branch %s of %s\n", res.Info.Branch, res.Info.CloneURL)
		}
	})
}
