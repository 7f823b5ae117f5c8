package github

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/reposync/internal/repository"
)

// repositoryURLPattern matches GitHub repository URLs in https, ssh and
// scp-like forms, capturing owner and repository name.
var repositoryURLPattern = regexp.MustCompile(`^.*github\.com[:/]([a-zA-Z0-9_.-]+)/([a-zA-Z0-9_.-]+?)(?:\.git)?/?$`)

// PullRequest identifies one pull request.
type PullRequest struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Number int    `json:"number"`
}

// String formats pr as owner/repo#number.
func (pr PullRequest) String() string {
	return fmt.Sprintf("%s/%s#%d", pr.Owner, pr.Repo, pr.Number)
}

// ParsePullRequestURL parses https://github.com/<owner>/<repo>/pull/<n>,
// ignoring any trailing path (such as /files), query or fragment.
func ParsePullRequestURL(raw string) (PullRequest, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return PullRequest{}, fmt.Errorf("parse pull request url %q: %w", raw, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return PullRequest{}, fmt.Errorf("pull request url %q: want an http(s) url", raw)
	}
	if !strings.EqualFold(u.Host, "github.com") && !strings.EqualFold(u.Host, "www.github.com") {
		return PullRequest{}, fmt.Errorf("pull request url %q: not a github.com url", raw)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 4 || parts[2] != "pull" || parts[0] == "" || parts[1] == "" {
		return PullRequest{}, fmt.Errorf("pull request url %q: want https://github.com/<owner>/<repo>/pull/<number>", raw)
	}
	n, err := strconv.Atoi(parts[3])
	if err != nil || n <= 0 {
		return PullRequest{}, fmt.Errorf("pull request url %q: bad pull request number %q", raw, parts[3])
	}
	return PullRequest{Owner: parts[0], Repo: parts[1], Number: n}, nil
}

// ParseRepositoryURL returns the owner and name of the GitHub repository
// at raw.
func ParseRepositoryURL(raw string) (owner, repo string, ok bool) {
	m := repositoryURLPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// IsRepositoryURL reports whether raw points at GitHub repository
// owner/repo. Owner and repository names compare case-insensitively, as
// GitHub treats them.
func IsRepositoryURL(raw, owner, repo string) bool {
	o, r, ok := ParseRepositoryURL(raw)
	return ok && strings.EqualFold(o, owner) && strings.EqualFold(r, repo)
}

// FindRepository returns the name of the single configured repository
// whose url points at the pull request's base repository.
func FindRepository(repos map[string]repository.Config, pr PullRequest) (string, error) {
	var matches []string
	for name, cfg := range repos {
		if cfg.URL != "" && IsRepositoryURL(cfg.URL, pr.Owner, pr.Repo) {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no configured repository has a url for github.com/%s/%s", pr.Owner, pr.Repo)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("repositories %s all have urls for github.com/%s/%s", strings.Join(matches, ", "), pr.Owner, pr.Repo)
	}
}
