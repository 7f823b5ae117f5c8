package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v48/github"
	"golang.org/x/oauth2"
)

// PullRequestInfo is what a fetched pull request tells about its head.
type PullRequestInfo struct {
	PullRequest
	Title    string `json:"title"`
	Branch   string `json:"branch"`
	CloneURL string `json:"clone_url"`
	State    string `json:"state"`
}

// Fetcher reads pull request metadata from GitHub.
type Fetcher interface {
	Fetch(ctx context.Context, pr PullRequest) (PullRequestInfo, error)
}

// APIFetcher fetches pull requests through the GitHub REST API.
type APIFetcher struct {
	client *gh.Client
}

// NewAPIFetcher returns a Fetcher authenticating with token, or
// anonymously when token is empty. A non-empty baseURL replaces the public
// API endpoint.
func NewAPIFetcher(ctx context.Context, token, baseURL string) (*APIFetcher, error) {
	httpClient := &http.Client{}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, ts)
	}
	client := gh.NewClient(httpClient)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("github api url %q: %w", baseURL, err)
		}
		client.BaseURL = u
	}
	return &APIFetcher{client: client}, nil
}

// Fetch implements Fetcher.
func (f *APIFetcher) Fetch(ctx context.Context, pr PullRequest) (PullRequestInfo, error) {
	p, _, err := f.client.PullRequests.Get(ctx, pr.Owner, pr.Repo, pr.Number)
	if err != nil {
		return PullRequestInfo{}, fmt.Errorf("fetch pull request %s: %w", pr, err)
	}
	head := p.GetHead()
	return PullRequestInfo{
		PullRequest: pr,
		Title:       p.GetTitle(),
		Branch:      head.GetRef(),
		CloneURL:    head.GetRepo().GetCloneURL(),
		State:       p.GetState(),
	}, nil
}
