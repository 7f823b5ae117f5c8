package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reposync/internal/github"
)

const pullConfig = `
name: widgets
repositories:
  internal:
    type: git
    project_space: internal
    url: https://git.example.com/widgets.git
  public:
    type: git
    url: git@github.com:acme/widgets.git
  docs:
    type: git
    url: https://github.com/acme/docs
`

func writePullConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte(pullConfig), 0o644))
	return path
}

func TestMatchPull(t *testing.T) {
	config := writePullConfig(t)

	out, err := executeWith(t, &RootOptions{}, "--config", config, "match_pull", "https://github.com/Acme/Widgets/pull/42")
	require.NoError(t, err)
	assert.Equal(t, "Acme/Widgets#42 -> public\n", out)
}

func TestMatchPullNoMatch(t *testing.T) {
	config := writePullConfig(t)

	out, err := executeWith(t, &RootOptions{}, "--config", config, "match_pull", "https://github.com/acme/gadgets/pull/1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "no configured repository has a url for github.com/acme/gadgets")
}

func TestMatchPullInvalidURL(t *testing.T) {
	config := writePullConfig(t)

	_, err := executeWith(t, &RootOptions{}, "--config", config, "match_pull", "https://github.com/acme/widgets/issues/3")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestMatchPullFetch(t *testing.T) {
	config := writePullConfig(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/pulls/42", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer t0ken", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"number": 42,
			"title": "Add sprockets",
			"state": "open",
			"head": {"ref": "sprockets", "repo": {"clone_url": "https://github.com/fork/widgets.git"}}
		}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	out, err := executeWith(t, &RootOptions{},
		"--format", "json", "--config", config,
		"match_pull", "--fetch", "--token", "t0ken", "--api-url", server.URL,
		"https://github.com/acme/widgets/pull/42")
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   MatchPullResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	pr := github.PullRequest{Owner: "acme", Repo: "widgets", Number: 42}
	assert.Equal(t, MatchPullResult{
		PullRequest: pr,
		Repository:  "public",
		Info: &github.PullRequestInfo{
			PullRequest: pr,
			Title:       "Add sprockets",
			Branch:      "sprockets",
			CloneURL:    "https://github.com/fork/widgets.git",
			State:       "open",
		},
	}, resp.Data)
}

func TestMatchPullFetchNotFound(t *testing.T) {
	config := writePullConfig(t)

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	out, err := executeWith(t, &RootOptions{},
		"--format", "json", "--config", config,
		"match_pull", "--fetch", "--token", "", "--api-url", server.URL,
		"https://github.com/acme/widgets/pull/42")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeGitHub, resp.Error.Code)
}
