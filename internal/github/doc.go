// Package github matches GitHub pull requests to configured repositories.
//
// A pull request URL names the base repository the request targets; the
// configured repository whose url points at that same GitHub repository is
// the match. Fetching the request itself, to learn the head branch and the
// clone URL it comes from, goes through the GitHub API.
package github
