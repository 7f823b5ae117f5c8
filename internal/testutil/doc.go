// Package testutil provides deterministic doubles shared by tests across
// reposync packages: a diff runner that compares files in-process, a file
// tree builder, and a fixed run ID generator.
package testutil
