// Package revision provides the value types shared by every reposync
// component: a Revision identifying a point in one repository's history,
// the equivalence and migration facts recorded between two revisions, and
// the descriptive metadata a repository reports for a revision.
//
// This package imports nothing internal. All values are immutable and
// compare structurally, except Equivalence which compares as an unordered
// pair via Equal.
package revision
