// Package differ decides whether two materialized codebases hold the same
// content.
//
// Comparison happens at two levels. A FileDiffer classifies one relative
// path: a file present on only one side is a structural difference decided
// from existence alone; a file present on both sides is handed to an
// external diff tool, whose nonzero exit means the contents differ. A
// CodebaseDiffer runs the file-level comparison over the union of both trees
// and aggregates the results.
//
// Existence is always checked before content so that an empty file and a
// missing file, which many diff tools treat alike, are still reported as
// different.
package differ
