// Package project loads project configuration and builds the Context the
// directives run against.
//
// A configuration names the repositories to track, the editors available to
// expressions and translators, the translators between project spaces, and
// the migration pairings bookkeeping walks. It may be written as JSON, CUE
// or YAML; every format is checked against the embedded CUE schema in
// schema.cue, which also supplies defaults.
package project
