// Package expression parses codebase expressions.
//
// An expression names a repository, the options used to resolve it, and an
// ordered list of transform steps to apply to the checked-out tree:
//
//	internal(revision=7)
//	internal(revision=7)>public
//	internal()|scrub(level=strict)>public
//	file(path="/tmp/my tree",project_space=internal)
//
// A term is an identifier optionally followed by a parenthesized,
// comma-separated list of key=value options. ">" translates the codebase
// into the named project space; "|" applies the named editor. Values may be
// double-quoted to include separators; quoted values support \" and \\.
//
// Parsing only checks syntax. Whether names and option keys mean anything
// is decided when the expression is evaluated.
package expression
