// Package resolve evaluates parsed expressions into codebases.
//
// Evaluation looks the repository up by name, resolves the revision option
// to a concrete revision, checks the tree out and runs the expression's
// transform steps over it. Every name and option key is checked before any
// checkout happens, so a bad expression fails without touching a repository.
package resolve
