// Package translate implements the transform steps applied to a codebase
// after checkout.
//
// A Step maps a codebase to a new codebase, possibly in a different project
// space. Editors change content within a project space; a Translator runs a
// fixed sequence of editors and retags the result with its destination
// project space. Steps never modify their input tree: every editor that
// changes content writes into a fresh directory owned by the caller's
// fsys.Scope.
package translate
