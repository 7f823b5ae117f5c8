// Package bookkeep records what the synchronized repositories already agree
// on.
//
// For every configured migration pairing a Bookkeeper runs two checks. The
// head check compares the current heads of both repositories, translating
// the source head into the target's project space first, and notes an
// equivalence when they match. Migration promotion asks a MigrationFinder
// for submitted migrations the database does not know yet, notes each one,
// and notes it as an equivalence as well when the two trees match.
//
// Both checks only add facts, so running bookkeeping again is harmless. The
// database is written once at the end, and only if something was added. Any
// failure aborts the run before the write.
package bookkeep
