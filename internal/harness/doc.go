// Package harness runs bookkeeping scenarios described in YAML.
//
// # Scenario Format
//
//	name: heads_equivalent
//	description: "Heads with identical trees become equivalent"
//	repositories:
//	  int:
//	    project_space: internal
//	    history:
//	      - id: "1"
//	        parents: [migrated_from]
//	      - id: migrated_from
//	    trees:
//	      "1": { file: "1" }
//	  pub:
//	    trees:
//	      "1": { file: "1" }
//	translators:
//	  - { from: internal, to: public }
//	migrations:
//	  - { name: int_to_pub, from: int, to: pub }
//	runs: 2
//	assertions:
//	  - type: equivalent
//	    revisions: ["int{1}", "pub{1}"]
//	  - type: run_empty
//	    run: 2
//
// Every repository is a dummy repository whose revisions are directories
// below a shared tree root. The history is listed head first; a revision
// whose description carries MIGRATED_REVID=<id> marks a migration.
// Translators are identity translations.
//
// # Assertion Types
//
//   - equivalent: two revisions are recorded as equivalent
//   - not_equivalent: two revisions are not recorded as equivalent
//   - migrated: a migration from one revision to another is recorded
//   - fact_count: the database holds exactly N equivalences and/or migrations
//   - run_empty: the given run added nothing
//
// # Deterministic Testing
//
// Run IDs are fixed (run-1, run-2, ...) and file contents are compared in
// process, so the runs and final facts can be compared against golden
// files with RunWithGolden.
//
// The database is reopened from its file before each run. A database name
// ending in .db uses the SQLite backend.
package harness
