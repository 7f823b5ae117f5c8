package testutil

// FixedRunID returns the same run ID every time, so logs and golden output
// of a bookkeeping run are reproducible.
//
// Thread-safety: FixedRunID is stateless and safe for concurrent use.
type FixedRunID struct {
	id string
}

// NewFixedRunID returns a generator for id. An empty id yields
// "test-run-default".
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed ID.
func (g *FixedRunID) Generate() string {
	return g.id
}
