package revision

import "fmt"

// Migration records that content was transformed from From and committed
// as To. Unlike Equivalence it is ordered and makes no claim that the two
// revisions hold the same content.
type Migration struct {
	From Revision `json:"from_revision"`
	To   Revision `json:"to_revision"`
}

// NewMigration returns the migration from -> to.
func NewMigration(from, to Revision) Migration {
	return Migration{From: from, To: to}
}

// String formats m as from -> to.
func (m Migration) String() string {
	return fmt.Sprintf("%s -> %s", m.From, m.To)
}
