package harness

import "slices"

// RunRecord is what one bookkeeping pass of a scenario added.
type RunRecord struct {
	RunID        string   `json:"run_id"`
	Equivalences []string `json:"equivalences"`
	Migrations   []string `json:"migrations"`
	Written      bool     `json:"written"`
}

// Facts is the database content after the last pass, in the order the
// database lists it.
type Facts struct {
	Equivalences []string `json:"equivalences"`
	Migrations   []string `json:"migrations"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Runs has one record per bookkeeping pass, in order.
	Runs []RunRecord `json:"runs"`

	// Facts is the final database content.
	Facts Facts `json:"facts"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:  true,
		Runs:  []RunRecord{},
		Facts: Facts{Equivalences: []string{}, Migrations: []string{}},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (f Facts) hasEquivalence(e string) bool {
	return slices.Contains(f.Equivalences, e)
}

func (f Facts) hasMigration(m string) bool {
	return slices.Contains(f.Migrations, m)
}
