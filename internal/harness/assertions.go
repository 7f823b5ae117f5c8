package harness

import (
	"fmt"

	"github.com/roach88/reposync/internal/revision"
)

// EvaluateAssertions checks every assertion against result and returns one
// message per failure. Assertions are assumed valid; see validateAssertion.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if msg := evaluate(result, a); msg != "" {
			errs = append(errs, fmt.Sprintf("assertions[%d] (%s): %s", i, a.Type, msg))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) string {
	switch a.Type {
	case AssertEquivalent, AssertNotEquivalent:
		e, err := parseEquivalence(a.Revisions)
		if err != nil {
			return err.Error()
		}
		held := result.Facts.hasEquivalence(e.Canonical().String())
		if a.Type == AssertEquivalent && !held {
			return fmt.Sprintf("%s is not recorded", e)
		}
		if a.Type == AssertNotEquivalent && held {
			return fmt.Sprintf("%s is recorded", e)
		}
	case AssertMigrated:
		from, err := ParseRevision(a.From)
		if err != nil {
			return err.Error()
		}
		to, err := ParseRevision(a.To)
		if err != nil {
			return err.Error()
		}
		m := revision.NewMigration(from, to)
		if !result.Facts.hasMigration(m.String()) {
			return fmt.Sprintf("%s is not recorded", m)
		}
	case AssertFactCount:
		if a.Equivalences != nil && len(result.Facts.Equivalences) != *a.Equivalences {
			return fmt.Sprintf("expected %d equivalences, got %d", *a.Equivalences, len(result.Facts.Equivalences))
		}
		if a.Migrations != nil && len(result.Facts.Migrations) != *a.Migrations {
			return fmt.Sprintf("expected %d migrations, got %d", *a.Migrations, len(result.Facts.Migrations))
		}
	case AssertRunEmpty:
		if a.Run < 1 || a.Run > len(result.Runs) {
			return fmt.Sprintf("no run %d", a.Run)
		}
		r := result.Runs[a.Run-1]
		if len(r.Equivalences) != 0 || len(r.Migrations) != 0 {
			return fmt.Sprintf("run %d added %d equivalences and %d migrations", a.Run, len(r.Equivalences), len(r.Migrations))
		}
	default:
		return fmt.Sprintf("unknown assertion type %q", a.Type)
	}
	return ""
}

func parseEquivalence(revs []string) (revision.Equivalence, error) {
	if len(revs) != 2 {
		return revision.Equivalence{}, fmt.Errorf("expected two revisions, got %d", len(revs))
	}
	r1, err := ParseRevision(revs[0])
	if err != nil {
		return revision.Equivalence{}, err
	}
	r2, err := ParseRevision(revs[1])
	if err != nil {
		return revision.Equivalence{}, err
	}
	return revision.NewEquivalence(r1, r2)
}
