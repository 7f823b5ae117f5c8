package revision

import (
	"errors"
	"fmt"
)

// ErrSameRepository is returned when an equivalence would pair two revisions
// of one repository.
var ErrSameRepository = errors.New("equivalent revisions must belong to different repositories")

// Equivalence asserts that two revisions of two different repositories
// represent the same logical content. It is an unordered pair: use Equal,
// not ==, to compare two equivalences.
type Equivalence struct {
	Rev1 Revision `json:"rev1"`
	Rev2 Revision `json:"rev2"`
}

// NewEquivalence pairs a and b. It fails with ErrSameRepository when both
// revisions come from the same repository.
func NewEquivalence(a, b Revision) (Equivalence, error) {
	if a.RepositoryName == b.RepositoryName {
		return Equivalence{}, fmt.Errorf("equivalence %s == %s: %w", a, b, ErrSameRepository)
	}
	return Equivalence{Rev1: a, Rev2: b}, nil
}

// MustEquivalence is like NewEquivalence but panics on error.
func MustEquivalence(a, b Revision) Equivalence {
	e, err := NewEquivalence(a, b)
	if err != nil {
		panic(err)
	}
	return e
}

// HasRevision reports whether r is one side of e.
func (e Equivalence) HasRevision(r Revision) bool {
	return e.Rev1 == r || e.Rev2 == r
}

// Get returns the revision paired with r. The boolean is false when r is
// not a member of e.
func (e Equivalence) Get(r Revision) (Revision, bool) {
	switch r {
	case e.Rev1:
		return e.Rev2, true
	case e.Rev2:
		return e.Rev1, true
	}
	return Revision{}, false
}

// Equal reports whether e and o pair the same two revisions, in either order.
func (e Equivalence) Equal(o Equivalence) bool {
	return (e.Rev1 == o.Rev1 && e.Rev2 == o.Rev2) || (e.Rev1 == o.Rev2 && e.Rev2 == o.Rev1)
}

// Canonical returns e with its sides ordered by repository name, then id.
func (e Equivalence) Canonical() Equivalence {
	if less(e.Rev2, e.Rev1) {
		return Equivalence{Rev1: e.Rev2, Rev2: e.Rev1}
	}
	return e
}

// String formats e as a == b.
func (e Equivalence) String() string {
	return fmt.Sprintf("%s == %s", e.Rev1, e.Rev2)
}

func less(a, b Revision) bool {
	if a.RepositoryName != b.RepositoryName {
		return a.RepositoryName < b.RepositoryName
	}
	return a.ID < b.ID
}
