package revision

import "fmt"

// Revision identifies a point in the history of a named repository.
// The ID is opaque to everything except the repository that produced it.
type Revision struct {
	ID             string `json:"rev_id"`
	RepositoryName string `json:"repository_name"`
}

// New returns the revision id of repository repositoryName.
func New(id, repositoryName string) Revision {
	return Revision{ID: id, RepositoryName: repositoryName}
}

// IsZero reports whether r is the zero Revision.
func (r Revision) IsZero() bool {
	return r.ID == "" && r.RepositoryName == ""
}

// String formats r as repository{id}.
func (r Revision) String() string {
	return fmt.Sprintf("%s{%s}", r.RepositoryName, r.ID)
}
