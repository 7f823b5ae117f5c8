package revision

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Domain prefixes for content-addressed fact identity.
// The version suffix leaves room for changing the encoding later.
const (
	DomainEquivalence = "reposync/equivalence/v1"
	DomainMigration   = "reposync/migration/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalPair encodes two revisions as JSON with sorted keys and no HTML
// escaping, so the same pair always hashes the same. Strings are hashed as
// given: IDs agree with field-by-field equality of revisions.
func canonicalPair(first, second string, a, b Revision) ([]byte, error) {
	obj := map[string]map[string]string{
		first:  {"rev_id": a.ID, "repository_name": a.RepositoryName},
		second: {"rev_id": b.ID, "repository_name": b.RepositoryName},
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(obj); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ID returns the content-addressed identity of e. Both orderings of the
// pair produce the same ID.
func (e Equivalence) ID() string {
	c := e.Canonical()
	data, err := canonicalPair("rev1", "rev2", c.Rev1, c.Rev2)
	if err != nil {
		panic(fmt.Sprintf("equivalence id: %v", err))
	}
	return hashWithDomain(DomainEquivalence, data)
}

// ID returns the content-addressed identity of m.
func (m Migration) ID() string {
	data, err := canonicalPair("from_revision", "to_revision", m.From, m.To)
	if err != nil {
		panic(fmt.Sprintf("migration id: %v", err))
	}
	return hashWithDomain(DomainMigration, data)
}
