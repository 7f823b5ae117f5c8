package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/reposync/internal/revision"
)

// document is the JSON form of a database. Field names are part of the
// on-disk format and must not change.
type document struct {
	Equivalences []revision.Equivalence `json:"equivalences"`
	Migrations   []revision.Migration   `json:"migrations"`
}

// marshalDocument encodes s with facts in sorted order, two-space
// indentation, no HTML escaping and a trailing newline.
func marshalDocument(s *Storage) ([]byte, error) {
	doc := document{Equivalences: s.Equivalences(), Migrations: s.Migrations()}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("marshal database: %w", err)
	}
	return buf.Bytes(), nil
}

// unmarshalDocument decodes data into a fresh Storage. Whitespace-only data
// is an empty database. Unknown fields and malformed facts are errors.
func unmarshalDocument(data []byte) (*Storage, error) {
	s := NewStorage()
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("unmarshal database: %w", err)
	}
	if err := s.add(doc.Equivalences, doc.Migrations); err != nil {
		return nil, err
	}
	s.markWritten()
	return s, nil
}

// add validates and inserts loaded facts.
func (s *Storage) add(equivalences []revision.Equivalence, migrations []revision.Migration) error {
	for i, e := range equivalences {
		if err := checkRevision(e.Rev1); err != nil {
			return fmt.Errorf("equivalence %d: %w", i, err)
		}
		if err := checkRevision(e.Rev2); err != nil {
			return fmt.Errorf("equivalence %d: %w", i, err)
		}
		if _, err := revision.NewEquivalence(e.Rev1, e.Rev2); err != nil {
			return fmt.Errorf("equivalence %d: %w", i, err)
		}
		s.NoteEquivalence(e)
	}
	for i, m := range migrations {
		if err := checkRevision(m.From); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
		if err := checkRevision(m.To); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
		s.NoteMigration(m)
	}
	return nil
}

func checkRevision(r revision.Revision) error {
	if r.ID == "" || r.RepositoryName == "" {
		return fmt.Errorf("revision %s must have both rev_id and repository_name", r)
	}
	return nil
}
