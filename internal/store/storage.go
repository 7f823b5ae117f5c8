package store

import (
	"context"
	"sort"

	"github.com/roach88/reposync/internal/revision"
)

// Db is an equivalence and migration database.
type Db interface {
	// NoteEquivalence records e and reports whether it was new.
	NoteEquivalence(e revision.Equivalence) bool

	// NoteMigration records m and reports whether it was new.
	NoteMigration(m revision.Migration) bool

	// FindEquivalences returns the revisions of otherRepository known to be
	// equivalent to rev, sorted by id.
	FindEquivalences(rev revision.Revision, otherRepository string) []revision.Revision

	// HasEquivalence reports whether e, in either order, is recorded.
	HasEquivalence(e revision.Equivalence) bool

	// HasMigration reports whether m is recorded.
	HasMigration(m revision.Migration) bool

	// MigrationsTo returns the recorded migrations whose target is rev.
	MigrationsTo(rev revision.Revision) []revision.Migration

	// Equivalences returns every recorded equivalence in canonical form,
	// sorted.
	Equivalences() []revision.Equivalence

	// Migrations returns every recorded migration, sorted.
	Migrations() []revision.Migration

	// Changed reports whether a fact was added since loading or the last
	// successful Write.
	Changed() bool

	// Write persists the current state.
	Write(ctx context.Context) error

	// Close releases the backend. It does not write.
	Close() error
}

// Storage is the in-memory fact set every backend builds on. The zero value
// is not usable; call NewStorage.
//
// Thread-safety: Storage is not safe for concurrent use. A run has one
// logical writer.
type Storage struct {
	equivalences map[string]revision.Equivalence
	migrations   map[string]revision.Migration
	changed      bool
}

// NewStorage returns an empty Storage.
func NewStorage() *Storage {
	return &Storage{
		equivalences: map[string]revision.Equivalence{},
		migrations:   map[string]revision.Migration{},
	}
}

// NoteEquivalence implements Db.
func (s *Storage) NoteEquivalence(e revision.Equivalence) bool {
	id := e.ID()
	if _, ok := s.equivalences[id]; ok {
		return false
	}
	s.equivalences[id] = e.Canonical()
	s.changed = true
	return true
}

// NoteMigration implements Db.
func (s *Storage) NoteMigration(m revision.Migration) bool {
	id := m.ID()
	if _, ok := s.migrations[id]; ok {
		return false
	}
	s.migrations[id] = m
	s.changed = true
	return true
}

// FindEquivalences implements Db.
func (s *Storage) FindEquivalences(rev revision.Revision, otherRepository string) []revision.Revision {
	var out []revision.Revision
	for _, e := range s.equivalences {
		other, ok := e.Get(rev)
		if ok && other.RepositoryName == otherRepository {
			out = append(out, other)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// HasEquivalence implements Db.
func (s *Storage) HasEquivalence(e revision.Equivalence) bool {
	_, ok := s.equivalences[e.ID()]
	return ok
}

// HasMigration implements Db.
func (s *Storage) HasMigration(m revision.Migration) bool {
	_, ok := s.migrations[m.ID()]
	return ok
}

// Equivalences implements Db.
func (s *Storage) Equivalences() []revision.Equivalence {
	out := make([]revision.Equivalence, 0, len(s.equivalences))
	for _, e := range s.equivalences {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rev1 != out[j].Rev1 {
			return revisionLess(out[i].Rev1, out[j].Rev1)
		}
		return revisionLess(out[i].Rev2, out[j].Rev2)
	})
	return out
}

// Migrations implements Db.
func (s *Storage) Migrations() []revision.Migration {
	out := make([]revision.Migration, 0, len(s.migrations))
	for _, m := range s.migrations {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return revisionLess(out[i].From, out[j].From)
		}
		return revisionLess(out[i].To, out[j].To)
	})
	return out
}

// Changed implements Db.
func (s *Storage) Changed() bool { return s.changed }

// MigrationsTo implements Db.
func (s *Storage) MigrationsTo(rev revision.Revision) []revision.Migration {
	var out []revision.Migration
	for _, m := range s.Migrations() {
		if m.To == rev {
			out = append(out, m)
		}
	}
	return out
}

func (s *Storage) markWritten() { s.changed = false }

func revisionLess(a, b revision.Revision) bool {
	if a.RepositoryName != b.RepositoryName {
		return a.RepositoryName < b.RepositoryName
	}
	return a.ID < b.ID
}

// Memory is a Db with no durable storage.
type Memory struct {
	*Storage
}

// NewMemory returns an empty in-memory Db.
func NewMemory() *Memory {
	return &Memory{Storage: NewStorage()}
}

// Write implements Db.
func (m *Memory) Write(context.Context) error {
	m.markWritten()
	return nil
}

// Close implements Db.
func (*Memory) Close() error { return nil }
