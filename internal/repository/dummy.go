package repository

import (
	"context"
	"path/filepath"
	"time"

	"github.com/roach88/reposync/internal/codebase"
	"github.com/roach88/reposync/internal/fsys"
	"github.com/roach88/reposync/internal/revision"
)

// DummyRoot is where dummy repositories find their trees when no root is
// configured.
const DummyRoot = "/dummy/codebase"

// DummyHead is the head revision of a dummy repository without history.
const DummyHead = "1"

// DummyEntry is one revision in a dummy repository's history.
type DummyEntry struct {
	ID          string
	Description string
	Parents     []string
}

// Dummy is a repository backed by fixture directories. The tree of revision
// id is the directory <root>/<name>/<id>; Checkout returns that directory
// as is instead of copying it, and a missing directory is an empty tree.
//
// Without history entries every specification resolves to itself and an
// empty specification resolves to DummyHead. With entries, the first entry
// is the head and only listed ids resolve.
type Dummy struct {
	name         string
	projectSpace string
	root         string
	entries      map[string]DummyEntry
	head         string
}

// NewDummy returns a dummy repository. entries, if any, list its history
// newest first.
func NewDummy(name, projectSpace, root string, entries ...DummyEntry) *Dummy {
	if root == "" {
		root = DummyRoot
	}
	if projectSpace == "" {
		projectSpace = DefaultProjectSpace
	}
	d := &Dummy{name: name, projectSpace: projectSpace, root: root, head: DummyHead}
	if len(entries) > 0 {
		d.head = entries[0].ID
		d.entries = make(map[string]DummyEntry, len(entries))
		for _, e := range entries {
			d.entries[e.ID] = e
		}
	}
	return d
}

// Name implements Type.
func (d *Dummy) Name() string { return d.name }

// ProjectSpace implements Type.
func (d *Dummy) ProjectSpace() string { return d.projectSpace }

// FindHighestRevision implements Type.
func (d *Dummy) FindHighestRevision(_ context.Context, spec string) (revision.Revision, error) {
	if spec == "" {
		return revision.New(d.head, d.name), nil
	}
	if d.entries != nil {
		if _, ok := d.entries[spec]; !ok {
			return revision.Revision{}, unresolvable(d.name, spec, nil)
		}
	}
	return revision.New(spec, d.name), nil
}

// Metadata implements Type.
func (d *Dummy) Metadata(_ context.Context, rev revision.Revision) (revision.Metadata, error) {
	md := revision.Metadata{
		ID:          rev.ID,
		Author:      "author",
		Date:        time.Unix(1, 0).UTC(),
		Description: "description",
	}
	if d.entries == nil {
		return md, nil
	}
	e, ok := d.entries[rev.ID]
	if !ok {
		return revision.Metadata{}, unresolvable(d.name, rev.ID, nil)
	}
	md.Description = e.Description
	for _, p := range e.Parents {
		md.Parents = append(md.Parents, revision.New(p, d.name))
	}
	return md, nil
}

// Checkout implements Type.
func (d *Dummy) Checkout(_ context.Context, rev revision.Revision, _ *fsys.Scope) (codebase.Codebase, error) {
	return codebase.New(filepath.Join(d.root, d.name, rev.ID), d.projectSpace, rev), nil
}

// DummyFactory builds Dummy repositories for the "dummy" type. The
// configured root, if any, replaces DummyRoot.
type DummyFactory struct{}

// Type implements Factory.
func (DummyFactory) Type() string { return "dummy" }

// Create implements Factory.
func (DummyFactory) Create(name string, cfg Config) (Type, error) {
	return NewDummy(name, cfg.projectSpace(), cfg.Root), nil
}
