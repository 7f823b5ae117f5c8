package translate

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/roach88/reposync/internal/codebase"
	"github.com/roach88/reposync/internal/fsys"
)

// Renamer moves files by path prefix. Mappings are tried in order and the
// first whose From matches a file's path wins; files matching no mapping
// keep their path. With the option reverse=true, every mapping is applied
// from To back to From.
type Renamer struct {
	EditorName string
	Mappings   []Mapping
}

// Name implements Editor.
func (r *Renamer) Name() string { return r.EditorName }

// Options implements Editor.
func (*Renamer) Options() []string { return []string{"reverse"} }

// Edit implements Editor.
func (r *Renamer) Edit(_ context.Context, in codebase.Codebase, scope *fsys.Scope, options map[string]string) (codebase.Codebase, error) {
	if err := CheckOptions(r, options); err != nil {
		return codebase.Codebase{}, err
	}
	reverse := false
	switch options["reverse"] {
	case "", "false":
	case "true":
		reverse = true
	default:
		return codebase.Codebase{}, fmt.Errorf("editor %s: reverse must be true or false, got %q", r.EditorName, options["reverse"])
	}

	files, err := fsys.Files(in.Path)
	if err != nil {
		return codebase.Codebase{}, fmt.Errorf("editor %s: list %s: %w", r.EditorName, in.Path, err)
	}
	dir, err := scope.TempDir("rename_" + r.EditorName)
	if err != nil {
		return codebase.Codebase{}, err
	}
	seen := make(map[string]string, len(files))
	for _, f := range files {
		to := r.rename(f, reverse)
		if prev, dup := seen[to]; dup {
			return codebase.Codebase{}, fmt.Errorf("editor %s: %s and %s both rename to %s", r.EditorName, prev, f, to)
		}
		seen[to] = f
		if err := fsys.CopyFile(fsys.Join(in.Path, f), fsys.Join(dir, to)); err != nil {
			return codebase.Codebase{}, fmt.Errorf("editor %s: copy %s: %w", r.EditorName, f, err)
		}
	}
	return in.WithPath(dir, in.ProjectSpace), nil
}

func (r *Renamer) rename(file string, reverse bool) string {
	for _, m := range r.Mappings {
		from, to := m.From, m.To
		if reverse {
			from, to = to, from
		}
		if rest, ok := cutPrefix(file, from); ok {
			return path.Join(to, rest)
		}
	}
	return file
}

// cutPrefix matches prefix against whole path segments of file.
func cutPrefix(file, prefix string) (string, bool) {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return file, true
	}
	if file == prefix {
		return "", true
	}
	if rest, ok := strings.CutPrefix(file, prefix+"/"); ok {
		return rest, true
	}
	return "", false
}
