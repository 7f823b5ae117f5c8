// Package fsys manages the directories codebases are materialized into and
// the file-tree helpers shared by the repository backends, the editors and
// the differ.
package fsys

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Scope owns the temporary directories created through it and removes them
// all on Close, except those explicitly kept.
type Scope struct {
	base string

	mu   sync.Mutex
	dirs []string
	keep map[string]bool
}

// NewScope returns a Scope creating directories under base.
// An empty base means os.TempDir().
func NewScope(base string) *Scope {
	if base == "" {
		base = os.TempDir()
	}
	return &Scope{base: base, keep: map[string]bool{}}
}

// Sub returns a new, independent Scope creating directories under the same
// base as s. Closing one does not affect the other.
func (s *Scope) Sub() *Scope {
	return NewScope(s.base)
}

// TempDir creates a fresh, uniquely named directory owned by s.
func (s *Scope) TempDir(prefix string) (string, error) {
	dir := filepath.Join(s.base, fmt.Sprintf("%s_%s", prefix, uuid.NewString()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create scoped directory: %w", err)
	}
	s.mu.Lock()
	s.dirs = append(s.dirs, dir)
	s.mu.Unlock()
	return dir, nil
}

// Keep excludes dir from removal on Close.
func (s *Scope) Keep(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keep[dir] = true
}

// Dirs returns the directories currently owned by s, in creation order.
func (s *Scope) Dirs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.dirs...)
}

// Close removes every directory created by s that was not kept.
// It is safe to call more than once.
func (s *Scope) Close() error {
	s.mu.Lock()
	var dirs []string
	for _, dir := range s.dirs {
		if !s.keep[dir] {
			dirs = append(dirs, dir)
		}
	}
	s.dirs = nil
	s.mu.Unlock()

	var err error
	for i := len(dirs) - 1; i >= 0; i-- {
		if rmErr := os.RemoveAll(dirs[i]); rmErr != nil {
			err = multierr.Append(err, fmt.Errorf("remove %s: %w", dirs[i], rmErr))
		}
	}
	return err
}
