package translate

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/shlex"

	"github.com/roach88/reposync/internal/cmdrun"
	"github.com/roach88/reposync/internal/codebase"
	"github.com/roach88/reposync/internal/fsys"
)

// Shell runs a command inside a private copy of the codebase and returns the
// copy. The command line is split like a POSIX shell would, but no shell is
// involved. Accepted options are appended as --key=value arguments in key
// order.
type Shell struct {
	EditorName string
	Command    string
	Args       []string
	Accepted   []string
	Runner     cmdrun.Runner
}

// NewShell parses command and returns a Shell editor accepting options.
func NewShell(name, command string, options []string, runner cmdrun.Runner) (*Shell, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("editor %s: parse command %q: %w", name, command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("editor %s: empty command", name)
	}
	accepted := append([]string(nil), options...)
	sort.Strings(accepted)
	return &Shell{
		EditorName: name,
		Command:    argv[0],
		Args:       argv[1:],
		Accepted:   accepted,
		Runner:     runner,
	}, nil
}

// Name implements Editor.
func (s *Shell) Name() string { return s.EditorName }

// Options implements Editor.
func (s *Shell) Options() []string { return s.Accepted }

// Edit implements Editor.
func (s *Shell) Edit(ctx context.Context, in codebase.Codebase, scope *fsys.Scope, options map[string]string) (codebase.Codebase, error) {
	if err := CheckOptions(s, options); err != nil {
		return codebase.Codebase{}, err
	}
	dir, err := scope.TempDir("shell_" + s.EditorName)
	if err != nil {
		return codebase.Codebase{}, err
	}
	if err := fsys.CopyTree(in.Path, dir); err != nil {
		return codebase.Codebase{}, fmt.Errorf("editor %s: copy %s: %w", s.EditorName, in.Path, err)
	}

	args := append([]string(nil), s.Args...)
	for _, k := range s.Accepted {
		if v, ok := options[k]; ok {
			args = append(args, fmt.Sprintf("--%s=%s", k, v))
		}
	}
	if _, err := s.Runner.Run(ctx, dir, s.Command, args...); err != nil {
		return codebase.Codebase{}, fmt.Errorf("editor %s: %w", s.EditorName, err)
	}
	return in.WithPath(dir, in.ProjectSpace), nil
}
