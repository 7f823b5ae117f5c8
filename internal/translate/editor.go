package translate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/reposync/internal/cmdrun"
	"github.com/roach88/reposync/internal/codebase"
	"github.com/roach88/reposync/internal/fsys"
)

// Editor changes the content of a codebase within its project space.
type Editor interface {
	// Name returns the name the editor is configured under.
	Name() string

	// Options returns the option keys Edit accepts, sorted.
	Options() []string

	// Edit returns the edited codebase. The input tree is never modified.
	Edit(ctx context.Context, in codebase.Codebase, scope *fsys.Scope, options map[string]string) (codebase.Codebase, error)
}

// Editor type names accepted in configuration.
const (
	TypeIdentity = "identity"
	TypeRenamer  = "renamer"
	TypeShell    = "shell"
)

// Mapping renames paths starting with From to start with To instead.
type Mapping struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// EditorConfig configures one editor.
type EditorConfig struct {
	Type     string    `json:"type"`
	Command  string    `json:"command,omitempty"`
	Options  []string  `json:"options,omitempty"`
	Mappings []Mapping `json:"mappings,omitempty"`
}

// UnknownOptionError reports an option an editor does not accept.
type UnknownOptionError struct {
	Editor string
	Key    string
}

func (e *UnknownOptionError) Error() string {
	return fmt.Sprintf("editor %s does not accept option %q", e.Editor, e.Key)
}

// CheckOptions returns an *UnknownOptionError for the first option key, in
// sorted order, that e does not accept.
func CheckOptions(e Editor, options map[string]string) error {
	known := map[string]bool{}
	for _, k := range e.Options() {
		known[k] = true
	}
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !known[k] {
			return &UnknownOptionError{Editor: e.Name(), Key: k}
		}
	}
	return nil
}

// NewEditor builds the editor called name from cfg. Shell editors run their
// command through runner.
func NewEditor(name string, cfg EditorConfig, runner cmdrun.Runner) (Editor, error) {
	switch cfg.Type {
	case TypeIdentity:
		return Identity{EditorName: name}, nil
	case TypeRenamer:
		if len(cfg.Mappings) == 0 {
			return nil, fmt.Errorf("editor %s: renamer needs at least one mapping", name)
		}
		return &Renamer{EditorName: name, Mappings: cfg.Mappings}, nil
	case TypeShell:
		if strings.TrimSpace(cfg.Command) == "" {
			return nil, fmt.Errorf("editor %s: shell editor needs a command", name)
		}
		return NewShell(name, cfg.Command, cfg.Options, runner)
	case "":
		return nil, fmt.Errorf("editor %s: missing type", name)
	default:
		return nil, fmt.Errorf("editor %s: unknown type %q", name, cfg.Type)
	}
}

// Identity returns its input unchanged.
type Identity struct {
	EditorName string
}

// Name implements Editor.
func (e Identity) Name() string { return e.EditorName }

// Options implements Editor.
func (Identity) Options() []string { return nil }

// Edit implements Editor.
func (e Identity) Edit(_ context.Context, in codebase.Codebase, _ *fsys.Scope, options map[string]string) (codebase.Codebase, error) {
	if err := CheckOptions(e, options); err != nil {
		return codebase.Codebase{}, err
	}
	return in, nil
}
