package repository

import (
	"fmt"
	"sort"
	"strings"
)

// ReservedKeywords may not be used as repository names because the
// expression grammar gives them their own meaning.
var ReservedKeywords = []string{"file"}

// IsReserved reports whether name is a reserved keyword.
func IsReserved(name string) bool {
	for _, k := range ReservedKeywords {
		if k == name {
			return true
		}
	}
	return false
}

// InvalidProjectError reports a project configuration that cannot be used.
type InvalidProjectError struct {
	Message string
}

func (e *InvalidProjectError) Error() string {
	return "invalid project: " + e.Message
}

// InvalidProject returns an *InvalidProjectError with a formatted message.
func InvalidProject(format string, args ...any) error {
	return &InvalidProjectError{Message: fmt.Sprintf(format, args...)}
}

// Registry maps repository names to their instances. Each name maps to
// exactly one instance for the lifetime of the Registry.
type Registry struct {
	factories map[string]Factory
	repos     map[string]Type
}

// NewRegistry returns a Registry that can build repositories of the types
// served by factories.
func NewRegistry(factories ...Factory) *Registry {
	r := &Registry{factories: map[string]Factory{}, repos: map[string]Type{}}
	for _, f := range factories {
		r.factories[f.Type()] = f
	}
	return r
}

// Create builds and registers the repository called name.
func (r *Registry) Create(name string, cfg Config) (Type, error) {
	if name == "" {
		return nil, InvalidProject("repository name must not be empty")
	}
	if IsReserved(name) {
		return nil, InvalidProject("repository name %q is a reserved keyword (reserved: %s)", name, strings.Join(ReservedKeywords, ", "))
	}
	if _, ok := r.repos[name]; ok {
		return nil, InvalidProject("repository %q is configured twice", name)
	}
	f, ok := r.factories[cfg.Type]
	if !ok {
		return nil, InvalidProject("repository %q has unknown type %q (known: %s)", name, cfg.Type, strings.Join(r.Types(), ", "))
	}
	repo, err := f.Create(name, cfg)
	if err != nil {
		return nil, err
	}
	r.repos[name] = repo
	return repo, nil
}

// Get returns the repository called name.
func (r *Registry) Get(name string) (Type, bool) {
	repo, ok := r.repos[name]
	return repo, ok
}

// Names returns the registered repository names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.repos))
	for n := range r.repos {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Types returns the repository types the Registry can build, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
