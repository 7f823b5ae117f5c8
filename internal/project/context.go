package project

import (
	"fmt"
	"log/slog"

	"github.com/roach88/reposync/internal/cmdrun"
	"github.com/roach88/reposync/internal/fsys"
	"github.com/roach88/reposync/internal/repository"
	"github.com/roach88/reposync/internal/translate"
)

// Context holds everything built from a Config for one run: instantiated
// repositories, editors and translators.
type Context struct {
	Config      *Config
	Registry    *repository.Registry
	Editors     map[string]translate.Editor
	Translators *translate.Translators
	Scope       *fsys.Scope
	Runner      cmdrun.Runner
	Logger      *slog.Logger
}

// Options configure NewContext.
type Options struct {
	// Scope owns every directory created during the run. Required.
	Scope *fsys.Scope

	// Runner runs shell editors and the diff tool. Defaults to a
	// cmdrun.SystemRunner.
	Runner cmdrun.Runner

	// Factories build repositories. Defaults to repository.DefaultFactories.
	Factories []repository.Factory

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NewContext instantiates cfg. Repository construction errors are returned
// as *repository.InvalidProjectError.
func NewContext(cfg *Config, opts Options) (*Context, error) {
	if opts.Scope == nil {
		return nil, fmt.Errorf("project context needs a scope")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runner := opts.Runner
	if runner == nil {
		runner = cmdrun.NewSystemRunner(logger)
	}
	factories := opts.Factories
	if len(factories) == 0 {
		factories = repository.DefaultFactories(opts.Scope)
	}

	c := &Context{
		Config:      cfg,
		Registry:    repository.NewRegistry(factories...),
		Editors:     map[string]translate.Editor{},
		Translators: translate.NewTranslators(),
		Scope:       opts.Scope,
		Runner:      runner,
		Logger:      logger,
	}

	for _, name := range sortedKeys(cfg.Repositories) {
		if _, err := c.Registry.Create(name, cfg.Repositories[name]); err != nil {
			return nil, err
		}
	}

	for _, name := range sortedKeys(cfg.Editors) {
		e, err := translate.NewEditor(name, cfg.Editors[name], runner)
		if err != nil {
			return nil, repository.InvalidProject("%v", err)
		}
		c.Editors[name] = e
	}

	for _, tc := range cfg.Translators {
		t := &translate.Translator{From: tc.FromProjectSpace, To: tc.ToProjectSpace}
		for _, sc := range tc.Steps {
			e, err := translate.NewEditor(sc.Name, sc.Editor, runner)
			if err != nil {
				return nil, repository.InvalidProject("translator %s->%s: %v", tc.FromProjectSpace, tc.ToProjectSpace, err)
			}
			t.Steps = append(t.Steps, translate.NamedStep{Name: sc.Name, Editor: e})
		}
		if err := c.Translators.Add(t); err != nil {
			return nil, repository.InvalidProject("%v", err)
		}
	}

	for _, m := range cfg.Migrations {
		if _, ok := c.Registry.Get(m.FromRepository); !ok {
			return nil, repository.InvalidProject("migration %s: unknown repository %q", m.Name, m.FromRepository)
		}
		if _, ok := c.Registry.Get(m.ToRepository); !ok {
			return nil, repository.InvalidProject("migration %s: unknown repository %q", m.Name, m.ToRepository)
		}
	}

	logger.Debug("project context ready",
		"project", cfg.Name,
		"repositories", c.Registry.Names(),
		"editors", len(c.Editors),
		"translators", len(cfg.Translators),
		"migrations", len(cfg.Migrations))
	return c, nil
}

// Repository returns the repository configured under name.
func (c *Context) Repository(name string) (repository.Type, bool) {
	return c.Registry.Get(name)
}

// Editor returns the editor configured under name.
func (c *Context) Editor(name string) (translate.Editor, bool) {
	e, ok := c.Editors[name]
	return e, ok
}

// Migration returns the migration configured under name.
func (c *Context) Migration(name string) (MigrationConfig, bool) {
	for _, m := range c.Config.Migrations {
		if m.Name == name {
			return m, true
		}
	}
	return MigrationConfig{}, false
}

// Migrations returns the configured migrations in configuration order.
func (c *Context) Migrations() []MigrationConfig {
	return c.Config.Migrations
}
