package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/reposync/internal/fsys"
	"github.com/roach88/reposync/internal/project"
	"github.com/roach88/reposync/internal/resolve"
	"github.com/roach88/reposync/internal/store"
)

// session is what a command that works on a project needs: the project
// context, an expression engine, and the scope every checkout lives in.
type session struct {
	Project *project.Context
	Engine  *resolve.Engine
	Scope   *fsys.Scope
	Logger  *slog.Logger
}

// Close removes every directory created during the session.
func (s *session) Close() error {
	return s.Scope.Close()
}

// newLogger returns a text logger on w, at debug level when verbose.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// loadConfig loads --config. Failures are reported through f.
func loadConfig(opts *RootOptions, f *OutputFormatter) (*project.Config, error) {
	if opts.Config == "" {
		return nil, f.Fail(ExitCommandError, "--config is required", nil)
	}
	cfg, err := project.Load(opts.Config)
	if err != nil {
		return nil, f.Fail(ExitCommandError, "failed to load project config", err)
	}
	return cfg, nil
}

// openSession loads --config and instantiates the project. The caller
// closes the session.
func openSession(opts *RootOptions, cmd *cobra.Command, f *OutputFormatter) (*session, error) {
	cfg, err := loadConfig(opts, f)
	if err != nil {
		return nil, err
	}

	logger := newLogger(opts, cmd.ErrOrStderr())
	scope := fsys.NewScope("")
	pc, err := project.NewContext(cfg, project.Options{
		Scope:     scope,
		Runner:    opts.Runner,
		Factories: opts.Factories,
		Logger:    logger,
	})
	if err != nil {
		_ = scope.Close()
		return nil, f.Fail(ExitCommandError, "invalid project", err)
	}
	f.VerboseLog("Loaded project %s from %s", cfg.Name, opts.Config)
	return &session{
		Project: pc,
		Engine:  resolve.NewEngine(pc),
		Scope:   scope,
		Logger:  logger,
	}, nil
}

// openDatabase opens --db. Failures are reported through f.
func openDatabase(ctx context.Context, opts *RootOptions, f *OutputFormatter) (store.Db, error) {
	if opts.Database == "" {
		return nil, f.Fail(ExitCommandError, "--db is required", nil)
	}
	db, err := store.Load(ctx, opts.Database)
	if err != nil {
		return nil, f.Fail(ExitCommandError, "failed to open database", err)
	}
	f.VerboseLog("Opened database %s", opts.Database)
	return db, nil
}

func closeDatabase(db store.Db, logger *slog.Logger) {
	if err := db.Close(); err != nil {
		logger.Error("error closing database", "error", err)
	}
}
