package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/roach88/reposync/internal/codebase"
	"github.com/roach88/reposync/internal/expression"
	"github.com/roach88/reposync/internal/fsys"
	"github.com/roach88/reposync/internal/project"
	"github.com/roach88/reposync/internal/repository"
	"github.com/roach88/reposync/internal/revision"
	"github.com/roach88/reposync/internal/translate"
)

// RevisionOption is the option selecting a repository revision.
const RevisionOption = "revision"

// FileKeyword is the pseudo-repository naming a local directory.
const FileKeyword = "file"

// Options accepted by the file pseudo-repository.
const (
	FilePathOption         = "path"
	FileProjectSpaceOption = "project_space"
)

// Engine evaluates expressions against one project's repositories, editors
// and translators.
type Engine struct {
	Repositories *repository.Registry
	Editors      map[string]translate.Editor
	Translators  *translate.Translators
	Scope        *fsys.Scope
	Logger       *slog.Logger
}

// NewEngine returns an Engine over the project context pc.
func NewEngine(pc *project.Context) *Engine {
	return &Engine{
		Repositories: pc.Registry,
		Editors:      pc.Editors,
		Translators:  pc.Translators,
		Scope:        pc.Scope,
		Logger:       pc.Logger,
	}
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// CreateFromText parses text and evaluates it. Parse failures are returned
// as *expression.ParseError.
func (e *Engine) CreateFromText(ctx context.Context, text string) (codebase.Codebase, error) {
	expr, err := expression.Parse(text)
	if err != nil {
		return codebase.Codebase{}, err
	}
	return e.Create(ctx, expr)
}

// Create evaluates expr into a codebase whose directories belong to the
// engine's scope. The result is tagged with the project space of the last
// translation step, or of the repository when there is none.
func (e *Engine) Create(ctx context.Context, expr *expression.Expression) (codebase.Codebase, error) {
	text := expr.String()

	var (
		space string
		base  func() (codebase.Codebase, error)
	)
	if expr.RepositoryName() == FileKeyword {
		path, ps, err := fileOptions(expr)
		if err != nil {
			return codebase.Codebase{}, err
		}
		space = ps
		base = func() (codebase.Codebase, error) { return e.checkoutFile(path, ps) }
	} else {
		repo, err := e.repository(expr)
		if err != nil {
			return codebase.Codebase{}, err
		}
		space = repo.ProjectSpace()
		base = func() (codebase.Codebase, error) {
			spec, _ := expr.Option(RevisionOption)
			rev, err := repo.FindHighestRevision(ctx, spec)
			if err != nil {
				return codebase.Codebase{}, err
			}
			return repo.Checkout(ctx, rev, e.Scope)
		}
	}

	steps, err := e.steps(expr, space)
	if err != nil {
		return codebase.Codebase{}, err
	}

	cb, err := base()
	if err != nil {
		return codebase.Codebase{}, fmt.Errorf("create codebase %s: %w", text, err)
	}
	cb, err = translate.Run(ctx, cb, e.Scope, steps...)
	if err != nil {
		return codebase.Codebase{}, fmt.Errorf("create codebase %s: %w", text, err)
	}
	cb = cb.WithExpression(text)
	e.logger().Debug("created codebase", "expression", text, "path", cb.Path, "project_space", cb.ProjectSpace)
	return cb, nil
}

// ResolveRevision resolves the repository and revision named by expr
// without checking anything out. Transform steps are ignored.
func (e *Engine) ResolveRevision(ctx context.Context, expr *expression.Expression) (repository.Type, revision.Revision, error) {
	repo, err := e.repository(expr)
	if err != nil {
		return nil, revision.Revision{}, err
	}
	spec, _ := expr.Option(RevisionOption)
	rev, err := repo.FindHighestRevision(ctx, spec)
	if err != nil {
		return nil, revision.Revision{}, err
	}
	return repo, rev, nil
}

func (e *Engine) repository(expr *expression.Expression) (repository.Type, error) {
	name := expr.RepositoryName()
	repo, ok := e.Repositories.Get(name)
	if !ok {
		return nil, &Error{
			Code:       CodeUnknownRepository,
			Expression: expr.String(),
			Key:        name,
			Message:    fmt.Sprintf("no repository named %q (known: %v)", name, e.Repositories.Names()),
		}
	}
	if err := checkKeys(expr, expr.Term, "repository "+name, RevisionOption); err != nil {
		return nil, err
	}
	return repo, nil
}

func (e *Engine) steps(expr *expression.Expression, space string) ([]translate.Step, error) {
	steps := make([]translate.Step, 0, len(expr.Operations))
	for _, op := range expr.Operations {
		switch op.Operator {
		case expression.Translate:
			to := op.Term.Identifier
			if err := checkKeys(expr, op.Term, "translation to "+to); err != nil {
				return nil, err
			}
			if to != space {
				if _, ok := e.Translators.Find(space, to); !ok {
					return nil, &Error{
						Code:       CodeUnknownTranslator,
						Expression: expr.String(),
						Key:        to,
						Message:    fmt.Sprintf("no translator from project space %q to %q", space, to),
					}
				}
			}
			steps = append(steps, translate.TranslateStep{Translators: e.Translators, To: to})
			space = to
		case expression.Edit:
			name := op.Term.Identifier
			ed, ok := e.Editors[name]
			if !ok {
				return nil, &Error{
					Code:       CodeUnknownEditor,
					Expression: expr.String(),
					Key:        name,
					Message:    fmt.Sprintf("no editor named %q", name),
				}
			}
			if err := checkKeys(expr, op.Term, "editor "+name, ed.Options()...); err != nil {
				return nil, err
			}
			steps = append(steps, translate.EditStep{Editor: ed, Options: op.Term.Options})
		}
	}
	return steps, nil
}

func (e *Engine) checkoutFile(path, projectSpace string) (codebase.Codebase, error) {
	info, err := os.Stat(path)
	if err != nil {
		return codebase.Codebase{}, fmt.Errorf("file codebase: %w", err)
	}
	if !info.IsDir() {
		return codebase.Codebase{}, fmt.Errorf("file codebase: %s is not a directory", path)
	}
	dir, err := e.Scope.TempDir("file_codebase")
	if err != nil {
		return codebase.Codebase{}, err
	}
	if err := fsys.CopyTree(path, dir); err != nil {
		return codebase.Codebase{}, fmt.Errorf("file codebase: copy %s: %w", path, err)
	}
	return codebase.New(dir, projectSpace, revision.Revision{}), nil
}

func fileOptions(expr *expression.Expression) (string, string, error) {
	if err := checkKeys(expr, expr.Term, FileKeyword, FilePathOption, FileProjectSpaceOption); err != nil {
		return "", "", err
	}
	path, ok := expr.Option(FilePathOption)
	if !ok || path == "" {
		return "", "", &Error{
			Code:       CodeInvalidOption,
			Expression: expr.String(),
			Key:        FilePathOption,
			Message:    "file expression needs a path option",
		}
	}
	space, ok := expr.Option(FileProjectSpaceOption)
	if !ok || space == "" {
		space = repository.DefaultProjectSpace
	}
	return path, space, nil
}

// checkKeys fails with CodeUnknownOption on the first key of term, in sorted
// order, that is not in known.
func checkKeys(expr *expression.Expression, term expression.Term, target string, known ...string) error {
	allowed := map[string]bool{}
	for _, k := range known {
		allowed[k] = true
	}
	for _, k := range term.Keys() {
		if !allowed[k] {
			sorted := append([]string(nil), known...)
			sort.Strings(sorted)
			return &Error{
				Code:       CodeUnknownOption,
				Expression: expr.String(),
				Key:        k,
				Message:    fmt.Sprintf("%s does not accept option %q (accepted: %v)", target, k, sorted),
			}
		}
	}
	return nil
}
