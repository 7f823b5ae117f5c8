package project

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/reposync/internal/repository"
)

//go:embed schema.cue
var schemaSource string

// Error codes reported in LoadError.Code.
const (
	ErrCodeNotFound = "E001" // configuration file missing or unreadable
	ErrCodeParse    = "E002" // not valid CUE, JSON or YAML
	ErrCodeSchema   = "E003" // does not satisfy the schema
	ErrCodeInvalid  = "E004" // satisfies the schema but is inconsistent
)

// LoadError describes why a configuration could not be loaded.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func cueError(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: cueerrors.Details(err, nil)}
	if ps := cueerrors.Positions(err); len(ps) > 0 {
		le.Pos = ps[0]
	}
	le.Message = strings.TrimSpace(le.Message)
	return le
}

// Load reads the configuration at path. Files ending in .yaml or .yml are
// read as YAML, anything else as CUE (which includes JSON).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("read project config: %v", err)}
	}
	return LoadBytes(path, data)
}

// LoadBytes parses data as the configuration file named filename.
func LoadBytes(filename string, data []byte) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile project schema: %w", err)
	}
	project := schema.LookupPath(cue.ParsePath("#Project"))

	var doc cue.Value
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("%s: %v", filename, err)}
		}
		if raw == nil {
			return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("%s: empty document", filename)}
		}
		doc = ctx.Encode(raw)
	default:
		doc = ctx.CompileBytes(data, cue.Filename(filename))
	}
	if err := doc.Err(); err != nil {
		return nil, cueError(ErrCodeParse, err)
	}

	v := project.Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(ErrCodeSchema, err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, cueError(ErrCodeSchema, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the references between the parts of c.
func (c *Config) Validate() error {
	var problems []string

	for _, name := range sortedKeys(c.Repositories) {
		if repository.IsReserved(name) {
			problems = append(problems, fmt.Sprintf("repository name %q is a reserved keyword", name))
		}
	}

	pairs := map[[2]string]bool{}
	for i, t := range c.Translators {
		key := [2]string{t.FromProjectSpace, t.ToProjectSpace}
		if pairs[key] {
			problems = append(problems, fmt.Sprintf("translators[%d]: duplicate translator from %q to %q", i, t.FromProjectSpace, t.ToProjectSpace))
		}
		pairs[key] = true
		if t.FromProjectSpace == t.ToProjectSpace {
			problems = append(problems, fmt.Sprintf("translators[%d]: translates %q into itself", i, t.FromProjectSpace))
		}
	}

	names := map[string]bool{}
	for i, m := range c.Migrations {
		if names[m.Name] {
			problems = append(problems, fmt.Sprintf("migrations[%d]: duplicate migration name %q", i, m.Name))
		}
		names[m.Name] = true
		for _, repo := range []string{m.FromRepository, m.ToRepository} {
			if _, ok := c.Repositories[repo]; !ok {
				problems = append(problems, fmt.Sprintf("migrations[%d] %s: unknown repository %q", i, m.Name, repo))
			}
		}
		if m.FromRepository == m.ToRepository {
			problems = append(problems, fmt.Sprintf("migrations[%d] %s: migrates %q into itself", i, m.Name, m.FromRepository))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return &LoadError{Code: ErrCodeInvalid, Message: strings.Join(problems, "; ")}
}

// IsLoadError reports whether err is a *LoadError with the given code.
func IsLoadError(err error, code string) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Code == code
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
