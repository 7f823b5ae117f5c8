package harness

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/roach88/reposync/internal/revision"
)

// Scenario defines a bookkeeping scenario: a set of dummy repositories with
// fixed histories and trees, the migrations between them, and what the
// database must hold after bookkeeping has run over them.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Repositories maps repository names to their history and trees.
	Repositories map[string]RepositorySetup `yaml:"repositories"`

	// Translators lists identity translations between project spaces.
	Translators []TranslatorSetup `yaml:"translators,omitempty"`

	// Migrations lists the pairings bookkeeping runs over.
	Migrations []MigrationSetup `yaml:"migrations"`

	// Database is the file name of the database inside the work
	// directory. The extension picks the backend. Defaults to facts.json.
	Database string `yaml:"database,omitempty"`

	// Runs is the number of bookkeeping passes. Defaults to 1.
	Runs int `yaml:"runs,omitempty"`

	// Assertions validate the run records and the final facts.
	Assertions []Assertion `yaml:"assertions"`
}

// RepositorySetup describes one dummy repository.
type RepositorySetup struct {
	// ProjectSpace defaults to public.
	ProjectSpace string `yaml:"project_space,omitempty"`

	// History lists revisions head first. Empty means a single revision "1".
	History []HistoryEntry `yaml:"history,omitempty"`

	// Trees maps revision IDs to their files. A revision listed in History
	// without a tree is an empty directory.
	Trees map[string]map[string]string `yaml:"trees,omitempty"`
}

// HistoryEntry is one revision of a dummy repository.
type HistoryEntry struct {
	ID          string   `yaml:"id"`
	Description string   `yaml:"description,omitempty"`
	Parents     []string `yaml:"parents,omitempty"`
}

// TranslatorSetup declares an identity translator.
type TranslatorSetup struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// MigrationSetup declares a migration pairing.
type MigrationSetup struct {
	Name string `yaml:"name"`
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Assertion validates the facts or a run record.
type Assertion struct {
	// Type specifies the assertion type:
	//   - "equivalent": Revisions must be recorded as equivalent
	//   - "not_equivalent": Revisions must not be recorded as equivalent
	//   - "migrated": From -> To must be recorded as a migration
	//   - "fact_count": the database holds exactly Equivalences and Migrations facts
	//   - "run_empty": run number Run (1-based) added nothing
	Type string `yaml:"type"`

	// Revisions are two revisions formatted as repo{id}.
	Revisions []string `yaml:"revisions,omitempty"`

	// From and To are revisions formatted as repo{id}.
	From string `yaml:"from,omitempty"`
	To   string `yaml:"to,omitempty"`

	Equivalences *int `yaml:"equivalences,omitempty"`
	Migrations   *int `yaml:"migrations,omitempty"`

	Run int `yaml:"run,omitempty"`
}

// Assertion type constants.
const (
	AssertEquivalent    = "equivalent"
	AssertNotEquivalent = "not_equivalent"
	AssertMigrated      = "migrated"
	AssertFactCount     = "fact_count"
	AssertRunEmpty      = "run_empty"
)

const defaultDatabase = "facts.json"

var revisionPattern = regexp.MustCompile(`^([^{}\s]+)\{([^{}\s]+)\}$`)

// ParseRevision parses the repo{id} form printed by revision.Revision.
func ParseRevision(s string) (revision.Revision, error) {
	m := revisionPattern.FindStringSubmatch(s)
	if m == nil {
		return revision.Revision{}, fmt.Errorf("revision %q is not of the form repo{id}", s)
	}
	return revision.New(m[2], m[1]), nil
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	scenario.applyDefaults()
	return &scenario, nil
}

func (s *Scenario) applyDefaults() {
	if s.Database == "" {
		s.Database = defaultDatabase
	}
	if s.Runs == 0 {
		s.Runs = 1
	}
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Repositories) < 2 {
		return fmt.Errorf("at least two repositories are required")
	}
	if len(s.Migrations) == 0 {
		return fmt.Errorf("migrations list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if s.Runs < 0 {
		return fmt.Errorf("runs must be non-negative")
	}

	for name, repo := range s.Repositories {
		for i, h := range repo.History {
			if h.ID == "" {
				return fmt.Errorf("repositories.%s.history[%d]: id is required", name, i)
			}
		}
	}

	for i, m := range s.Migrations {
		if m.Name == "" {
			return fmt.Errorf("migrations[%d]: name is required", i)
		}
		if _, ok := s.Repositories[m.From]; !ok {
			return fmt.Errorf("migrations[%d]: unknown repository %q", i, m.From)
		}
		if _, ok := s.Repositories[m.To]; !ok {
			return fmt.Errorf("migrations[%d]: unknown repository %q", i, m.To)
		}
	}

	for i, t := range s.Translators {
		if t.From == "" || t.To == "" {
			return fmt.Errorf("translators[%d]: from and to are required", i)
		}
	}

	runs := s.Runs
	if runs == 0 {
		runs = 1
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], runs); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, runs int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertEquivalent, AssertNotEquivalent:
		if len(a.Revisions) != 2 {
			return fmt.Errorf("assertions[%d]: %s needs exactly two revisions", index, a.Type)
		}
		for _, r := range a.Revisions {
			if _, err := ParseRevision(r); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertMigrated:
		for _, r := range []string{a.From, a.To} {
			if _, err := ParseRevision(r); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertFactCount:
		if a.Equivalences == nil && a.Migrations == nil {
			return fmt.Errorf("assertions[%d]: fact_count needs equivalences or migrations", index)
		}
	case AssertRunEmpty:
		if a.Run < 1 || a.Run > runs {
			return fmt.Errorf("assertions[%d]: run must be between 1 and %d", index, runs)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
