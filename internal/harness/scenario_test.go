package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reposync/internal/revision"
)

const minimalScenario = `
name: minimal
description: two repositories and one migration
repositories:
  a: {}
  b: {}
migrations:
  - { name: a_to_b, from: a, to: b }
assertions:
  - type: fact_count
    equivalences: 1
`

func TestParseScenarioDefaults(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, "facts.json", s.Database)
	assert.Equal(t, 1, s.Runs)
	require.Len(t, s.Assertions, 1)
	require.NotNil(t, s.Assertions[0].Equivalences)
	assert.Equal(t, 1, *s.Assertions[0].Equivalences)
	assert.Nil(t, s.Assertions[0].Migrations)
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenarioRejectsUnknownFields(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenarioValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\n",
			wantErr: "name is required",
		},
		{
			name:    "one repository",
			yaml:    "name: n\ndescription: d\nrepositories: {a: {}}\n",
			wantErr: "at least two repositories",
		},
		{
			name: "unknown migration repository",
			yaml: `name: n
description: d
repositories: {a: {}, b: {}}
migrations: [{name: m, from: a, to: c}]
assertions: [{type: run_empty, run: 1}]
`,
			wantErr: `unknown repository "c"`,
		},
		{
			name: "bad revision",
			yaml: `name: n
description: d
repositories: {a: {}, b: {}}
migrations: [{name: m, from: a, to: b}]
assertions: [{type: equivalent, revisions: ["a{1}", "b"]}]
`,
			wantErr: "not of the form repo{id}",
		},
		{
			name: "run out of range",
			yaml: `name: n
description: d
repositories: {a: {}, b: {}}
migrations: [{name: m, from: a, to: b}]
runs: 2
assertions: [{type: run_empty, run: 3}]
`,
			wantErr: "run must be between 1 and 2",
		},
		{
			name: "empty fact count",
			yaml: `name: n
description: d
repositories: {a: {}, b: {}}
migrations: [{name: m, from: a, to: b}]
assertions: [{type: fact_count}]
`,
			wantErr: "fact_count needs equivalences or migrations",
		},
		{
			name: "unknown assertion",
			yaml: `name: n
description: d
repositories: {a: {}, b: {}}
migrations: [{name: m, from: a, to: b}]
assertions: [{type: trace_order}]
`,
			wantErr: `unknown assertion type "trace_order"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseRevision(t *testing.T) {
	r, err := ParseRevision("pub{migrated_to}")
	require.NoError(t, err)
	assert.Equal(t, revision.New("migrated_to", "pub"), r)
	assert.Equal(t, "pub{migrated_to}", r.String())

	for _, bad := range []string{"", "pub", "{1}", "pub{}", "pub{1", "p ub{1}"} {
		_, err := ParseRevision(bad)
		assert.Error(t, err, bad)
	}
}
