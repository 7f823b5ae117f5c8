package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reposync/internal/testutil"
)

// projectFixture is a project of two dummy repositories, int (internal)
// and pub (public), whose revisions are directories below one tree root.
type projectFixture struct {
	Config   string
	Database string
	Runner   *testutil.DiffRunner
}

func newProjectFixture(t *testing.T, trees map[string]string) *projectFixture {
	t.Helper()
	dir := t.TempDir()
	root := testutil.WriteTree(t, filepath.Join(dir, "trees"), trees)

	config := fmt.Sprintf(`{
	"name": "test",
	"repositories": {
		"int": {"type": "dummy", "project_space": "internal", "root": %q},
		"pub": {"type": "dummy", "root": %q}
	},
	"translators": [{
		"from_project_space": "internal",
		"to_project_space": "public",
		"steps": [{"name": "id_step", "editor": {"type": "identity"}}]
	}],
	"migrations": [{"name": "int_to_pub", "from_repository": "int", "to_repository": "pub"}]
}`, root, root)
	path := filepath.Join(dir, "project.json")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o644))

	return &projectFixture{
		Config:   path,
		Database: filepath.Join(dir, "books.json"),
		Runner:   &testutil.DiffRunner{},
	}
}

// execute runs the root command with args against the fixture and returns
// stdout.
func (p *projectFixture) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	opts := &RootOptions{Runner: p.Runner, RunIDs: testutil.NewFixedRunID("run-1")}
	return executeWith(t, opts, append([]string{"--config", p.Config, "--db", p.Database}, args...)...)
}

func executeWith(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := newRootCommand(opts)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "reposync", cmd.Use)
	assert.Contains(t, cmd.Long, "equivalences")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{
		"bookkeep",
		"note_equivalence",
		"find_equivalences",
		"diff_codebases",
		"describe_revision",
		"check_config",
		"match_pull",
		"test",
	}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	require.NotNil(t, cmd.PersistentFlags().Lookup("db"))
}

func TestInvalidFormat(t *testing.T) {
	_, err := executeWith(t, &RootOptions{}, "--format", "xml", "check_config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestMissingConfig(t *testing.T) {
	out, err := executeWith(t, &RootOptions{}, "check_config")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.True(t, IsReported(err))
	assert.Contains(t, out, "Error [USAGE]: --config is required")
}
