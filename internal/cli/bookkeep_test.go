package cli

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reposync/internal/store"
)

func TestBookkeepRecordsEquivalentHeads(t *testing.T) {
	p := newProjectFixture(t, map[string]string{
		"int/1/file": "1",
		"pub/1/file": "1",
	})

	out, err := p.execute(t, "bookkeep")
	require.NoError(t, err)
	assert.Equal(t, "Run run-1\n  equivalence int{1} == pub{1}\nRecorded 1 equivalence(s) and 0 migration(s).\n", out)

	db, err := store.LoadFile(p.Database)
	require.NoError(t, err)
	assert.Len(t, db.Equivalences(), 1)
	assert.Empty(t, db.Migrations())

	out, err = p.execute(t, "bookkeep")
	require.NoError(t, err)
	assert.Equal(t, "Run run-1\nNothing new.\n", out)
}

func TestBookkeepHeadsDiffer(t *testing.T) {
	p := newProjectFixture(t, map[string]string{
		"int/1/file": "1",
		"pub/1/":     "",
	})

	out, err := p.execute(t, "bookkeep", "--migration", "int_to_pub")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing new.")

	_, err = os.Stat(p.Database)
	assert.True(t, os.IsNotExist(err), "nothing recorded, nothing written")
}

func TestBookkeepJSON(t *testing.T) {
	p := newProjectFixture(t, map[string]string{
		"int/1/file": "1",
		"pub/1/file": "1",
	})

	out, err := p.execute(t, "--format", "json", "bookkeep")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			RunID        string            `json:"run_id"`
			Equivalences []json.RawMessage `json:"equivalences"`
			Written      bool              `json:"written"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-1", resp.Data.RunID)
	assert.Len(t, resp.Data.Equivalences, 1)
	assert.True(t, resp.Data.Written)
}

func TestBookkeepErrors(t *testing.T) {
	p := newProjectFixture(t, nil)

	t.Run("unknown migration", func(t *testing.T) {
		out, err := p.execute(t, "bookkeep", "--migration", "nope")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, `unknown migration "nope"`)
	})

	t.Run("missing database flag", func(t *testing.T) {
		out, err := executeWith(t, &RootOptions{Runner: p.Runner}, "--config", p.Config, "bookkeep")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "--db is required")
	})
}
