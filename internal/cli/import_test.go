package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportThenQuery(t *testing.T) {
	db := filepath.Join(t.TempDir(), "stats.db")

	out, _, err := execute(t, "import", "--data", playersCSV, "--db", db, "--table", "players")
	require.NoError(t, err)
	assert.Contains(t, out, "imported 5 rows into players (Name, Age)")

	out, _, err = execute(t, "conditional", "--db", db, "--table", "players",
		"--event", "Name eq David", "--given", "Age geq 22", "--given", "Age leq 27")
	require.NoError(t, err)
	assert.Equal(t, "P(Name eq \"David\" | Age geq 22, Age leq 27) = 0.333333\n", out)
}

func TestImport_JSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "stats.db")

	out, _, err := execute(t, "import", "--format", "json", "--data", defenseCSV, "--db", db, "--table", "defense")
	require.NoError(t, err)

	data := decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t, "defense", data["table"])
	assert.EqualValues(t, 4, data["rows"])
	assert.Equal(t, []any{"week", "d_rank", "yards", "result"}, data["columns"])
	assert.Len(t, data["import_id"], 36)
	assert.Len(t, data["digest"], 64)
}

func TestImport_InvalidTableName(t *testing.T) {
	db := filepath.Join(t.TempDir(), "stats.db")

	_, _, err := execute(t, "import", "--data", playersCSV, "--db", db, "--table", "bad-name")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestImport_RequiredFlags(t *testing.T) {
	_, _, err := execute(t, "import", "--data", playersCSV)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestQuery_UnknownTable(t *testing.T) {
	db := filepath.Join(t.TempDir(), "stats.db")
	_, _, err := execute(t, "import", "--data", playersCSV, "--db", db, "--table", "players")
	require.NoError(t, err)

	out, _, err := execute(t, "marginal", "--db", db, "--table", "nope", "--where", "Age geq 22")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E201]")
}

func TestQuery_DataAndDBExclusive(t *testing.T) {
	_, _, err := execute(t, "marginal", "--data", playersCSV, "--db", "x.db", "--table", "t", "--where", "Age geq 22")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}
