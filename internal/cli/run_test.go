package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defenseQueries(t *testing.T) string {
	t.Helper()
	abs, err := filepath.Abs(defenseCSV)
	require.NoError(t, err)

	return writeFiles(t, map[string]string{
		"defense.cue": `package queries

dataset: "` + abs + `"

query: rank4: {
	kind: "bayes"
	predicates: ["d_rank eq 4", "yards geq 170"]
}

query: losses: {
	kind: "marginal"
	predicates: [{column: "result", op: "eq", value: "L"}]
}

query: late_losses: {
	kind: "conditional"
	predicates: ["result eq L", "week geq 3", {column: "yards", op: "in_range", value: [150, 250]}]
}
`,
	})
}

func TestRunCommand(t *testing.T) {
	dir := defenseQueries(t)

	out, _, err := execute(t, "run", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "rank4: P(d_rank eq 4 | yards geq 170) = 0.500000")
	assert.Contains(t, out, "losses: P(result eq \"L\") = 0.500000")
	assert.Contains(t, out, "late_losses: P(result eq \"L\" | week geq 3, yards in_range [150,250]) = 1.000000")
	assert.Contains(t, out, "3 succeeded, 0 failed")
}

func TestRunCommand_JSONKeepsOrder(t *testing.T) {
	dir := defenseQueries(t)

	out, _, err := execute(t, "run", "--format", "json", dir)
	require.NoError(t, err)

	data := decodeResponse(t, out).Data.(map[string]any)
	queries := data["queries"].([]any)
	require.Len(t, queries, 3)

	var names []string
	for _, q := range queries {
		names = append(names, q.(map[string]any)["name"].(string))
	}
	assert.Equal(t, []string{"rank4", "losses", "late_losses"}, names)
}

func TestRunCommand_DataFlagOverridesFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"q.cue": `package queries

dataset: "missing.csv"

query: adults: {
	kind: "marginal"
	predicates: ["Age geq 22"]
}
`,
	})

	out, _, err := execute(t, "run", "--data", playersCSV, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "adults: P(Age geq 22) = 0.800000")
}

func TestRunCommand_QueryFailures(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"q.cue": `package queries

query: ok: {
	kind: "marginal"
	predicates: ["Age geq 22"]
}

query: unknown: {
	kind: "marginal"
	predicates: ["Height geq 1"]
}

query: lonely: {
	kind: "conditional"
	predicates: ["Age geq 22"]
}
`,
	})

	out, _, err := execute(t, "run", "--format", "json", "--data", playersCSV, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	data := decodeResponse(t, out).Data.(map[string]any)
	assert.EqualValues(t, 1, data["succeeded"])
	assert.EqualValues(t, 2, data["failed"])

	codes := map[string]any{}
	for _, q := range data["queries"].([]any) {
		m := q.(map[string]any)
		codes[m["name"].(string)] = m["code"]
	}
	assert.Nil(t, codes["ok"])
	assert.Equal(t, "UNKNOWN_COLUMN", codes["unknown"])
	assert.Equal(t, "INSUFFICIENT_CONDITIONS", codes["lonely"])
}

func TestRunCommand_NoDataset(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"q.cue": "package queries\n\nquery: q: {kind: \"marginal\", predicates: [\"x geq 1\"]}\n",
	})

	out, _, err := execute(t, "run", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E201]")
}

func TestRunCommand_MissingDir(t *testing.T) {
	out, _, err := execute(t, "run", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestRunCommand_NoCUEFiles(t *testing.T) {
	out, _, err := execute(t, "run", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, out, "Error [E003]")
}
