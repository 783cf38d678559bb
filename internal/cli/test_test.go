package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const failingScenario = `name: failing
description: expects the wrong marginal
dataset:
  rows:
    - {x: 1}
    - {x: 2}
queries:
  - name: half
    kind: marginal
    predicates: [x geq 2]
    expect: "0.9"
`

const passingScenario = `name: passing
description: one marginal
dataset:
  rows:
    - {x: 1}
    - {x: 2}
queries:
  - name: half
    kind: marginal
    predicates: [x geq 2]
    expect: "0.5"
`

func TestTestCommand_RepoScenarios(t *testing.T) {
	out, _, err := execute(t, "test", scenariosDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ players")
	assert.Contains(t, out, "✓ defense_bayes")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
}

func TestTestCommand_Filter(t *testing.T) {
	out, _, err := execute(t, "test", scenariosDir, "--filter", "def*")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ defense_bayes")
	assert.NotContains(t, out, "players")
	assert.Contains(t, out, "1 total")
}

func TestTestCommand_Failure(t *testing.T) {
	dir := writeFiles(t, map[string]string{"failing.yaml": failingScenario})

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ failing")
	assert.Contains(t, out, "expected 0.9, got 0.500000")
}

func TestTestCommand_JSON(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.yaml": passingScenario,
		"b.yaml": failingScenario,
	})

	out, _, err := execute(t, "test", "--format", "json", dir)
	require.Error(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	data := resp.Data.(map[string]any)
	assert.EqualValues(t, 1, data["passed"])
	assert.EqualValues(t, 1, data["failed"])
}

func TestTestCommand_GoldenUpdateAndCompare(t *testing.T) {
	dir := writeFiles(t, map[string]string{"passing.yaml": passingScenario})
	scenario := filepath.Join(dir, "passing.yaml")
	golden := filepath.Join(dir, "golden", "passing.golden")

	out, _, err := execute(t, "test", scenario, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "golden updated")

	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"probability":"0.500000"`)

	_, _, err = execute(t, "test", dir)
	require.NoError(t, err, "golden directory is not scanned as scenarios")

	require.NoError(t, os.WriteFile(golden, []byte(`{"tampered":true}`), 0o644))
	out, _, err = execute(t, "test", scenario)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommand_BadScenario(t *testing.T) {
	dir := writeFiles(t, map[string]string{"broken.yaml": "name: broken\n"})

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommand_MissingPath(t *testing.T) {
	_, _, err := execute(t, "test", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_EmptyDir(t *testing.T) {
	out, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}
