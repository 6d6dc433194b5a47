package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jpqlc/internal/harness"
)

const nullScenario = `
name: null_checks
description: Null comparisons
cases:
  - name: is_null
    tree:
      kind: dyadic
      op: EQ
      left: {kind: path, id: status}
      right: {kind: literal}
    expect: "(status IS NULL)"
  - name: soundex
    tree:
      kind: invoke
      operation: soundex
      target: {kind: path, id: name}
    error: UnsupportedFunction
`

const failingScenario = `
name: wrong_expectation
description: Expects the wrong text
cases:
  - name: age
    tree: {kind: path, id: age}
    expect: "p.age"
`

func TestTestCommand_MissingArgs(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	_, _, err := execute(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestTestCommand_NonExistentPath(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	_, _, err := execute(cmd, "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenario path not found")
}

func TestTestCommand_EmptyDir(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommand_Pass(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "null_checks.yaml", nullScenario)

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, dir)
	require.NoError(t, err)

	assert.Contains(t, out, "null_checks")
	assert.Contains(t, out, "| Scenario")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "All scenarios passed")
}

func TestTestCommand_Fail(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "null_checks.yaml", nullScenario)
	writeFile(t, dir, "wrong.yaml", failingScenario)

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `age: expected "p.age", got "age"`)
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommand_LoadError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", "name: broken\n")

	cmd := NewTestCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, dir)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "broken.yaml", resp.Data.Scenarios[0].Name)
	assert.Contains(t, resp.Data.Scenarios[0].Errors[0], "failed to load scenario")
}

func TestTestCommand_Filter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "null_checks.yaml", nullScenario)
	writeFile(t, dir, "wrong.yaml", failingScenario)

	cmd := NewTestCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, dir, "--filter", "null_*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Scenarios[0].Cases)
}

func TestTestCommand_Golden(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "null_checks.yaml", nullScenario)
	goldenPath := filepath.Join(dir, "golden", "null_checks.golden")

	// --update writes the snapshot.
	_, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), file, "--update")
	require.NoError(t, err)

	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)

	scenario, err := harness.LoadScenario(file)
	require.NoError(t, err)
	result, err := harness.Run(scenario)
	require.NoError(t, err)
	want, err := harness.Snapshot(result)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(golden))

	// A matching golden file passes.
	_, _, err = execute(NewTestCommand(&RootOptions{Format: "text"}), file)
	require.NoError(t, err)

	// A stale golden file fails.
	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"stale":true}`), 0644))
	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), file)
	require.Error(t, err)
	assert.Contains(t, out, "do not match golden file")
}
