package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jpqlc/internal/compiler"
)

func TestValidate_Valid(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, fragmentDir(t))
	require.NoError(t, err)
	assert.Contains(t, out, "All 4 fragment(s) valid")
}

func TestValidate_ValidJSON(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, fragmentDir(t))
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestValidate_Verbose(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "json", Verbose: true})
	out, errOut, err := execute(cmd, fragmentDir(t))
	require.NoError(t, err)

	// Diagnostics stay off stdout so the JSON remains parseable.
	assert.Contains(t, errOut, "Validating fragment: adults")
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "frags.yaml", `
fragments:
  pow:
    kind: dyadic
    op: POW
    left: {kind: path, id: a}
    right: {kind: path, id: b}
  empty_path: {kind: path, id: ""}
  dangling: {kind: ref, name: nowhere}
`)

	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, 3, resp.Data.Fragments)

	// Reference errors are reported before tree checks run.
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, compiler.ErrUnknownReference, resp.Data.Errors[0].Code)
}

func TestValidate_TreeErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "frags.yaml", `
fragments:
  pow:
    kind: dyadic
    op: POW
    left: {kind: path, id: a}
    right: {kind: path, id: b}
  empty_path: {kind: path, id: ""}
`)

	errs, err := ValidatePath(dir)
	require.NoError(t, err)
	require.Len(t, errs, 2)

	codes := []string{errs[0].Code, errs[1].Code}
	assert.Contains(t, codes, compiler.ErrMalformedDocument)
	assert.Contains(t, codes, "E205")
}

func TestValidate_TextFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "frags.yaml", "fragments:\n  a: {kind: ref, name: a}\n")

	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, dir)
	require.Error(t, err)
	assert.Contains(t, out, "Validation failed")
	assert.Contains(t, out, compiler.ErrReferenceCycle)
	assert.Contains(t, out, "fragment references itself: a → a")
}

func TestValidate_LoadErrorsBecomeValidationErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.yaml", "fragments:\n  a: {kind: path, id: a}\n")
	writeFile(t, dir, "broken.yaml", "fragments: [")

	errs, err := ValidatePath(dir)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCodeParseFailed, errs[0].Code)
	assert.Equal(t, "load", errs[0].Field)
}

func TestValidate_NonExistentPath(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}
