package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const peopleCUE = `
fragment: adults: {
	kind: "dyadic"
	op:   "GT"
	left: {kind: "path", id: "age"}
	right: {kind: "literal", value: 18}
}

fragment: "active-name": {
	kind:      "invoke"
	operation: "toLowerCase"
	target: {kind: "path", id: "name"}
}
`

const extrasYAML = `
fragments:
  retired:
    kind: dyadic
    op: EQ
    left: {kind: path, id: retired}
    right: {kind: literal}
  adult_names:
    kind: dyadic
    op: AND
    left: {kind: ref, name: adults}
    right: {kind: ref, name: retired}
`

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// fragmentDir creates a directory holding people.cue and extras.yaml.
func fragmentDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "people.cue", peopleCUE)
	writeFile(t, dir, "extras.yaml", extrasYAML)
	return dir
}

// execute runs cmd with args and returns stdout, stderr and the error.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
