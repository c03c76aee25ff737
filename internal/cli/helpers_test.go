package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const addScenario = `
name: add
description: "A pure static method replays on identical arguments"
methods:
  add: { id: "Calc.add(II)I", name: add, static: true, instructions: 4 }
runs:
  - name: main
    steps:
      - call: { method: add, args: ["int:2", "int:3"], return: "int:5" }
      - call:
          method: add
          args: ["int:2", "int:3"]
          expect: { replayed: true, return: "int:5" }
    expect:
      summaries: { add: 1 }
`

const failingScenario = `
name: failing
description: "An expectation that does not hold"
methods:
  add: { id: "Calc.add(II)I", static: true }
runs:
  - name: main
    steps:
      - call: { method: add, args: ["int:2", "int:3"], return: "int:5" }
    expect:
      summaries: { add: 3 }
`

// writeFile writes content under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// testCommand returns a bare command capturing stdout and stderr.
func testCommand() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	return cmd, out, errOut
}
