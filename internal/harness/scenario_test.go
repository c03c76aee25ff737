package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/summa/internal/engine"
	"github.com/roach88/summa/internal/ir"
)

func TestLoadScenario(t *testing.T) {
	s := loadTestScenario(t, "counter")

	assert.Equal(t, "counter", s.Name)
	assert.Equal(t, ir.MethodID("Counter.get()I"), s.Methods["get"].ID)
	assert.Equal(t, 3, s.Methods["get"].Instructions)
	require.Len(t, s.Heap.Objects, 1)
	assert.Equal(t, "int:10", s.Heap.Objects[0].Fields["count"])
	require.Len(t, s.Runs, 1)
	require.Len(t, s.Runs[0].Steps, 4)
	assert.NotNil(t, s.Runs[0].Steps[0].Call.ReturnField)
	assert.NotNil(t, s.Runs[0].Steps[2].Set)
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenarioFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: disk
description: "d"
methods:
  m: { id: "A.m()V", static: true }
runs:
  - steps:
      - call: { method: m }
`), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "disk", s.Name)
}

func TestParseScenarioErrors(t *testing.T) {
	const header = `
name: bad
description: "d"
methods:
  m: { id: "A.m()V", static: true }
`
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing name", `
description: "d"
runs: [{ steps: [{ native: "A.n()V" }] }]
`, "name is required"},
		{"missing description", `
name: x
runs: [{ steps: [{ native: "A.n()V" }] }]
`, "description is required"},
		{"no runs", `
name: x
description: "d"
`, "runs list is required"},
		{"typo", header + `
runs:
  - steps:
      - call: { method: m, retrun: "int:1" }
`, "failed to parse YAML"},
		{"empty steps", header + `
runs:
  - name: r
`, "runs[0]: steps list is required"},
		{"two actions", header + `
runs:
  - steps:
      - { native: "A.n()V", interrupt: object_locked }
`, "exactly one of call"},
		{"unknown method", header + `
runs:
  - steps:
      - call: { method: nope }
`, `unknown method "nope"`},
		{"bad argument", header + `
runs:
  - steps:
      - call: { method: m, args: ["five"] }
`, "runs[0].steps[0].call.args"},
		{"nested error path", header + `
runs:
  - steps:
      - call:
          method: m
          body:
            - read: { field: x }
`, "runs[0].steps[0].call.body[0].read: exactly one of object or static"},
		{"return and return_field", header + `
runs:
  - steps:
      - call: { method: m, return: "int:1", return_field: { static: A, field: x } }
`, "exclusive"},
		{"bad interrupt", header + `
runs:
  - steps:
      - interrupt: lunch
`, `unknown interruption kind "lunch"`},
		{"bad kind", header + `
runs:
  - steps:
      - call:
          method: m
          body:
            - write: { static: A, field: x, value: "int:1", kind: number }
`, "number"},
		{"missing method id", `
name: x
description: "d"
methods:
  m: { name: m }
runs: [{ steps: [{ native: "A.n()V" }] }]
`, "methods.m: id is required"},
		{"duplicate ref", header + `
heap:
  objects:
    - { ref: 1, class: A }
    - { ref: 1, class: B }
runs: [{ steps: [{ native: "A.n()V" }] }]
`, "duplicate ref 1"},
		{"bad heap literal", header + `
heap:
  statics:
    - { type: A, fields: { x: "int:abc" } }
runs: [{ steps: [{ native: "A.n()V" }] }]
`, "heap.statics[0]: field x"},
		{"capacity above cap", header + `
policy: { capacity: 101 }
runs: [{ steps: [{ native: "A.n()V" }] }]
`, "policy.capacity must be between 1 and 100"},
		{"bad expected field", header + `
runs:
  - steps: [{ native: "A.n()V" }]
    expect:
      fields:
        - { object: 1, field: x, value: "int" }
`, "runs[0].expect.fields[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPolicyOverrides(t *testing.T) {
	base := engine.DefaultPolicy()

	var none *PolicyOverrides
	assert.Equal(t, base, none.apply(base))

	o := &PolicyOverrides{
		Capacity:    7,
		NativeAllow: []string{"hashCode"},
		Blacklist:   []string{"A.b()V"},
		EntryMethod: "Main.main()V",
	}
	p := o.apply(base)
	assert.Equal(t, 7, p.Capacity)
	assert.Equal(t, []string{"hashCode"}, p.NativeAllowList)
	assert.Equal(t, []ir.MethodID{"A.b()V"}, p.Blacklist)
	assert.Equal(t, base.BlacklistPatterns, p.BlacklistPatterns)
	assert.Equal(t, ir.MethodID("Main.main()V"), p.EntryMethod)

	// An explicitly empty list clears the base list.
	p = (&PolicyOverrides{Blacklist: []string{}}).apply(base)
	assert.Empty(t, p.Blacklist)
}
