// Package harness replays scripted host executions against the engine.
//
// A scenario stands in for the model checker: it declares the methods it
// calls, an initial heap, and one or more runs of steps. The harness turns
// each step into the engine event a host would emit, honors the engine's
// replay decisions (a replayed call's body is skipped), and checks the
// expectations declared in the scenario.
//
// # Scenario Format
//
//	name: counter
//	description: "Getter replays while the field is unchanged"
//	methods:
//	  get: { id: "Counter.get()I", name: get, instructions: 3 }
//	heap:
//	  objects:
//	    - { ref: 1, class: Counter, fields: { count: "int:10" } }
//	runs:
//	  - name: first
//	    steps:
//	      - call:
//	          method: get
//	          this: 1
//	          return_field: { object: 1, field: count }
//	      - call:
//	          method: get
//	          this: 1
//	          expect: { replayed: true, return: "int:10" }
//	    expect:
//	      summaries: { get: 1 }
//
// Values use the kind:literal form ("int:5", "text:abc", "ref:2",
// "null"). A call without return or return_field is void.
//
// # Steps
//
//   - call: enter a method, run its body unless replayed, return
//   - read, write: field access by the innermost executing call
//   - set: heap mutation the engine does not observe
//   - native: a native method executed by the current call
//   - interrupt: a scheduling or sharing event by kind name
//
// # Deterministic Testing
//
// Run ids come from testutil.SequentialRunIDs and trace sequence numbers
// from testutil.DeterministicClock, reset at every run, so snapshots are
// byte-identical across executions and can be compared with golden files.
package harness
