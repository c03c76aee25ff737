package testutil

import (
	"fmt"
	"sync/atomic"
)

// SequentialRunIDs generates "<prefix>-1", "<prefix>-2", ... and never
// runs out. It satisfies engine.RunIDGenerator.
//
// Golden snapshots embed run ids, so harness scenarios use the scenario
// name as prefix.
type SequentialRunIDs struct {
	prefix string
	n      atomic.Int64
}

// NewSequentialRunIDs returns a generator for prefix; an empty prefix
// becomes "run".
func NewSequentialRunIDs(prefix string) *SequentialRunIDs {
	if prefix == "" {
		prefix = "run"
	}
	return &SequentialRunIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialRunIDs) Generate() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.n.Add(1))
}
