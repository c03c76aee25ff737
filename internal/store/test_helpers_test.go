package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/summa/internal/heap"
	"github.com/roach88/summa/internal/ir"
	"github.com/roach88/summa/internal/report"
	"github.com/roach88/summa/internal/stats"
	"github.com/roach88/summa/internal/summary"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestReport builds a report with one pure and one field-dependent
// method, two summaries each.
func createTestReport(t *testing.T, runID string) report.Report {
	t.Helper()
	h := heap.New()
	ref := h.Alloc(&heap.Object{Class: "Counter", Fields: map[string]ir.Value{"count": ir.Int(10)}})

	store := summary.NewStore(0)
	counters := stats.NewLedger()

	add := ir.MethodID("Calc.add(II)I")
	inc := ir.MethodID("Counter.increment()V")
	counters.Invoked(add, 4)
	counters.Invoked(inc, 6)

	for _, n := range []int32{1, 2} {
		args := []ir.Value{ir.Int(n), ir.Int(n)}
		l := summary.NewLedger(args)
		l.SetReturn(ir.Int(2 * n))
		_, err := store.Add(add, summary.NewFootprint(h, args, ir.NullRef, true), l)
		require.NoError(t, err)
	}
	counters.MarkRecorded(add)

	for _, n := range []int32{10, 11} {
		fp := summary.NewFootprint(h, nil, ref, n == 10)
		fp.ObserveInstanceRead(ref, "count", ir.Int(n))
		l := summary.NewLedger(nil)
		l.AddInstanceWrite(ref, "count", ir.KindInt, ir.Int(n+1))
		_, err := store.Add(inc, fp, l)
		require.NoError(t, err)
	}
	counters.Read(inc)
	counters.Write(inc)
	counters.Interrupt(inc, "object_locked")

	r, err := report.Build(runID, "sample", store, counters)
	require.NoError(t, err)
	return r
}
