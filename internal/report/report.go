// Package report assembles the end-of-run report: per-method counters,
// aggregates and the committed summaries, rendered as the methodStats and
// summaries documents.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/summa/internal/ir"
	"github.com/roach88/summa/internal/stats"
	"github.com/roach88/summa/internal/summary"
)

// Report is an immutable snapshot of one finished run.
type Report struct {
	RunID           string
	Label           string
	UniqueMethods   int
	RecordedMethods int
	Stats           []stats.Counter
	Summaries       []MethodSummaries
}

// MethodSummaries is one method's committed summaries in commit order.
type MethodSummaries struct {
	Method  ir.MethodID
	Entries []Entry
}

// Entry is one committed summary.
type Entry struct {
	ID            string
	Index         int
	Context       map[string]any
	Modifications map[string]any
}

// Build snapshots a run's summary store and counters.
func Build(runID, label string, store *summary.Store, counters *stats.Ledger) (Report, error) {
	r := Report{
		RunID:           runID,
		Label:           label,
		UniqueMethods:   counters.UniqueMethods(),
		RecordedMethods: counters.RecordedMethods(),
		Stats:           counters.Snapshot(),
	}
	for _, m := range store.Methods() {
		ms := MethodSummaries{Method: m}
		for _, sum := range store.Summaries(m) {
			ctx := sum.Footprint.Document()
			mods := sum.Ledger.Document()
			id, err := ir.SummaryID(m, ctx, mods)
			if err != nil {
				return Report{}, fmt.Errorf("report: summary %s[%d]: %w", m, sum.Index, err)
			}
			ms.Entries = append(ms.Entries, Entry{ID: id, Index: sum.Index, Context: ctx, Modifications: mods})
		}
		r.Summaries = append(r.Summaries, ms)
	}
	return r, nil
}

// SummaryCount returns the number of summaries reported for m.
func (r Report) SummaryCount(m ir.MethodID) int {
	for _, ms := range r.Summaries {
		if ms.Method == m {
			return len(ms.Entries)
		}
	}
	return 0
}

// Counter returns m's counter.
func (r Report) Counter(m ir.MethodID) (stats.Counter, bool) {
	for _, c := range r.Stats {
		if c.Method == m {
			return c, true
		}
	}
	return stats.Counter{}, false
}

func (r Report) methodStats() []any {
	out := make([]any, len(r.Stats))
	for i, c := range r.Stats {
		out[i] = c.Document()
	}
	return out
}

func (r Report) summaries() []any {
	out := make([]any, len(r.Summaries))
	for i, ms := range r.Summaries {
		entries := make([]any, len(ms.Entries))
		for j, e := range ms.Entries {
			entries[j] = map[string]any{"context": e.Context, "modifications": e.Modifications}
		}
		out[i] = map[string]any{string(ms.Method): entries}
	}
	return out
}

// StatsJSON renders {"methodStats":[...]} as canonical JSON.
func (r Report) StatsJSON() ([]byte, error) {
	return ir.MarshalCanonical(map[string]any{"methodStats": r.methodStats()})
}

// SummariesJSON renders {"summaries":[{method:[{context,modifications}]}]}
// as canonical JSON.
func (r Report) SummariesJSON() ([]byte, error) {
	return ir.MarshalCanonical(map[string]any{"summaries": r.summaries()})
}

// Document is the full report object: both contract documents plus run
// identity and aggregates.
func (r Report) Document() map[string]any {
	return map[string]any{
		"run_id":           r.RunID,
		"label":            r.Label,
		"unique_methods":   r.UniqueMethods,
		"recorded_methods": r.RecordedMethods,
		"methodStats":      r.methodStats(),
		"summaries":        r.summaries(),
	}
}

// WriteText writes a human-readable rendering of the report.
func (r Report) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s", r.RunID)
	if r.Label != "" {
		fmt.Fprintf(&b, " (%s)", r.Label)
	}
	fmt.Fprintf(&b, ": %d unique methods, %d recorded\n", r.UniqueMethods, r.RecordedMethods)

	for _, c := range r.Stats {
		fmt.Fprintf(&b, "%s\n", c.Method)
		fmt.Fprintf(&b, "  called %d times, %d instructions, recorded=%t\n", c.TotalCalls, c.InstructionCount, c.Recorded)
		fmt.Fprintf(&b, "  reads=%d writes=%d\n", c.ReadCount, c.WriteCount)
		fmt.Fprintf(&b, "  matches=%d attempted=%d failed=%d\n", c.ArgsMatchCount, c.AttemptedMatchCount, c.FailedMatchCount)
		if c.Interruption != "" {
			fmt.Fprintf(&b, "  interrupted: %s\n", c.Interruption)
		}
		if n := r.SummaryCount(c.Method); n > 0 {
			fmt.Fprintf(&b, "  summaries: %d\n", n)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
