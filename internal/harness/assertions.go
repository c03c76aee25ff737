package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/summa/internal/engine"
	"github.com/roach88/summa/internal/heap"
	"github.com/roach88/summa/internal/ir"
	"github.com/roach88/summa/internal/report"
	"github.com/roach88/summa/internal/stats"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Scope    string // Where the expectation was declared
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: %s: expected %s, got %s", e.Scope, e.Type, e.Expected, e.Actual)
}

// checkCall evaluates a call's expectations against its outcome.
func checkCall(at string, exp *CallExpect, replayed bool, ret ir.Value) []string {
	var errs []string
	if exp.Replayed != nil && *exp.Replayed != replayed {
		errs = append(errs, (&AssertionError{
			Scope:    at,
			Type:     "replayed",
			Expected: fmt.Sprint(*exp.Replayed),
			Actual:   fmt.Sprint(replayed),
		}).Error())
	}
	if exp.Return != "" {
		var want ir.Value
		if exp.Return != "void" {
			// Literals were validated when the scenario was loaded.
			want = ir.MustParseValue(exp.Return)
		}
		if !ir.Equal(want, ret) {
			errs = append(errs, (&AssertionError{
				Scope:    at,
				Type:     "return",
				Expected: ir.Format(want),
				Actual:   ir.Format(ret),
			}).Error())
		}
	}
	return errs
}

// evaluateRunExpect checks a finished run against its expectations. The
// engine still holds the run's state until the next RunStarted.
func evaluateRunExpect(scope string, exp *RunExpect, resolve func(string) ir.MethodID, eng *engine.Engine, rep report.Report, hp *heap.Heap) []string {
	var errs []string
	fail := func(typ, expected, actual string) {
		errs = append(errs, (&AssertionError{Scope: scope, Type: typ, Expected: expected, Actual: actual}).Error())
	}

	for _, alias := range sortedKeys(exp.Summaries) {
		m := resolve(alias)
		if got := rep.SummaryCount(m); got != exp.Summaries[alias] {
			fail("summaries["+alias+"]", fmt.Sprint(exp.Summaries[alias]), fmt.Sprint(got))
		}
	}
	for _, alias := range exp.Blacklisted {
		if !eng.Blacklisted(resolve(alias)) {
			fail("blacklisted", alias+" blacklisted", "not blacklisted")
		}
	}
	for _, alias := range exp.NotBlacklisted {
		if eng.Blacklisted(resolve(alias)) {
			fail("not_blacklisted", alias+" not blacklisted", "blacklisted")
		}
	}
	for _, alias := range exp.Recorded {
		if !eng.Recorded(resolve(alias)) {
			fail("recorded", alias+" recorded", "bucket not full")
		}
	}

	for _, f := range exp.Fields {
		want := ir.MustParseValue(f.Value)
		got, err := liveField(hp, f.FieldRef)
		if err != nil {
			fail("field", fieldName(f.FieldRef)+" = "+want.String(), err.Error())
			continue
		}
		if !ir.Equal(want, got) {
			fail("field", fieldName(f.FieldRef)+" = "+want.String(), got.String())
		}
	}

	for _, alias := range sortedKeys(exp.Stats) {
		c, ok := rep.Counter(resolve(alias))
		if !ok {
			fail("stats["+alias+"]", "a counter", "method never invoked")
			continue
		}
		for _, msg := range compareStats(exp.Stats[alias], c) {
			fail("stats["+alias+"]", msg[0], msg[1])
		}
	}

	if exp.UniqueMethods != nil && *exp.UniqueMethods != rep.UniqueMethods {
		fail("unique_methods", fmt.Sprint(*exp.UniqueMethods), fmt.Sprint(rep.UniqueMethods))
	}
	if exp.RecordedMethods != nil && *exp.RecordedMethods != rep.RecordedMethods {
		fail("recorded_methods", fmt.Sprint(*exp.RecordedMethods), fmt.Sprint(rep.RecordedMethods))
	}
	return errs
}

// compareStats returns expected/actual pairs for every mismatched counter.
func compareStats(exp StatsExpect, c stats.Counter) [][2]string {
	var out [][2]string
	ints := []struct {
		name string
		want *int
		got  int
	}{
		{"total_calls", exp.TotalCalls, c.TotalCalls},
		{"args_match", exp.ArgsMatch, c.ArgsMatchCount},
		{"reads", exp.Reads, c.ReadCount},
		{"writes", exp.Writes, c.WriteCount},
		{"attempted_match", exp.AttemptedMatch, c.AttemptedMatchCount},
		{"failed_match", exp.FailedMatch, c.FailedMatchCount},
	}
	for _, f := range ints {
		if f.want != nil && *f.want != f.got {
			out = append(out, [2]string{fmt.Sprintf("%s=%d", f.name, *f.want), fmt.Sprintf("%s=%d", f.name, f.got)})
		}
	}
	if exp.Recorded != nil && *exp.Recorded != c.Recorded {
		out = append(out, [2]string{fmt.Sprintf("recorded=%t", *exp.Recorded), fmt.Sprintf("recorded=%t", c.Recorded)})
	}
	if exp.Interruption != nil && *exp.Interruption != c.Interruption {
		out = append(out, [2]string{fmt.Sprintf("interruption=%q", *exp.Interruption), fmt.Sprintf("interruption=%q", c.Interruption)})
	}
	return out
}

func liveField(hp *heap.Heap, ref FieldRef) (ir.Value, error) {
	if ref.Object != nil {
		return hp.Field(ir.ObjectRef(*ref.Object), ref.Field)
	}
	return hp.StaticField(ir.TypeRef(ref.Static), ref.Field)
}

func fieldName(ref FieldRef) string {
	if ref.Object != nil {
		return fmt.Sprintf("%d.%s", *ref.Object, ref.Field)
	}
	return ref.Static + "." + ref.Field
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FormatErrors renders a failed result's errors one per line.
func FormatErrors(r *Result) string {
	return strings.Join(r.Errors, "\n")
}
