package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/summa/internal/ir"
)

// Snapshot renders a scenario result as canonical JSON: every run's trace
// and report. Run ids are included, so snapshots are only stable with a
// deterministic run id source.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	runs := make([]any, len(result.Runs))
	for i, run := range result.Runs {
		trace := make([]any, len(run.Trace))
		for j, ev := range run.Trace {
			trace[j] = ev.document()
		}
		runs[i] = map[string]any{
			"name":   run.Name,
			"run_id": run.RunID,
			"trace":  trace,
			"report": run.Report.Document(),
		}
	}
	return ir.MarshalCanonical(map[string]any{
		"scenario": scenarioName,
		"runs":     runs,
	})
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Expectation failures and snapshot mismatches fail t.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, opts...)
	if err != nil {
		return nil, err
	}
	if !result.Pass {
		t.Errorf("scenario %s failed:\n%s", scenario.Name, FormatErrors(result))
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's snapshot against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
