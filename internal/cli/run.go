package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/summa/internal/engine"
	"github.com/roach88/summa/internal/harness"
	"github.com/roach88/summa/internal/ir"
	"github.com/roach88/summa/internal/metrics"
	"github.com/roach88/summa/internal/policy"
	"github.com/roach88/summa/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database   string
	PolicyPath string
	MetricsOut string

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// RunOutput is the result of the run command.
type RunOutput struct {
	Scenario string      `json:"scenario"`
	Pass     bool        `json:"pass"`
	Errors   []string    `json:"errors,omitempty"`
	Runs     []RunReport `json:"runs"`
}

// RunReport is one run's report as canonical JSON.
type RunReport struct {
	Name   string          `json:"name"`
	RunID  string          `json:"run_id"`
	Report json.RawMessage `json:"report"`

	text func(io.Writer) error
}

// WriteText renders every run's report followed by failed expectations.
func (o RunOutput) WriteText(w io.Writer) error {
	for _, run := range o.Runs {
		if err := run.text(w); err != nil {
			return err
		}
	}
	for _, e := range o.Errors {
		fmt.Fprintf(w, "✗ %s\n", e)
	}
	return nil
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Drive a scenario through the engine",
		Long: `Drive a scenario's host events through the recording engine and print
each run's report.

Reports are persisted when a database is given (--db or store.path) and
engine metrics are written in Prometheus text format when --metrics-out
(or metrics.output) is set.

Exit codes:
  0 - Scenario ran and its expectations held
  1 - One or more expectations failed
  2 - Command error (unreadable scenario, bad policy, database error)

Example:
  summa run ./scenarios/counter.yaml
  summa run --db ./summa.db --policy ./policy.cue ./scenarios/counter.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for reports")
	cmd.Flags().StringVar(&opts.PolicyPath, "policy", "", "path to CUE policy file")
	cmd.Flags().StringVar(&opts.MetricsOut, "metrics-out", "", "write Prometheus metrics to this file")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	cfg := opts.settings()
	logger := opts.logger(cmd.ErrOrStderr())
	formatter := opts.formatter(cmd)

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	base, err := loadPolicy(firstNonEmpty(opts.PolicyPath, cfg.Policy.Path))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load policy", err)
	}

	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = engine.UUIDv7Generator{}
	}
	harnessOpts := []harness.Option{
		harness.WithPolicy(base),
		harness.WithLogger(logger),
		harness.WithRunIDs(runIDs),
	}

	if dbPath := firstNonEmpty(opts.Database, cfg.Store.Path); dbPath != "" {
		logger.Info("opening database", "path", dbPath)
		st, err := store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		harnessOpts = append(harnessOpts, harness.WithReportSink(st))
	}

	var rec *metrics.Recorder
	metricsOut := firstNonEmpty(opts.MetricsOut, cfg.Metrics.Output)
	if metricsOut != "" {
		rec = metrics.New()
		harnessOpts = append(harnessOpts, harness.WithMetrics(rec))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := harness.Run(ctx, scenario, harnessOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario execution failed", err)
	}

	if rec != nil {
		if err := rec.WriteTextfile(metricsOut); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
		formatter.VerboseLog("Metrics written to %s", metricsOut)
	}

	out := RunOutput{
		Scenario: scenario.Name,
		Pass:     result.Pass,
		Errors:   result.Errors,
		Runs:     make([]RunReport, 0, len(result.Runs)),
	}
	for _, run := range result.Runs {
		doc, err := ir.MarshalCanonical(run.Report.Document())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to render report", err)
		}
		out.Runs = append(out.Runs, RunReport{
			Name:   run.Name,
			RunID:  run.RunID,
			Report: doc,
			text:   run.Report.WriteText,
		})
	}

	if err := formatter.Success(out); err != nil {
		return err
	}
	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s: %d expectation(s) failed", scenario.Name, len(result.Errors)))
	}
	logger.Debug("scenario passed", "scenario", scenario.Name)
	return nil
}

// loadPolicy reads a CUE policy file, or returns the stock policy for an
// empty path.
func loadPolicy(path string) (engine.Policy, error) {
	if path == "" {
		return engine.DefaultPolicy(), nil
	}
	return policy.Load(path)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
