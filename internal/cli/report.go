package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/summa/internal/ir"
	"github.com/roach88/summa/internal/report"
	"github.com/roach88/summa/internal/store"
)

// LatestRun selects the most recently stored run.
const LatestRun = "latest"

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Database string
	RunID    string
}

// RunList is the stored-run listing.
type RunList struct {
	Runs []store.RunInfo `json:"runs"`
}

// WriteText prints one line per run.
func (l RunList) WriteText(w io.Writer) error {
	if len(l.Runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs stored.")
		return err
	}
	for _, r := range l.Runs {
		label := r.Label
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(w, "%4d  %s  %-16s methods=%d recorded=%d summaries=%d\n",
			r.Seq, r.ID, label, r.UniqueMethods, r.RecordedMethods, r.Summaries)
	}
	return nil
}

// storedReport renders one run's documents.
type storedReport struct {
	report report.Report
}

func (s storedReport) MarshalJSON() ([]byte, error) {
	doc, err := ir.MarshalCanonical(s.report.Document())
	if err != nil {
		return nil, err
	}
	return json.RawMessage(doc), nil
}

func (s storedReport) WriteText(w io.Writer) error { return s.report.WriteText(w) }

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show persisted run reports",
		Long: `List the runs stored in a report database, or print one run's
methodStats and summaries documents.

Examples:
  summa report --db ./summa.db
  summa report --db ./summa.db --run latest
  summa report --db ./summa.db --run 0192f5e4-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from store.path)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", `run id to print, or "latest"`)

	return cmd
}

func runReport(opts *ReportOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	dbPath := firstNonEmpty(opts.Database, opts.settings().Store.Path)
	if dbPath == "" {
		return NewExitError(ExitCommandError, "no database: set --db or store.path")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", dbPath))
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.RunID == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		return formatter.Success(RunList{Runs: runs})
	}

	r, err := readReport(ctx, st, opts.RunID)
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "run not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	return formatter.Success(storedReport{report: r})
}

func readReport(ctx context.Context, st *store.Store, runID string) (report.Report, error) {
	if runID == LatestRun {
		latest, err := st.LatestRunID(ctx)
		if err != nil {
			return report.Report{}, err
		}
		runID = latest
	}
	return st.ReadRun(ctx, runID)
}
