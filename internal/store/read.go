package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/summa/internal/ir"
	"github.com/roach88/summa/internal/report"
)

// ErrRunNotFound is returned by ReadRun for unknown run ids.
var ErrRunNotFound = errors.New("run not found")

// RunInfo is the stored row of one run.
type RunInfo struct {
	ID              string
	Seq             int64
	Label           string
	UniqueMethods   int
	RecordedMethods int
	EngineVersion   string
	Summaries       int
}

// ListRuns returns every stored run in insertion order.
//
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.seq, r.label, r.unique_methods, r.recorded_methods, r.engine_version,
		       (SELECT COUNT(*) FROM summaries s WHERE s.run_id = r.id)
		FROM runs r
		ORDER BY r.seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunInfo{}
	for rows.Next() {
		var info RunInfo
		if err := rows.Scan(&info.ID, &info.Seq, &info.Label, &info.UniqueMethods,
			&info.RecordedMethods, &info.EngineVersion, &info.Summaries); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LatestRunID returns the id of the most recently stored run.
func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY seq DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrRunNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query latest run: %w", err)
	}
	return id, nil
}

// ReadRun reconstructs the report of a stored run. Its documents marshal
// to the same canonical bytes as the published report's.
//
// Summary ids are recomputed from the stored documents; a mismatch is
// reported as corruption.
func (s *Store) ReadRun(ctx context.Context, runID string) (report.Report, error) {
	r := report.Report{RunID: runID}
	err := s.db.QueryRowContext(ctx, `
		SELECT label, unique_methods, recorded_methods
		FROM runs
		WHERE id = ?
	`, runID).Scan(&r.Label, &r.UniqueMethods, &r.RecordedMethods)
	if errors.Is(err, sql.ErrNoRows) {
		return report.Report{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return report.Report{}, fmt.Errorf("read run %s: %w", runID, err)
	}

	if err := s.readStats(ctx, &r); err != nil {
		return report.Report{}, err
	}
	if err := s.readSummaries(ctx, &r); err != nil {
		return report.Report{}, err
	}
	return r, nil
}

func (s *Store) readStats(ctx context.Context, r *report.Report) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stats
		FROM method_stats
		WHERE run_id = ?
		ORDER BY ordinal ASC
	`, r.RunID)
	if err != nil {
		return fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return fmt.Errorf("scan stats: %w", err)
		}
		c, err := unmarshalCounter(doc)
		if err != nil {
			return err
		}
		r.Stats = append(r.Stats, c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate stats: %w", err)
	}
	return nil
}

func (s *Store) readSummaries(ctx context.Context, r *report.Report) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT method, idx, id, context, modifications
		FROM summaries
		WHERE run_id = ?
		ORDER BY method_ordinal ASC, idx ASC
	`, r.RunID)
	if err != nil {
		return fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			method       string
			e            report.Entry
			ctxDoc, mods string
		)
		if err := rows.Scan(&method, &e.Index, &e.ID, &ctxDoc, &mods); err != nil {
			return fmt.Errorf("scan summary: %w", err)
		}
		if e.Context, err = unmarshalDocument(ctxDoc); err != nil {
			return err
		}
		if e.Modifications, err = unmarshalDocument(mods); err != nil {
			return err
		}

		m := ir.MethodID(method)
		id, err := ir.SummaryID(m, e.Context, e.Modifications)
		if err != nil {
			return fmt.Errorf("summary %s[%d]: %w", m, e.Index, err)
		}
		if id != e.ID {
			return fmt.Errorf("summary %s[%d]: stored id %s does not match content %s", m, e.Index, e.ID, id)
		}

		if n := len(r.Summaries); n == 0 || r.Summaries[n-1].Method != m {
			r.Summaries = append(r.Summaries, report.MethodSummaries{Method: m})
		}
		last := &r.Summaries[len(r.Summaries)-1]
		last.Entries = append(last.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate summaries: %w", err)
	}
	return nil
}
