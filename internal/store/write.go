package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/summa/internal/ir"
	"github.com/roach88/summa/internal/report"
)

// Publish writes a finished-run report: the run row, its method stats and
// its summaries, in one transaction.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: a run id already in the
// store is left untouched and Publish returns nil.
func (s *Store) Publish(ctx context.Context, r report.Report) error {
	if r.RunID == "" {
		return fmt.Errorf("write run: empty run id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, label, unique_methods, recorded_methods, engine_version, report_version)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM runs), ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.RunID,
		r.Label,
		r.UniqueMethods,
		r.RecordedMethods,
		ir.EngineVersion,
		ir.ReportVersion,
	)
	if err != nil {
		return fmt.Errorf("write run %s: %w", r.RunID, err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("write run %s: rows affected: %w", r.RunID, err)
	}
	if inserted == 0 {
		return tx.Commit()
	}

	for i, c := range r.Stats {
		doc, err := marshalCounter(c)
		if err != nil {
			return fmt.Errorf("write run %s: stats %s: %w", r.RunID, c.Method, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO method_stats (run_id, ordinal, method, stats)
			VALUES (?, ?, ?, ?)
		`, r.RunID, i, string(c.Method), doc); err != nil {
			return fmt.Errorf("write run %s: stats %s: %w", r.RunID, c.Method, err)
		}
	}

	for mi, ms := range r.Summaries {
		for _, e := range ms.Entries {
			if err := writeSummary(ctx, tx, r.RunID, mi, ms.Method, e); err != nil {
				return fmt.Errorf("write run %s: summary %s[%d]: %w", r.RunID, ms.Method, e.Index, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run %s: commit: %w", r.RunID, err)
	}
	return nil
}

func writeSummary(ctx context.Context, tx *sql.Tx, runID string, methodOrdinal int, m ir.MethodID, e report.Entry) error {
	ctxDoc, err := marshalDocument(e.Context)
	if err != nil {
		return err
	}
	mods, err := marshalDocument(e.Modifications)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO summaries (run_id, method_ordinal, method, idx, id, context, modifications)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, runID, methodOrdinal, string(m), e.Index, e.ID, ctxDoc, mods)
	return err
}
