package engine

import "github.com/roach88/summa/internal/ir"

// tryReplay attempts to satisfy a call from a committed summary.
//
// The first summary whose footprint holds against the live state is
// selected. If any of its write targets is frozen the call executes
// normally. Otherwise the summary is folded into every active recording
// (footprint and ledger merged, inner entries winning), its writes are
// applied, and the method stops recording without being blacklisted, so a
// recursive outer activation of the same method is abandoned.
//
// ok is false when the call must execute.
func (e *Engine) tryReplay(seq int64, ev MethodEntered) (d Decision, ok bool, err error) {
	rs := e.run
	id := ev.Method.ID
	if !rs.store.Has(id) {
		return Decision{}, false, nil
	}

	rs.counters.AttemptedMatch(id)
	e.metrics.MatchAttempted()

	match, found := rs.store.FindMatch(e.live, id, ev.Args, ev.Callee, ev.Runnable == 1)
	if !found {
		rs.counters.FailedMatch(id)
		e.metrics.MatchFailed()
		return Decision{}, false, nil
	}
	rs.counters.MatchedArguments(id)

	if match.Ledger.AnyTargetFrozen(e.live) {
		e.logger.Debug("replay skipped: frozen target",
			"run_id", rs.id,
			"seq", seq,
			"method", id,
			"summary", match.Index,
		)
		return Decision{}, false, nil
	}

	for _, m := range rs.recording {
		p, ok := rs.pending[m]
		if !ok {
			return Decision{}, false, e.fail(seq, newFault(ErrCodeMissingPending, m, "fold target has no pending state"))
		}
		p.footprint.Merge(match.Footprint)
		p.ledger.Merge(match.Ledger)
	}

	ret, err := match.Ledger.Apply(e.live)
	if err != nil {
		f := newFault(ErrCodeApplyFailed, id, "summary %d", match.Index)
		f.Err = err
		return Decision{}, false, e.fail(seq, f)
	}

	rs.counters.Replayed(id)
	rs.stopRecording(id)
	e.metrics.Replayed()
	e.logger.Debug("summary applied",
		"run_id", rs.id,
		"seq", seq,
		"method", id,
		"summary", match.Index,
		"return", ir.Format(ret),
		"folded_into", len(rs.recording),
	)
	return Decision{Replay: true, Return: ret, Summary: match.Index}, true, nil
}
