package engine

import (
	"github.com/roach88/summa/internal/ir"
	"github.com/roach88/summa/internal/summary"
)

// MethodEntered handles a call entry and decides whether the host replays
// it.
//
// Order of evaluation:
//  1. Dormant runs ignore everything until the entry method is entered.
//  2. Blacklisted methods are ignored; an intrinsically blacklisted one
//     also aborts every active recording.
//  3. A matching summary is replayed (see tryReplay).
//  4. Otherwise the call is counted and, unless its bucket is full, starts
//     recording. Disqualified calls abort the whole active stack.
func (e *Engine) MethodEntered(ev MethodEntered) (Decision, error) {
	seq, err := e.ready(ev)
	if err != nil {
		return Decision{}, err
	}
	rs := e.run
	id := ev.Method.ID
	if id == "" {
		return Decision{}, e.fail(seq, newFault(ErrCodeInvalidEvent, "", "method entered without identity"))
	}
	// Static calls have no receiver, whatever handle the host sent.
	if ev.Method.Static {
		ev.Callee = ir.NullRef
	}

	if rs.dormant {
		if id != e.policy.EntryMethod {
			return Decision{}, nil
		}
		rs.dormant = false
		e.logger.Debug("entry method reached", "run_id", rs.id, "seq", seq, "method", id)
	}

	if entry, ok := rs.blacklist[id]; ok {
		if entry.intrinsic && len(rs.recording) > 0 {
			e.abort(seq, "", entry.reason, false)
		}
		return Decision{}, nil
	}

	if d, ok, err := e.tryReplay(seq, ev); err != nil || ok {
		return d, err
	}

	rs.counters.Invoked(id, ev.Method.Instructions)
	if !rs.recorded[id] {
		rs.startRecording(id)
	}

	if reason := e.policy.disqualify(ev.Method); reason != "" {
		e.abort(seq, id, reason, true)
		return Decision{}, nil
	}
	if !ev.Method.Static && ev.Callee == ir.NullRef {
		e.abort(seq, id, ReasonFaultyThis, false)
		return Decision{}, nil
	}

	if rs.isRecording(id) {
		if _, ok := rs.pending[id]; !ok {
			rs.pending[id] = &pending{
				footprint: summary.NewFootprint(e.live, ev.Args, ev.Callee, ev.Runnable == 1),
				ledger:    summary.NewLedger(ev.Args),
			}
			e.logger.Debug("recording started",
				"run_id", rs.id,
				"seq", seq,
				"method", id,
				"depth", len(rs.recording),
			)
		}
	}
	return Decision{}, nil
}

// MethodReturned completes the recording of a method, committing its
// summary when its bucket has room and otherwise marking it recorded.
func (e *Engine) MethodReturned(ev MethodReturned) error {
	seq, err := e.ready(ev)
	if err != nil {
		return err
	}
	rs := e.run
	if rs.dormant || !rs.isRecording(ev.Method) {
		return nil
	}

	p, ok := rs.pending[ev.Method]
	if !ok {
		return e.fail(seq, newFault(ErrCodeMissingPending, ev.Method, "return without pending footprint or ledger"))
	}
	p.ledger.SetReturn(ev.Value)

	// The policy bounds each bucket; the store's own cap is a hard limit.
	if rs.store.Len(ev.Method) < e.policy.Capacity {
		sum, err := rs.store.Add(ev.Method, p.footprint, p.ledger)
		if err != nil {
			f := newFault(ErrCodeCapacityExceeded, ev.Method, "commit rejected")
			f.Err = err
			return e.fail(seq, f)
		}
		e.metrics.Committed()
		e.logger.Debug("summary committed",
			"run_id", rs.id,
			"seq", seq,
			"method", ev.Method,
			"index", sum.Index,
			"context_size", p.footprint.Size(),
			"mods_size", p.ledger.Size(),
		)
	} else {
		rs.recorded[ev.Method] = true
		e.metrics.BucketFull()
		e.logger.Debug("summary bucket full",
			"run_id", rs.id,
			"seq", seq,
			"method", ev.Method,
			"capacity", e.policy.Capacity,
		)
	}

	rs.counters.MarkRecorded(ev.Method)
	rs.stopRecording(ev.Method)
	return nil
}

// abort blacklists every recording method, plus trigger when given, and
// discards their pending state. The reason is recorded on each method's
// counter unless it already carries one.
func (e *Engine) abort(seq int64, trigger ir.MethodID, reason string, intrinsic bool) {
	rs := e.run
	aborted := rs.clearRecording()
	for _, m := range aborted {
		rs.blacklist[m] = blacklistEntry{reason: reason}
		rs.counters.Interrupt(m, reason)
	}
	if trigger != "" {
		rs.blacklist[trigger] = blacklistEntry{reason: reason, intrinsic: intrinsic}
		rs.counters.Interrupt(trigger, reason)
	}

	e.metrics.Aborted(reason, len(aborted))
	e.logger.Debug("recording aborted",
		"run_id", rs.id,
		"seq", seq,
		"reason", reason,
		"trigger", trigger,
		"aborted", len(aborted),
	)
}
