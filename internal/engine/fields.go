package engine

// FieldRead adds the value read to the footprint of every recording
// method, not just the executing one, unless the field was already
// observed. Shared and array fields abort the whole stack.
func (e *Engine) FieldRead(ev FieldRead) error {
	seq, err := e.ready(ev)
	if err != nil {
		return err
	}
	rs := e.run
	if rs.dormant {
		return nil
	}
	if ev.Static && ev.Type == "" {
		return e.fail(seq, newFault(ErrCodeMissingTypeHandle, ev.Method, "static read of %s", ev.Field))
	}
	if ev.Value == nil {
		return e.fail(seq, newFault(ErrCodeInvalidEvent, ev.Method, "read of %s without value", ev.Field))
	}

	if rs.isRecording(ev.Method) {
		rs.counters.Read(ev.Method)
	}
	if len(rs.recording) == 0 {
		return nil
	}

	switch {
	case ev.Shared:
		e.abort(seq, "", ReasonSharedRead, false)
		return nil
	case ev.Array:
		e.abort(seq, "", ReasonArrayField, false)
		return nil
	}

	for _, m := range rs.recording {
		fp := rs.pending[m].footprint
		if ev.Static {
			fp.ObserveStaticRead(ev.Type, ev.Field, ev.Value)
		} else {
			fp.ObserveInstanceRead(ev.Owner, ev.Field, ev.Value)
		}
	}
	return nil
}

// FieldWritten adds the write to the ledger of every recording method.
// Writes to shared or array fields blacklist the writing method and abort
// the whole stack.
func (e *Engine) FieldWritten(ev FieldWritten) error {
	seq, err := e.ready(ev)
	if err != nil {
		return err
	}
	rs := e.run
	if rs.dormant {
		return nil
	}
	if ev.Static && ev.Type == "" {
		return e.fail(seq, newFault(ErrCodeMissingTypeHandle, ev.Method, "static write of %s", ev.Field))
	}
	if ev.Value == nil {
		return e.fail(seq, newFault(ErrCodeInvalidEvent, ev.Method, "write of %s without value", ev.Field))
	}

	if rs.isRecording(ev.Method) {
		rs.counters.Write(ev.Method)
	}

	switch {
	case ev.Shared:
		e.abort(seq, ev.Method, ReasonSharedWrite, false)
		return nil
	case ev.Array:
		e.abort(seq, ev.Method, ReasonArrayField, false)
		return nil
	}
	if len(rs.recording) == 0 {
		return nil
	}

	kind := ev.Kind
	if kind == 0 {
		kind = ev.Value.Kind()
	}
	for _, m := range rs.recording {
		l := rs.pending[m].ledger
		if ev.Static {
			l.AddStaticWrite(ev.Type, ev.Field, kind, ev.Value)
		} else {
			l.AddInstanceWrite(ev.Owner, ev.Field, kind, ev.Value)
		}
	}
	return nil
}

// NativeCall aborts the whole stack unless the native method is on the
// allow-list. The native method itself is blacklisted.
func (e *Engine) NativeCall(ev NativeCall) error {
	seq, err := e.ready(ev)
	if err != nil {
		return err
	}
	if e.run.dormant || e.policy.allowsNative(ev.Name) {
		return nil
	}
	e.abort(seq, ev.Method, ReasonNative, false)
	return nil
}

// Interrupted aborts every active recording. The interruption kind
// overrides any reason already on the aborted methods' counters.
func (e *Engine) Interrupted(ev Interrupted) error {
	seq, err := e.ready(ev)
	if err != nil {
		return err
	}
	rs := e.run
	if rs.dormant {
		return nil
	}

	reason := ev.Kind.String()
	aborted := rs.clearRecording()
	for _, m := range aborted {
		rs.blacklist[m] = blacklistEntry{reason: reason}
		rs.counters.OverrideInterruption(m, reason)
	}
	if len(aborted) > 0 {
		e.metrics.Aborted(reason, len(aborted))
	}
	e.logger.Debug("recording interrupted",
		"run_id", rs.id,
		"seq", seq,
		"kind", reason,
		"aborted", len(aborted),
	)
	return nil
}
