// Package stats keeps per-method counters for one run.
package stats

import "github.com/roach88/summa/internal/ir"

// Counter is the per-method statistics record. JSON names follow the
// methodStats report contract.
type Counter struct {
	Method              ir.MethodID `json:"methodName"`
	TotalCalls          int         `json:"totalCalls"`
	ArgsMatchCount      int         `json:"argsMatchCount"`
	InstructionCount    int         `json:"instructionCount"`
	Recorded            bool        `json:"recorded"`
	Interruption        string      `json:"interruption"`
	ReadCount           int         `json:"readCount"`
	WriteCount          int         `json:"writeCount"`
	AttemptedMatchCount int         `json:"attemptedMatchCount"`
	FailedMatchCount    int         `json:"failedMatchCount"`
}

// Document renders the counter for canonical JSON.
func (c Counter) Document() map[string]any {
	return map[string]any{
		"methodName":          string(c.Method),
		"totalCalls":          c.TotalCalls,
		"argsMatchCount":      c.ArgsMatchCount,
		"instructionCount":    c.InstructionCount,
		"recorded":            c.Recorded,
		"interruption":        c.Interruption,
		"readCount":           c.ReadCount,
		"writeCount":          c.WriteCount,
		"attemptedMatchCount": c.AttemptedMatchCount,
		"failedMatchCount":    c.FailedMatchCount,
	}
}

// Ledger holds the counters of every method seen in a run. Counters are
// created by the first Invoked call; every other update on an unseen
// method is a no-op.
type Ledger struct {
	counters map[ir.MethodID]*Counter
	order    []ir.MethodID
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{counters: make(map[ir.MethodID]*Counter)}
}

// Invoked counts one handled invocation of m.
func (l *Ledger) Invoked(m ir.MethodID, instructions int) {
	c, ok := l.counters[m]
	if !ok {
		c = &Counter{Method: m}
		l.counters[m] = c
		l.order = append(l.order, m)
	}
	c.TotalCalls++
	c.InstructionCount = instructions
}

// Replayed counts a replayed invocation of m.
func (l *Ledger) Replayed(m ir.MethodID) {
	if c, ok := l.counters[m]; ok {
		c.TotalCalls++
	}
}

// Read counts a field read executed by m.
func (l *Ledger) Read(m ir.MethodID) {
	if c, ok := l.counters[m]; ok {
		c.ReadCount++
	}
}

// Write counts a field write executed by m.
func (l *Ledger) Write(m ir.MethodID) {
	if c, ok := l.counters[m]; ok {
		c.WriteCount++
	}
}

// AttemptedMatch counts a summary lookup for m.
func (l *Ledger) AttemptedMatch(m ir.MethodID) {
	if c, ok := l.counters[m]; ok {
		c.AttemptedMatchCount++
	}
}

// FailedMatch counts a summary lookup for m that found nothing.
func (l *Ledger) FailedMatch(m ir.MethodID) {
	if c, ok := l.counters[m]; ok {
		c.FailedMatchCount++
	}
}

// MatchedArguments counts a successful lookup for m. The attempted count
// tracks consecutive unsuccessful attempts, so it resets.
func (l *Ledger) MatchedArguments(m ir.MethodID) {
	if c, ok := l.counters[m]; ok {
		c.ArgsMatchCount++
		c.AttemptedMatchCount = 0
	}
}

// MarkRecorded notes that a recording of m completed.
func (l *Ledger) MarkRecorded(m ir.MethodID) {
	if c, ok := l.counters[m]; ok {
		c.Recorded = true
	}
}

// Interrupt sets m's interruption reason unless one is already set.
func (l *Ledger) Interrupt(m ir.MethodID, reason string) {
	if c, ok := l.counters[m]; ok && c.Interruption == "" {
		c.Interruption = reason
	}
}

// OverrideInterruption sets m's interruption reason unconditionally.
func (l *Ledger) OverrideInterruption(m ir.MethodID, reason string) {
	if c, ok := l.counters[m]; ok {
		c.Interruption = reason
	}
}

// Get returns a copy of m's counter.
func (l *Ledger) Get(m ir.MethodID) (Counter, bool) {
	c, ok := l.counters[m]
	if !ok {
		return Counter{}, false
	}
	return *c, true
}

// Snapshot returns copies of all counters in first-seen order.
func (l *Ledger) Snapshot() []Counter {
	out := make([]Counter, len(l.order))
	for i, m := range l.order {
		out[i] = *l.counters[m]
	}
	return out
}

// UniqueMethods is the number of distinct methods seen.
func (l *Ledger) UniqueMethods() int { return len(l.order) }

// RecordedMethods is the number of methods with at least one completed
// recording.
func (l *Ledger) RecordedMethods() int {
	n := 0
	for _, c := range l.counters {
		if c.Recorded {
			n++
		}
	}
	return n
}
