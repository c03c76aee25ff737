package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/summa/internal/ir"
	"github.com/roach88/summa/internal/report"
	"github.com/roach88/summa/internal/stats"
	"github.com/roach88/summa/internal/summary"
)

// ReportSink receives the report of every finished run.
type ReportSink interface {
	Publish(ctx context.Context, r report.Report) error
}

// ReportSinkFunc adapts a function to ReportSink.
type ReportSinkFunc func(ctx context.Context, r report.Report) error

// Publish calls f.
func (f ReportSinkFunc) Publish(ctx context.Context, r report.Report) error {
	return f(ctx, r)
}

// Engine is the single-writer recording engine.
//
// The host delivers events synchronously, in execution order, from one
// goroutine. MethodEntered is the only call whose answer changes host
// behavior; every other event only updates engine state.
//
// INVARIANTS:
//   - recording is disjoint from both recorded and blacklist
//   - every recording method has exactly one pending footprint and ledger
//   - a method's summaries never exceed Policy.Capacity
//   - an engine that returned a FaultError rejects events until RunStarted
type Engine struct {
	live    summary.LiveState
	policy  Policy
	logger  *slog.Logger
	metrics Recorder
	sinks   []ReportSink
	runIDs  RunIDGenerator
	clock   *Clock

	run    *runState
	failed error
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithPolicy replaces DefaultPolicy.
func WithPolicy(p Policy) EngineOption {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r Recorder) EngineOption {
	return func(e *Engine) {
		e.metrics = r
	}
}

// WithReportSink adds a sink for finished-run reports.
func WithReportSink(s ReportSink) EngineOption {
	return func(e *Engine) {
		e.sinks = append(e.sinks, s)
	}
}

// WithRunIDGenerator sets the run id source. Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) EngineOption {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// New creates an Engine reading and writing host state through live.
// The engine starts with fresh run state; RunStarted resets it.
func New(live summary.LiveState, opts ...EngineOption) *Engine {
	e := &Engine{
		live:    live,
		policy:  DefaultPolicy(),
		logger:  slog.Default(),
		metrics: noopRecorder{},
		runIDs:  UUIDv7Generator{},
		clock:   NewClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.policy.Capacity = summary.ClampCapacity(e.policy.Capacity)
	e.run = newRunState(e.policy, "", "")
	return e
}

// Dispatch routes ev to its handler. Only MethodEntered produces a
// non-zero Decision.
func (e *Engine) Dispatch(ctx context.Context, ev Event) (Decision, error) {
	switch ev := ev.(type) {
	case MethodEntered:
		return e.MethodEntered(ev)
	case FieldRead:
		return Decision{}, e.FieldRead(ev)
	case FieldWritten:
		return Decision{}, e.FieldWritten(ev)
	case NativeCall:
		return Decision{}, e.NativeCall(ev)
	case MethodReturned:
		return Decision{}, e.MethodReturned(ev)
	case Interrupted:
		return Decision{}, e.Interrupted(ev)
	case RunStarted:
		return Decision{}, e.RunStarted(ctx, ev)
	case RunFinished:
		_, err := e.RunFinished(ctx)
		return Decision{}, err
	default:
		return Decision{}, fmt.Errorf("unknown event type: %T", ev)
	}
}

// RunStarted discards all state of the previous run, including a latched
// fault, and begins a new run.
func (e *Engine) RunStarted(ctx context.Context, ev RunStarted) error {
	e.clock.Reset()
	e.failed = nil
	e.run = newRunState(e.policy, e.runIDs.Generate(), ev.Label)
	e.metrics.Event(ev.eventType())

	e.logger.InfoContext(ctx, "run started",
		"run_id", e.run.id,
		"label", ev.Label,
		"capacity", e.run.store.Capacity(),
		"dormant", e.run.dormant,
	)
	return nil
}

// RunFinished snapshots the run and publishes the report to every sink.
// State is kept for introspection until the next RunStarted.
func (e *Engine) RunFinished(ctx context.Context) (report.Report, error) {
	if e.run.id == "" {
		e.run.id = e.runIDs.Generate()
	}
	e.metrics.Event(RunFinished{}.eventType())

	r, err := report.Build(e.run.id, e.run.label, e.run.store, e.run.counters)
	if err != nil {
		return report.Report{}, fmt.Errorf("run finished: %w", err)
	}

	e.logger.InfoContext(ctx, "run finished",
		"run_id", r.RunID,
		"unique_methods", r.UniqueMethods,
		"recorded_methods", r.RecordedMethods,
		"summarized_methods", len(r.Summaries),
		"events", e.clock.Current(),
	)

	for _, sink := range e.sinks {
		if err := sink.Publish(ctx, r); err != nil {
			return r, fmt.Errorf("publish run %s: %w", r.RunID, err)
		}
	}
	return r, nil
}

// ready stamps the next event and rejects it if the engine has faulted.
func (e *Engine) ready(ev Event) (int64, error) {
	if e.failed != nil {
		return 0, fmt.Errorf("%w: %w", ErrEngineFailed, e.failed)
	}
	e.metrics.Event(ev.eventType())
	return e.clock.Next(), nil
}

// fail latches a fault.
func (e *Engine) fail(seq int64, f *FaultError) error {
	e.failed = f
	e.metrics.Fault(string(f.Code))
	e.logger.Error("engine fault",
		"run_id", e.run.id,
		"seq", seq,
		"code", f.Code,
		"method", f.Method,
		"error", f.Error(),
	)
	return f
}

// RunID returns the current run's id, "" before the first RunStarted.
func (e *Engine) RunID() string { return e.run.id }

// Policy returns the engine's policy.
func (e *Engine) Policy() Policy { return e.policy }

// Blacklisted reports whether m is blacklisted in the current run.
func (e *Engine) Blacklisted(m ir.MethodID) bool {
	_, ok := e.run.blacklist[m]
	return ok
}

// Recorded reports whether m's summary bucket filled up in the current run.
func (e *Engine) Recorded(m ir.MethodID) bool { return e.run.recorded[m] }

// Recording returns the currently recording methods in entry order.
func (e *Engine) Recording() []ir.MethodID {
	return append([]ir.MethodID(nil), e.run.recording...)
}

// SummaryCount returns the number of summaries committed for m.
func (e *Engine) SummaryCount(m ir.MethodID) int { return e.run.store.Len(m) }

// Stats returns a snapshot of the current run's counters.
func (e *Engine) Stats() []stats.Counter { return e.run.counters.Snapshot() }

// Counter returns m's counter in the current run.
func (e *Engine) Counter(m ir.MethodID) (stats.Counter, bool) { return e.run.counters.Get(m) }
