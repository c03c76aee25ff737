package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/summa/internal/engine"
	"github.com/roach88/summa/internal/heap"
	"github.com/roach88/summa/internal/ir"
	"github.com/roach88/summa/internal/testutil"
)

// host is the live state the engine sees. The heap is replaced at every
// run while the engine keeps its reference to host.
type host struct {
	*heap.Heap
}

type config struct {
	policy  engine.Policy
	logger  *slog.Logger
	metrics engine.Recorder
	sinks   []engine.ReportSink
	runIDs  engine.RunIDGenerator
}

// Option configures Run.
type Option func(*config)

// WithPolicy sets the base policy the scenario's overrides apply to.
// Default: engine.DefaultPolicy().
func WithPolicy(p engine.Policy) Option {
	return func(c *config) { c.policy = p }
}

// WithLogger sets the engine logger. Default: discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMetrics sets the engine metrics recorder.
func WithMetrics(r engine.Recorder) Option {
	return func(c *config) { c.metrics = r }
}

// WithReportSink adds a sink for every run's report.
func WithReportSink(s engine.ReportSink) Option {
	return func(c *config) { c.sinks = append(c.sinks, s) }
}

// WithRunIDs sets the run id source. Default: "<scenario>-1", "<scenario>-2", ...
func WithRunIDs(g engine.RunIDGenerator) Option {
	return func(c *config) { c.runIDs = g }
}

// Harness drives one engine through a scenario's runs.
type Harness struct {
	scenario *Scenario
	engine   *engine.Engine
	live     *host
	clock    *testutil.DeterministicClock
	result   *Result

	// stack holds the executing (not replayed) calls, innermost last.
	stack []ir.MethodID
	trace []TraceEvent
}

// Run executes a test scenario and returns the result.
//
// One engine serves every run of the scenario. Each run starts from a
// fresh copy of the scenario heap with RunStarted and ends with
// RunFinished, after which its expectations are evaluated.
//
// Failed expectations are reported in the Result. An error means the
// scenario could not be executed: a heap that cannot be built, a write to
// a frozen object, or an engine fault.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := config{
		policy: engine.DefaultPolicy(),
		logger: testutil.DiscardLogger(),
		runIDs: testutil.NewSequentialRunIDs(scenario.Name),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	live := &host{Heap: heap.New()}
	engineOpts := []engine.EngineOption{
		engine.WithPolicy(scenario.Policy.apply(cfg.policy)),
		engine.WithLogger(cfg.logger),
		engine.WithRunIDGenerator(cfg.runIDs),
	}
	if cfg.metrics != nil {
		engineOpts = append(engineOpts, engine.WithMetrics(cfg.metrics))
	}
	for _, s := range cfg.sinks {
		engineOpts = append(engineOpts, engine.WithReportSink(s))
	}

	h := &Harness{
		scenario: scenario,
		engine:   engine.New(live, engineOpts...),
		live:     live,
		clock:    testutil.NewDeterministicClock(),
		result:   NewResult(),
	}

	for i, run := range scenario.Runs {
		if err := h.executeRun(ctx, i, run); err != nil {
			return nil, fmt.Errorf("run %d (%s): %w", i, run.Name, err)
		}
	}
	return h.result, nil
}

// executeRun performs one engine run.
func (h *Harness) executeRun(ctx context.Context, index int, run RunSpec) error {
	hp, err := buildHeap(h.scenario.Heap)
	if err != nil {
		return fmt.Errorf("failed to build heap: %w", err)
	}
	h.live.Heap = hp
	h.clock.Reset()
	h.stack = h.stack[:0]
	h.trace = []TraceEvent{}

	if _, err := h.engine.Dispatch(ctx, engine.RunStarted{Label: run.Name}); err != nil {
		return err
	}
	if err := h.executeSteps(ctx, fmt.Sprintf("runs[%d].steps", index), run.Steps); err != nil {
		return err
	}
	rep, err := h.engine.RunFinished(ctx)
	if err != nil {
		return err
	}

	h.result.Runs = append(h.result.Runs, RunResult{
		Name:   run.Name,
		RunID:  rep.RunID,
		Trace:  h.trace,
		Report: rep,
	})
	if run.Expect != nil {
		label := run.Name
		if label == "" {
			label = fmt.Sprintf("runs[%d]", index)
		}
		for _, msg := range evaluateRunExpect(label, run.Expect, h.resolver(), h.engine, rep, hp) {
			h.result.AddError(msg)
		}
	}
	return nil
}

func (h *Harness) executeSteps(ctx context.Context, path string, steps []Step) error {
	for i, step := range steps {
		at := fmt.Sprintf("%s[%d]", path, i)
		var err error
		switch {
		case step.Call != nil:
			err = h.executeCall(ctx, at, step.Call)
		case step.Read != nil:
			_, err = h.executeRead(ctx, *step.Read)
		case step.Write != nil:
			err = h.executeWrite(ctx, *step.Write)
		case step.Set != nil:
			_, _, err = h.assign(*step.Set)
		case step.Native != "":
			err = h.executeNative(ctx, step.Native)
		case step.Interrupt != "":
			err = h.executeInterrupt(ctx, step.Interrupt)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", at, err)
		}
	}
	return nil
}

// executeCall enters a method and, unless the engine replays it, runs its
// body and returns.
func (h *Harness) executeCall(ctx context.Context, at string, c *CallStep) error {
	info := h.scenario.Methods[c.Method]
	args := make([]ir.Value, len(c.Args))
	for i, lit := range c.Args {
		v, err := ir.ParseValue(lit)
		if err != nil {
			return err
		}
		args[i] = v
	}
	callee := ir.NullRef
	if c.This != nil {
		callee = ir.ObjectRef(*c.This)
	}
	runnable := c.Runnable
	if runnable == 0 {
		runnable = 1
	}

	seq := h.clock.Next()
	d, err := h.engine.Dispatch(ctx, engine.MethodEntered{
		Method:   info,
		Args:     args,
		Callee:   callee,
		Runnable: runnable,
	})
	if err != nil {
		return err
	}
	enter := TraceEvent{Type: TraceEnter, Seq: seq, Method: info.ID, Args: args, Replayed: d.Replay}
	if d.Replay {
		enter.Summary = d.Summary
		enter.Value = d.Return
	}
	h.trace = append(h.trace, enter)

	ret := d.Return
	if !d.Replay {
		h.stack = append(h.stack, info.ID)
		if err := h.executeSteps(ctx, at+".call.body", c.Body); err != nil {
			return err
		}
		ret, err = h.returnValue(ctx, c)
		if err != nil {
			return err
		}
		h.stack = h.stack[:len(h.stack)-1]

		seq := h.clock.Next()
		if _, err := h.engine.Dispatch(ctx, engine.MethodReturned{Method: info.ID, Value: ret}); err != nil {
			return err
		}
		h.trace = append(h.trace, TraceEvent{Type: TraceReturn, Seq: seq, Method: info.ID, Value: ret})
	}

	if c.Expect != nil {
		for _, msg := range checkCall(at, c.Expect, d.Replay, ret) {
			h.result.AddError(msg)
		}
	}
	return nil
}

// returnValue is the value the executed call returns. A return_field is
// read by the returning method like any other read.
func (h *Harness) returnValue(ctx context.Context, c *CallStep) (ir.Value, error) {
	switch {
	case c.ReturnField != nil:
		return h.executeRead(ctx, *c.ReturnField)
	case c.Return != "":
		return ir.ParseValue(c.Return)
	default:
		return nil, nil
	}
}

func (h *Harness) current() (ir.MethodID, error) {
	if len(h.stack) == 0 {
		return "", errors.New("field access outside any executing call")
	}
	return h.stack[len(h.stack)-1], nil
}

func (h *Harness) executeRead(ctx context.Context, ref FieldRef) (ir.Value, error) {
	method, err := h.current()
	if err != nil {
		return nil, err
	}
	hp := h.live.Heap

	ev := engine.FieldRead{Method: method, Field: ref.Field}
	if ref.Object != nil {
		owner := ir.ObjectRef(*ref.Object)
		v, err := hp.Field(owner, ref.Field)
		if err != nil {
			return nil, err
		}
		ev.Owner, ev.Value = owner, v
		ev.Shared = hp.Shared(owner)
		ev.Array = hp.IsArrayField(owner, ref.Field)
	} else {
		typ := ir.TypeRef(ref.Static)
		v, err := hp.StaticField(typ, ref.Field)
		if err != nil {
			return nil, err
		}
		ev.Owner, ev.Type, ev.Value, ev.Static = ir.NullRef, typ, v, true
		ev.Array = hp.IsStaticArrayField(typ, ref.Field)
	}

	seq := h.clock.Next()
	if _, err := h.engine.Dispatch(ctx, ev); err != nil {
		return nil, err
	}
	h.trace = append(h.trace, fieldTrace(TraceRead, seq, method, ref, ev.Value))
	return ev.Value, nil
}

func (h *Harness) executeWrite(ctx context.Context, w WriteStep) error {
	method, err := h.current()
	if err != nil {
		return err
	}
	v, kind, err := h.assign(w)
	if err != nil {
		return err
	}
	hp := h.live.Heap

	ev := engine.FieldWritten{Method: method, Field: w.Field, Kind: kind, Value: v}
	if w.Object != nil {
		owner := ir.ObjectRef(*w.Object)
		ev.Owner = owner
		ev.Shared = hp.Shared(owner)
		ev.Array = hp.IsArrayField(owner, w.Field)
	} else {
		typ := ir.TypeRef(w.Static)
		ev.Owner, ev.Type, ev.Static = ir.NullRef, typ, true
		ev.Array = hp.IsStaticArrayField(typ, w.Field)
	}

	seq := h.clock.Next()
	if _, err := h.engine.Dispatch(ctx, ev); err != nil {
		return err
	}
	h.trace = append(h.trace, fieldTrace(TraceWrite, seq, method, w.FieldRef, v))
	return nil
}

// assign stores w's value in the live heap.
func (h *Harness) assign(w WriteStep) (ir.Value, ir.Kind, error) {
	v, err := ir.ParseValue(w.Value)
	if err != nil {
		return nil, 0, err
	}
	var kind ir.Kind
	if w.Kind != "" {
		if kind, err = ir.ParseKind(w.Kind); err != nil {
			return nil, 0, err
		}
	}
	if w.Object != nil {
		err = h.live.SetField(ir.ObjectRef(*w.Object), w.Field, v)
	} else {
		err = h.live.SetStaticField(ir.TypeRef(w.Static), w.Field, v)
	}
	if err != nil {
		return nil, 0, err
	}
	return v, kind, nil
}

func (h *Harness) executeNative(ctx context.Context, id string) error {
	native := ir.MethodInfo{ID: ir.MethodID(id)}
	seq := h.clock.Next()
	ev := engine.NativeCall{Method: native.ID, Name: native.SimpleName()}
	if _, err := h.engine.Dispatch(ctx, ev); err != nil {
		return err
	}
	h.trace = append(h.trace, TraceEvent{Type: TraceNative, Seq: seq, Method: native.ID})
	return nil
}

func (h *Harness) executeInterrupt(ctx context.Context, name string) error {
	kind, err := engine.ParseInterruptionKind(name)
	if err != nil {
		return err
	}
	seq := h.clock.Next()
	if _, err := h.engine.Dispatch(ctx, engine.Interrupted{Kind: kind}); err != nil {
		return err
	}
	h.trace = append(h.trace, TraceEvent{Type: TraceInterrupt, Seq: seq, Kind: kind.String()})
	return nil
}

// resolver maps method aliases to ids; unknown names are taken as ids.
func (h *Harness) resolver() func(string) ir.MethodID {
	return func(name string) ir.MethodID {
		if m, ok := h.scenario.Methods[name]; ok {
			return m.ID
		}
		return ir.MethodID(name)
	}
}

func fieldTrace(typ string, seq int64, method ir.MethodID, ref FieldRef, v ir.Value) TraceEvent {
	ev := TraceEvent{Type: typ, Seq: seq, Method: method, Field: ref.Field, Value: v}
	if ref.Object != nil {
		owner := ir.ObjectRef(*ref.Object)
		ev.Owner = &owner
	} else {
		ev.Class = ir.TypeRef(ref.Static)
	}
	return ev
}

// buildHeap materializes the scenario heap.
func buildHeap(hs HeapSpec) (*heap.Heap, error) {
	hp := heap.New()
	for _, o := range hs.Objects {
		fields, err := parseFields(o.Fields)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", o.Ref, err)
		}
		obj := &heap.Object{
			Class:  o.Class,
			Fields: fields,
			Arrays: flags(o.Arrays),
			Text:   o.Text,
			Shared: o.Shared,
			Frozen: o.Frozen,
		}
		if err := hp.Put(ir.ObjectRef(o.Ref), obj); err != nil {
			return nil, err
		}
	}
	for _, s := range hs.Statics {
		fields, err := parseFields(s.Fields)
		if err != nil {
			return nil, fmt.Errorf("static %s: %w", s.Type, err)
		}
		hp.PutStatic(ir.TypeRef(s.Type), &heap.StaticArea{
			Fields: fields,
			Arrays: flags(s.Arrays),
			Frozen: s.Frozen,
		})
	}
	return hp, nil
}

func parseFields(lits map[string]string) (map[string]ir.Value, error) {
	fields := make(map[string]ir.Value, len(lits))
	for name, lit := range lits {
		v, err := ir.ParseValue(lit)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		fields[name] = v
	}
	return fields, nil
}

func flags(names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}
