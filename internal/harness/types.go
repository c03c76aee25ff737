package harness

import (
	"github.com/roach88/summa/internal/ir"
	"github.com/roach88/summa/internal/report"
)

// Trace event types.
const (
	TraceEnter     = "enter"
	TraceReturn    = "return"
	TraceRead      = "read"
	TraceWrite     = "write"
	TraceNative    = "native"
	TraceInterrupt = "interrupt"
)

// TraceEvent is one host event the harness delivered to the engine.
type TraceEvent struct {
	Type   string      `json:"type"`
	Seq    int64       `json:"seq"`
	Method ir.MethodID `json:"method,omitempty"`

	// enter
	Args     []ir.Value `json:"args,omitempty"`
	Replayed bool       `json:"replayed,omitempty"`
	Summary  int        `json:"summary,omitempty"`

	// return, read, write; nil is void for return
	Value ir.Value `json:"value,omitempty"`

	// read, write
	Owner *ir.ObjectRef `json:"owner,omitempty"`
	Class ir.TypeRef    `json:"class,omitempty"`
	Field string        `json:"field,omitempty"`

	// interrupt
	Kind string `json:"kind,omitempty"`
}

// document renders the event for canonical JSON.
func (ev TraceEvent) document() map[string]any {
	doc := map[string]any{
		"type": ev.Type,
		"seq":  ev.Seq,
	}
	if ev.Method != "" {
		doc["method"] = string(ev.Method)
	}
	switch ev.Type {
	case TraceEnter:
		args := make([]any, len(ev.Args))
		for i, a := range ev.Args {
			args[i] = a
		}
		doc["args"] = args
		doc["replayed"] = ev.Replayed
		if ev.Replayed {
			doc["summary"] = ev.Summary
			if ev.Value != nil {
				doc["value"] = ev.Value
			}
		}
	case TraceReturn:
		if ev.Value != nil {
			doc["value"] = ev.Value
		}
	case TraceRead, TraceWrite:
		if ev.Owner != nil {
			doc["owner"] = int(*ev.Owner)
		} else {
			doc["class"] = string(ev.Class)
		}
		doc["field"] = ev.Field
		doc["value"] = ev.Value
	case TraceInterrupt:
		doc["kind"] = ev.Kind
	}
	return doc
}

// RunResult is the outcome of one run.
type RunResult struct {
	Name   string        `json:"name"`
	RunID  string        `json:"run_id"`
	Trace  []TraceEvent  `json:"trace"`
	Report report.Report `json:"-"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every call and run expectation holds.
	Pass bool `json:"pass"`

	// Runs holds each run's trace and report in order.
	Runs []RunResult `json:"runs"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Runs:   []RunResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Reports returns the report of every run in order.
func (r *Result) Reports() []report.Report {
	out := make([]report.Report, len(r.Runs))
	for i, run := range r.Runs {
		out[i] = run.Report
	}
	return out
}
