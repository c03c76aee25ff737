package engine

import (
	"fmt"

	"github.com/roach88/summa/internal/ir"
)

// Event is a sealed interface over the host events the engine consumes.
type Event interface {
	eventType() string
}

// MethodEntered is delivered before a call executes. It is the only event
// whose Decision can be a replay.
type MethodEntered struct {
	Method ir.MethodInfo
	Args   []ir.Value
	// Callee is the receiver handle, ir.NullRef for static calls.
	Callee ir.ObjectRef
	// Runnable is the number of runnable threads at entry.
	Runnable int
}

// FieldRead is delivered after a field read executes.
type FieldRead struct {
	// Method is the executing method.
	Method ir.MethodID
	Field  string
	Owner  ir.ObjectRef
	// Type is the declaring type; required for static reads.
	Type   ir.TypeRef
	Value  ir.Value
	Static bool
	Shared bool
	Array  bool
}

// FieldWritten is delivered after a field write executes, carrying the
// new value.
type FieldWritten struct {
	Method ir.MethodID
	Field  string
	Owner  ir.ObjectRef
	Type   ir.TypeRef
	// Kind is the field's declared kind; zero means Value.Kind().
	Kind   ir.Kind
	Value  ir.Value
	Static bool
	Shared bool
	Array  bool
}

// NativeCall is delivered when a native method executes.
type NativeCall struct {
	Method ir.MethodID
	// Name is the simple name of the native method.
	Name string
}

// MethodReturned is delivered when a call returns normally. A nil Value
// is a void return.
type MethodReturned struct {
	Method ir.MethodID
	Value  ir.Value
}

// Interrupted is delivered for scheduling, locking and sharing events that
// make the current recordings unsound.
type Interrupted struct {
	Kind InterruptionKind
}

// RunStarted begins a new exploration run with fresh engine state.
type RunStarted struct {
	Label string
}

// RunFinished ends the current run and publishes its report.
type RunFinished struct{}

func (MethodEntered) eventType() string  { return "method_entered" }
func (FieldRead) eventType() string      { return "field_read" }
func (FieldWritten) eventType() string   { return "field_written" }
func (NativeCall) eventType() string     { return "native_call" }
func (MethodReturned) eventType() string { return "method_returned" }
func (Interrupted) eventType() string    { return "interrupted" }
func (RunStarted) eventType() string     { return "run_started" }
func (RunFinished) eventType() string    { return "run_finished" }

// Decision is the engine's answer to MethodEntered.
type Decision struct {
	// Replay means the host must skip the call body and use Return.
	Replay bool
	// Return is the replayed return value, nil for void.
	Return ir.Value
	// Summary is the index of the replayed summary.
	Summary int
}

// InterruptionKind enumerates the host events that abort all recording.
type InterruptionKind uint8

const (
	InterruptObjectLocked InterruptionKind = iota + 1
	InterruptObjectUnlocked
	InterruptObjectWait
	InterruptObjectNotify
	InterruptObjectNotifyAll
	InterruptObjectExposed
	InterruptObjectShared
	InterruptThreadInterrupted
	InterruptChoiceRegistered
	InterruptChoiceSet
	InterruptChoiceAdvanced
	InterruptStateAdvanced
	InterruptStateBacktracked
)

var interruptionNames = []string{
	InterruptObjectLocked:      "object_locked",
	InterruptObjectUnlocked:    "object_unlocked",
	InterruptObjectWait:        "object_wait",
	InterruptObjectNotify:      "object_notify",
	InterruptObjectNotifyAll:   "object_notify_all",
	InterruptObjectExposed:     "object_exposed",
	InterruptObjectShared:      "object_shared",
	InterruptThreadInterrupted: "thread_interrupted",
	InterruptChoiceRegistered:  "choice_registered",
	InterruptChoiceSet:         "choice_set",
	InterruptChoiceAdvanced:    "choice_advanced",
	InterruptStateAdvanced:     "state_advanced",
	InterruptStateBacktracked:  "state_backtracked",
}

func (k InterruptionKind) String() string {
	if int(k) > 0 && int(k) < len(interruptionNames) {
		return interruptionNames[k]
	}
	return fmt.Sprintf("interruption(%d)", uint8(k))
}

// ParseInterruptionKind resolves a name printed by InterruptionKind.String.
func ParseInterruptionKind(s string) (InterruptionKind, error) {
	for i, name := range interruptionNames {
		if i > 0 && name == s {
			return InterruptionKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown interruption kind %q", s)
}
