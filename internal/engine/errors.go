package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/summa/internal/ir"
)

// FaultError is an internal-consistency failure. The engine's own state
// or the host's event stream contradicts an invariant, so continuing could
// replay corrupt state. Faults latch the engine failed until the next
// RunStarted.
//
// Ordinary disqualifiers (native calls, shared writes, interruptions) are
// never faults; they blacklist methods and carry on.
type FaultError struct {
	// Code identifies the fault category.
	Code FaultCode

	// Message is a human-readable description.
	Message string

	// Method identifies the method involved, if any.
	Method ir.MethodID

	// Err is the underlying cause, if any.
	Err error
}

// FaultCode categorizes faults.
type FaultCode string

const (
	// ErrCodeCapacityExceeded indicates a commit past the per-method cap.
	ErrCodeCapacityExceeded FaultCode = "CAPACITY_EXCEEDED"

	// ErrCodeMissingPending indicates a return for a recording method with
	// no pending footprint or ledger.
	ErrCodeMissingPending FaultCode = "MISSING_PENDING_STATE"

	// ErrCodeMissingTypeHandle indicates a static field event without its
	// declaring type.
	ErrCodeMissingTypeHandle FaultCode = "MISSING_TYPE_HANDLE"

	// ErrCodeApplyFailed indicates a matched summary could not be written
	// into the live state after passing the frozen check.
	ErrCodeApplyFailed FaultCode = "REPLAY_APPLY_FAILED"

	// ErrCodeInvalidEvent indicates a malformed host event.
	ErrCodeInvalidEvent FaultCode = "INVALID_EVENT"
)

// ErrEngineFailed is wrapped by every error returned after a fault.
var ErrEngineFailed = errors.New("engine failed")

// Error implements the error interface.
func (e *FaultError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Method != "" {
		msg += fmt.Sprintf(" (method=%s)", e.Method)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *FaultError) Unwrap() error {
	return e.Err
}

// IsFault returns true if err is a FaultError.
// Uses errors.As to handle wrapped errors.
func IsFault(err error) bool {
	var fe *FaultError
	return errors.As(err, &fe)
}

// FaultCodeOf returns the code of a FaultError in err's chain.
func FaultCodeOf(err error) (FaultCode, bool) {
	var fe *FaultError
	if errors.As(err, &fe) {
		return fe.Code, true
	}
	return "", false
}

func newFault(code FaultCode, method ir.MethodID, format string, args ...any) *FaultError {
	return &FaultError{Code: code, Method: method, Message: fmt.Sprintf(format, args...)}
}
