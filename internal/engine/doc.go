// Package engine implements the summa recording engine.
//
// The engine watches a host execute methods and learns, per method, a
// bounded set of summaries: what the call read (its footprint) and what it
// changed (its ledger). When a later call's arguments, receiver and
// observed fields all match a summary, the host skips the call body and
// the engine writes the recorded effects instead.
//
// ARCHITECTURE:
//
// Synchronous Single Writer:
// The host calls one handler per event, in execution order, from one
// goroutine. There is no queue: the replay decision has to be made before
// the host executes the call, so MethodEntered answers inline with a
// Decision. Every handler runs to completion before returning.
//
// Event Handling:
//  1. MethodEntered: replay if a summary matches, else start recording
//  2. FieldRead / FieldWritten: extend every active footprint / ledger
//  3. NativeCall / Interrupted: abort recordings that became unsound
//  4. MethodReturned: commit the summary or mark the bucket full
//  5. RunStarted / RunFinished: reset state, publish the run report
//
// Recording follows the whole active stack: a read or write inside a
// nested call is attributed to every method still recording, and a
// replayed inner summary is folded into all of them. A single disqualifier
// (native call, shared field, constructor, lock or scheduling event) aborts
// and blacklists every active recording.
//
// CRITICAL PATTERNS:
//
// Fail Closed:
// Matching that cannot confirm a dependency (missing object, text vs
// identity mismatch) is a non-match. Internal inconsistencies are
// FaultErrors that stop the engine rather than replay suspect state.
//
// Run Isolation:
// Every piece of learned state lives in a runState replaced on RunStarted.
// Nothing survives between runs except configuration.
//
// Logical Clock:
// Events are stamped from Clock.Next() for logs. Sequence numbers restart
// per run; wall-clock time is never used.
package engine
