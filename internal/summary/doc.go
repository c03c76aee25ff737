// Package summary holds the data model of method summaries.
//
// A Footprint is everything a recorded call depended on: its arguments,
// callee, the first value it observed for each field it read, and whether
// it ran as the only runnable thread. A Ledger is everything it changed:
// the last value written to each field and its return value. A committed
// (Footprint, Ledger) pair is a Summary; the Store keeps a bounded list of
// them per method and finds the first one whose footprint still holds
// against the live state.
//
// Nothing in this package is safe for concurrent use. The engine is the
// single writer.
package summary
