// Package store provides SQLite-backed durable storage for finished-run
// reports.
//
// Each run is written once, in a single transaction:
//   - runs: identity, label and aggregates
//   - method_stats: one canonical JSON counter per method, first-seen order
//   - summaries: context and modifications documents per committed summary
//
// # Critical Patterns
//
// Idempotency: runs are keyed by run id and inserted with ON CONFLICT DO
// NOTHING; publishing the same report twice stores it once.
//
// Deterministic reads: runs are ordered by seq, stats by ordinal, and
// summaries by (method_ordinal, idx), reproducing the report exactly.
//
// Integrity: summary ids are content hashes of the stored documents and
// are recomputed on read.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
