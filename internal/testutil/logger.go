// Package testutil holds deterministic helpers shared by the harness and
// tests: trace clocks, run ids and loggers.
package testutil

import (
	"io"
	"log/slog"
)

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
