// Package logging assembles structured slog loggers and formatting helpers used
// across servicedesk commands.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so repair code can tag log
// lines with cargo IDs, operations, and correlation IDs. A no-op logger is
// provided for tests and wiring code that cannot fail.
package logging
