// Package logging assembles structured slog loggers and formatting helpers used
// across prepcoach.
//
// It owns the configurable console/JSON handlers, routes records to the daily
// log file and the terminal with independent thresholds, and stamps records
// with interview and correlation identifiers carried by the context. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape.
package logging
