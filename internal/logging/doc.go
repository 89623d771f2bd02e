// Package logging assembles structured slog loggers and formatting helpers used
// across the photobooth services.
//
// It owns the configurable console (tint) and JSON handlers, centralizes level
// and output plumbing, and exposes context-aware helpers so pipeline code can
// automatically tag log lines with job IDs, stages, and correlation IDs. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape and routing.
package logging
