// Package api defines wire-format types and a small HTTP client for the
// photobooth trigger API. It translates delivery outcomes into
// transport-friendly DTOs that the kiosk UI and the CLI render without
// coupling to internal types.
//
// # Key Types
//
// DeliveryOutcome: job result with per-stage detail, status, and error code.
//
// DaemonStatus: running and busy flags, lock path, capture directory, still
// and artifact state, and the last job outcome.
//
// ErrorResponse: the body every non-2xx response carries.
//
// # Converters
//
// FromOutcome: delivery.Outcome -> DeliveryOutcome.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript consumers. Timestamps use
// RFC3339 with milliseconds and durations are reported in milliseconds.
// Client errors carry the server's machine code and unwrap to the matching
// services sentinel, so callers classify them with errors.Is.
package api
