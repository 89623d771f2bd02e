// Package services defines shared utilities consumed by the delivery pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging.
//   - The delivery error taxonomy (busy, no input, encoding, upload, nothing to
//     deliver, notification, artifact generation) plus the Wrap helper that
//     tags failures for classification with errors.Is.
//   - Stable error codes and HTTP statuses so the API and CLI report failures
//     without leaking internal detail.
//
// Use these helpers when wiring new pipeline logic so error handling and
// observability stay uniform.
package services
