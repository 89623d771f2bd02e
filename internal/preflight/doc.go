// Package preflight provides readiness checks for the filesystem paths and
// remote endpoints the photobooth depends on.
//
// These checks run in two contexts:
//   - The daemon logs RunAll results at startup so misconfiguration shows up
//     before the first guest presses a button.
//   - The CLI "photobooth status" command renders the same results as a table.
//
// Endpoint checks only prove reachability: any HTTP response counts, since
// the upload and mailer endpoints reject bare probes.
package preflight
