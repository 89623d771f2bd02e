// Package daemon coordinates the long-running photobooth process.
//
// It wires configuration, the still store, the capture locator, the upload
// and mailer clients, and the artifact surfaces into a delivery orchestrator,
// then exposes that orchestrator over a small HTTP trigger API. A flock-based
// lock file prevents two kiosk daemons from sharing one capture directory.
//
// Keep orchestration logic in internal/delivery: the daemon owns startup,
// shutdown, status reporting, and the HTTP surface.
package daemon
