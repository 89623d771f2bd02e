// Package delivery sequences one capture-to-delivery job: encode the still,
// upload the newest video, publish its QR artifact, and mail the result.
//
// The Orchestrator owns a JobLock so at most one job runs at a time; a second
// request while busy is rejected with ErrJobBusy rather than queued. Inputs
// are resolved before the lock is taken, and a request with no usable input
// fails with ErrNoInputAvailable without ever holding it. Once accepted a job
// runs to completion and the lock is released on every exit path.
//
// Stage failures degrade the job instead of aborting it: a still that cannot
// be encoded or a video that cannot be uploaded is dropped from the payload
// and recorded on the Outcome, and an artifact that cannot be rendered is
// only logged. The job fails when nothing is left to deliver or when the
// mailer rejects the notification.
//
// Upload and notification attempts follow a RetryPolicy. The default policy
// makes a single attempt; larger limits retry only failures the clients mark
// retryable, with capped exponential backoff.
package delivery
