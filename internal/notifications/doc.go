// Package notifications delivers finished captures to guests through the
// mailer endpoint.
//
// The mailer accepts a JSON body {"mailTo", "imageData", "videoUrl"} where
// imageData is a base64 JPEG and videoUrl a public link; absent media is
// omitted from the body. Success means the request completed with a 2xx
// status. The response body is logged for operators but never parsed. The
// client performs a single attempt; retry policy belongs to the caller.
//
// NewService returns a stub that reports every send as failed when no
// endpoint is configured, so a misconfigured booth never claims delivery.
package notifications
