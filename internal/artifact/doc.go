// Package artifact renders the scannable QR code that points guests at their
// uploaded video.
//
// Publisher encodes a URL with go-qrcode at a fixed pixel size, scales the
// result to fit the kiosk's square display box while preserving aspect ratio,
// and hands it to a Surface. FileSurface atomically replaces a PNG the kiosk
// UI watches; MemorySurface keeps the latest PNG for the HTTP API. Every
// failure is reported as ErrGenerationFailed and callers treat it as
// non-fatal.
package artifact
