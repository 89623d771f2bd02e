// Package config loads, normalizes, and validates photobooth configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CLOUDINARY_UPLOAD_PRESET and PHOTOBOOTH_MAILER_URL. The Config type
// centralizes every knob the kiosk daemon and CLI need: where captures land,
// which media host receives uploads, which mailer endpoint delivers the
// result, and how the QR artifact is rendered.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors. The
// delivery pipeline itself never reads the environment.
package config
