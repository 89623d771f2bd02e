package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Generic markers shared by every component.
var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrTransient     = errors.New("transient failure")
)

// Delivery job taxonomy. Stage failures (encoding, upload, generation) are
// recorded on the job outcome; job failures abort the run.
var (
	ErrJobBusy            = errors.New("a delivery job is already running")
	ErrNoInputAvailable   = errors.New("no capture input available")
	ErrEncodingFailed     = errors.New("image encoding failed")
	ErrUploadFailed       = errors.New("video upload failed")
	ErrNothingToDeliver   = errors.New("nothing to deliver")
	ErrNotificationFailed = errors.New("notification failed")
	ErrGenerationFailed   = errors.New("artifact generation failed")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

var codes = []struct {
	marker error
	code   string
	status int
}{
	{ErrJobBusy, "job_busy", http.StatusConflict},
	{ErrNoInputAvailable, "no_input_available", http.StatusUnprocessableEntity},
	{ErrNothingToDeliver, "nothing_to_deliver", http.StatusUnprocessableEntity},
	{ErrNotificationFailed, "notification_failed", http.StatusBadGateway},
	{ErrEncodingFailed, "encoding_failed", http.StatusInternalServerError},
	{ErrUploadFailed, "upload_failed", http.StatusBadGateway},
	{ErrGenerationFailed, "generation_failed", http.StatusInternalServerError},
	{ErrValidation, "invalid_request", http.StatusBadRequest},
	{ErrConfiguration, "configuration_error", http.StatusInternalServerError},
}

// Code maps an error to a stable machine-readable code for API and CLI output.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, entry := range codes {
		if errors.Is(err, entry.marker) {
			return entry.code
		}
	}
	return "internal_error"
}

// HTTPStatus maps an error to the status code the trigger API responds with.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	for _, entry := range codes {
		if errors.Is(err, entry.marker) {
			return entry.status
		}
	}
	return http.StatusInternalServerError
}

// MarkerForCode returns the sentinel error behind a machine code, or nil when
// the code is unknown. API clients use it to restore errors.Is semantics.
func MarkerForCode(code string) error {
	code = strings.TrimSpace(code)
	for _, entry := range codes {
		if entry.code == code {
			return entry.marker
		}
	}
	return nil
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
