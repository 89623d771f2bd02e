package daemon

import (
	"context"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	"photobooth/internal/config"
	"photobooth/internal/services"
)

// Reporter forwards job-level failures to an error tracker.
type Reporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
	Flush(timeout time.Duration)
}

// NewReporter returns a Sentry reporter when a DSN is configured and a no-op
// reporter otherwise.
func NewReporter(cfg config.Sentry) (Reporter, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nopReporter{}, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: strings.TrimSpace(cfg.Environment),
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "sentry", "init", "invalid sentry.dsn", err)
	}
	return &sentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

type sentryReporter struct {
	hub *sentry.Hub
}

func (r *sentryReporter) Report(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		for key, value := range tags {
			scope.SetTag(key, value)
		}
		if jobID, ok := services.JobIDFromContext(ctx); ok {
			scope.SetTag("job_id", jobID)
		}
		if requestID, ok := services.RequestIDFromContext(ctx); ok {
			scope.SetTag("request_id", requestID)
		}
		scope.SetTag("code", services.Code(err))
		r.hub.CaptureException(err)
	})
}

func (r *sentryReporter) Flush(timeout time.Duration) {
	r.hub.Flush(timeout)
}

type nopReporter struct{}

func (nopReporter) Report(context.Context, error, map[string]string) {}

func (nopReporter) Flush(time.Duration) {}

// reportable reports whether a job error indicates an operational problem
// rather than a caller mistake or an expected rejection.
func reportable(err error) bool {
	switch services.Code(err) {
	case "", "job_busy", "no_input_available", "invalid_request":
		return false
	default:
		return true
	}
}
