package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"photobooth/internal/config"
	"photobooth/internal/logging"
	"photobooth/internal/services"
)

const (
	userAgent     = "Photobooth-Go/0.1.0"
	maxBodyLogged = 2048
)

// Payload is the JSON body posted to the mailer.
type Payload struct {
	MailTo    string `json:"mailTo"`
	ImageData string `json:"imageData,omitempty"`
	VideoURL  string `json:"videoUrl,omitempty"`
}

// Empty reports whether the payload carries no media.
func (p Payload) Empty() bool {
	return strings.TrimSpace(p.ImageData) == "" && strings.TrimSpace(p.VideoURL) == ""
}

// Result reports the outcome of one send.
type Result struct {
	OK         bool
	Skipped    bool
	StatusCode int
	Body       string
	Detail     string
	Retryable  bool
}

// Err converts a failed result into an ErrNotificationFailed error.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	if r.Skipped {
		return services.Wrap(services.ErrNothingToDeliver, "notify", "", r.Detail, nil)
	}
	detail := strings.TrimSpace(r.Detail)
	if r.StatusCode > 0 {
		detail = fmt.Sprintf("http %d: %s", r.StatusCode, detail)
	}
	return services.Wrap(services.ErrNotificationFailed, "notify", "", detail, nil)
}

// Service defines the notification surface exposed to the delivery pipeline.
type Service interface {
	Send(ctx context.Context, payload Payload) Result
}

// Option customizes the mailer client.
type Option func(*mailerService)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(m *mailerService) {
		if client != nil {
			m.client = client
		}
	}
}

// WithLogger sets the logger used to record response bodies.
func WithLogger(logger *slog.Logger) Option {
	return func(m *mailerService) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewService builds a mailer-backed notification service from configuration.
func NewService(cfg *config.Config, opts ...Option) Service {
	if cfg == nil || strings.TrimSpace(cfg.Mailer.APIURL) == "" {
		return unconfiguredService{}
	}
	return NewMailer(cfg.Mailer.APIURL, cfg.MailerTimeout(), opts...)
}

// NewMailer builds a client for endpoint. A zero timeout leaves the transport
// default in place.
func NewMailer(endpoint string, timeout time.Duration, opts ...Option) Service {
	m := &mailerService{
		endpoint: strings.TrimSpace(endpoint),
		client:   &http.Client{Timeout: timeout},
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.NewComponentLogger(m.logger, "mailer")
	return m
}

type mailerService struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

func (m *mailerService) Send(ctx context.Context, payload Payload) Result {
	if payload.Empty() {
		return Result{Skipped: true, Detail: "payload has no image or video"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Detail: fmt.Sprintf("encode payload: %v", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{Detail: fmt.Sprintf("build mailer request: %v", err)}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return Result{Detail: fmt.Sprintf("send mailer request: %v", err), Retryable: retryable(ctx, err)}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyLogged))
	_, _ = io.Copy(io.Discard, resp.Body)
	text := strings.TrimSpace(string(raw))

	logger := logging.WithContext(ctx, m.logger)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Debug("mailer rejected request",
			logging.Int("status_code", resp.StatusCode),
			logging.String("response_body", text),
		)
		return Result{
			StatusCode: resp.StatusCode,
			Body:       text,
			Detail:     text,
			Retryable:  resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError,
		}
	}
	logger.Info("mailer accepted request",
		logging.Int("status_code", resp.StatusCode),
		logging.String("response_body", text),
	)
	return Result{OK: true, StatusCode: resp.StatusCode, Body: text}
}

func retryable(ctx context.Context, err error) bool {
	if ctx != nil && ctx.Err() != nil {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

type unconfiguredService struct{}

func (unconfiguredService) Send(_ context.Context, payload Payload) Result {
	if payload.Empty() {
		return Result{Skipped: true, Detail: "payload has no image or video"}
	}
	return Result{Detail: "mailer endpoint not configured"}
}
