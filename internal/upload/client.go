package upload

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"photobooth/internal/config"
	"photobooth/internal/services"
)

const (
	defaultMimeType = "video/mp4"
	maxDetailBytes  = 2048
)

// Media is a single file to upload.
type Media struct {
	Data     []byte
	Filename string
	MimeType string
}

// Result reports the outcome of one upload attempt.
type Result struct {
	OK         bool
	PublicURL  string
	Detail     string
	StatusCode int
	Retryable  bool
}

// Err converts a failed result into an ErrUploadFailed error. Successful
// results return nil.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	detail := strings.TrimSpace(r.Detail)
	if r.StatusCode > 0 {
		detail = fmt.Sprintf("http %d: %s", r.StatusCode, detail)
	}
	return services.Wrap(services.ErrUploadFailed, "upload", "", detail, nil)
}

// Uploader sends media to a host and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, media Media) Result
	Name() string
}

// New builds the uploader selected by upload.provider.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (Uploader, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "upload", "init", "missing configuration", nil)
	}
	switch cfg.Upload.Provider {
	case config.ProviderCloudinary:
		return NewCloudinary(cfg.CloudinaryUploadURL(), cfg.Cloudinary.UploadPreset, cfg.UploadTimeout(), opts...), nil
	case config.ProviderS3:
		return NewS3(ctx, S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PublicBaseURL:   cfg.S3.PublicBaseURL,
			KeyPrefix:       cfg.S3.KeyPrefix,
			Timeout:         cfg.UploadTimeout(),
		})
	default:
		return nil, services.Wrap(services.ErrConfiguration, "upload", "init", fmt.Sprintf("unsupported provider %q", cfg.Upload.Provider), nil)
	}
}

// Option customizes an HTTP-based uploader.
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// resolveMimeType keeps a declared type, otherwise sniffs the payload.
// Payloads the sniffer cannot place are sent as MP4.
func resolveMimeType(data []byte, declared string) string {
	if declared = strings.TrimSpace(declared); declared != "" {
		return declared
	}
	detected := mimetype.Detect(data)
	if detected == nil || detected.Is("application/octet-stream") || detected.Is("text/plain") {
		return defaultMimeType
	}
	return detected.String()
}

func retryableStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= http.StatusInternalServerError
}

func retryableTransport(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx != nil && ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func truncate(value string) string {
	value = strings.TrimSpace(value)
	if len(value) > maxDetailBytes {
		return value[:maxDetailBytes]
	}
	return value
}
