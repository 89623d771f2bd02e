package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultUploadTimeout bounds a single Cloudinary request.
	DefaultUploadTimeout = 120 * time.Second
	maxResponseBytes     = 1 << 20
)

// CloudinaryClient performs unsigned video uploads.
type CloudinaryClient struct {
	endpoint   string
	preset     string
	httpClient *http.Client
}

// NewCloudinary constructs a client posting to endpoint with the given
// upload preset.
func NewCloudinary(endpoint, preset string, timeout time.Duration, opts ...Option) *CloudinaryClient {
	if timeout <= 0 {
		timeout = DefaultUploadTimeout
	}
	o := options{httpClient: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(&o)
	}
	return &CloudinaryClient{
		endpoint:   strings.TrimSpace(endpoint),
		preset:     strings.TrimSpace(preset),
		httpClient: o.httpClient,
	}
}

// Name identifies the backend in logs.
func (c *CloudinaryClient) Name() string { return "cloudinary" }

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload posts media as multipart form data and parses secure_url.
func (c *CloudinaryClient) Upload(ctx context.Context, media Media) Result {
	body, contentType, err := c.buildForm(media)
	if err != nil {
		return Result{Detail: fmt.Sprintf("build form: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return Result{Detail: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Detail: err.Error(), Retryable: retryableTransport(ctx, err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{StatusCode: resp.StatusCode, Detail: fmt.Sprintf("read response: %v", err), Retryable: retryableTransport(ctx, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{
			StatusCode: resp.StatusCode,
			Detail:     truncate(string(raw)),
			Retryable:  retryableStatus(resp.StatusCode),
		}
	}

	var parsed cloudinaryResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{StatusCode: resp.StatusCode, Detail: fmt.Sprintf("parse response: %v", err)}
	}
	url := strings.TrimSpace(parsed.SecureURL)
	if url == "" {
		detail := "response missing secure_url"
		if parsed.Error != nil && parsed.Error.Message != "" {
			detail = parsed.Error.Message
		}
		return Result{StatusCode: resp.StatusCode, Detail: detail}
	}
	return Result{OK: true, PublicURL: url, StatusCode: resp.StatusCode}
}

func (c *CloudinaryClient) buildForm(media Media) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	filename := filepath.Base(strings.TrimSpace(media.Filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		filename = "capture.mp4"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", resolveMimeType(media.Data, media.MimeType))
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(media.Data); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("upload_preset", c.preset); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}
