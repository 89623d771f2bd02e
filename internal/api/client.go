package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"photobooth/internal/services"
)

const (
	defaultClientTimeout = 5 * time.Minute
	maxErrorBody         = 4 << 10
	// ArtifactURLHeader carries the URL encoded by the served artifact PNG.
	ArtifactURLHeader = "X-Artifact-URL"
)

// Error reports a non-2xx API response.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.StatusCode, e.Message)
}

// Unwrap exposes the services sentinel matching the response code.
func (e *Error) Unwrap() error {
	return services.MarkerForCode(e.Code)
}

// Client talks to a running photobooth daemon.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds a client for bind, which may be host:port or a full URL.
func NewClient(bind, token string, opts ...ClientOption) *Client {
	base := strings.TrimRight(strings.TrimSpace(bind), "/")
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	c := &Client{
		baseURL:    base,
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: defaultClientTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status fetches daemon status.
func (c *Client) Status(ctx context.Context) (DaemonStatus, error) {
	var status DaemonStatus
	resp, err := c.do(ctx, http.MethodGet, "/api/status", nil, "")
	if err != nil {
		return status, err
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return status, err
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return status, fmt.Errorf("decode status: %w", err)
	}
	return status, nil
}

// Deliver triggers a delivery job and waits for its outcome. The outcome is
// populated whenever the daemon produced one, including on job failures.
func (c *Client) Deliver(ctx context.Context, selection, recipient string) (DeliveryOutcome, error) {
	var outcome DeliveryOutcome
	body, err := json.Marshal(DeliveryRequest{Recipient: strings.TrimSpace(recipient)})
	if err != nil {
		return outcome, fmt.Errorf("encode delivery request: %w", err)
	}
	path := "/api/deliveries/" + url.PathEscape(strings.TrimSpace(selection))
	resp, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(body), "application/json")
	if err != nil {
		return outcome, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return outcome, fmt.Errorf("read delivery response: %w", err)
	}
	decodeErr := json.Unmarshal(raw, &outcome)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return outcome, errorFromBody(resp.StatusCode, raw)
	}
	if decodeErr != nil {
		return outcome, fmt.Errorf("decode delivery outcome: %w", decodeErr)
	}
	return outcome, nil
}

// SetStill uploads a JPEG or PNG still to the daemon.
func (c *Client) SetStill(ctx context.Context, image io.Reader) (StillStatus, error) {
	var still StillStatus
	resp, err := c.do(ctx, http.MethodPut, "/api/still", image, "application/octet-stream")
	if err != nil {
		return still, err
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return still, err
	}
	if err := json.NewDecoder(resp.Body).Decode(&still); err != nil {
		return still, fmt.Errorf("decode still status: %w", err)
	}
	return still, nil
}

// ClearStill drops the daemon's captured still.
func (c *Client) ClearStill(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/still", nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkResponse(resp)
}

// LatestArtifact downloads the most recent artifact PNG and the URL it encodes.
func (c *Client) LatestArtifact(ctx context.Context) ([]byte, string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/artifact", nil, "")
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return nil, "", err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read artifact: %w", err)
	}
	return data, resp.Header.Get(ArtifactURLHeader), nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	if c.baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "api client", "", "api.bind is not configured", nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contact daemon at %s: %w", c.baseURL, err)
	}
	return resp, nil
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return errorFromBody(resp.StatusCode, raw)
}

func errorFromBody(status int, raw []byte) error {
	var payload ErrorResponse
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Error == "" {
		message := strings.TrimSpace(string(raw))
		if message == "" {
			message = http.StatusText(status)
		}
		return &Error{StatusCode: status, Code: payload.Code, Message: message}
	}
	return &Error{StatusCode: status, Code: payload.Code, Message: payload.Error}
}
