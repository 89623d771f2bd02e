package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"photobooth/internal/api"
	"photobooth/internal/config"
	"photobooth/internal/logging"
	"photobooth/internal/notifications"
	"photobooth/internal/testsupport"
)

type mailSink struct {
	mu       sync.Mutex
	payloads []notifications.Payload
	entered  chan struct{}
	release  chan struct{}
}

func (m *mailSink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var payload notifications.Payload
	_ = json.NewDecoder(r.Body).Decode(&payload)
	m.mu.Lock()
	m.payloads = append(m.payloads, payload)
	entered, release := m.entered, m.release
	m.entered = nil
	m.mu.Unlock()
	if entered != nil {
		close(entered)
		<-release
	}
	_, _ = io.WriteString(w, "ok")
}

func (m *mailSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payloads)
}

type apiHarness struct {
	cfg     *config.Config
	daemon  *Daemon
	handler http.Handler
	mail    *mailSink
}

func newAPIHarness(t *testing.T, opts ...testsupport.ConfigOption) *apiHarness {
	t.Helper()
	mail := &mailSink{}
	mailer := httptest.NewServer(mail)
	t.Cleanup(mailer.Close)

	host := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/demo/video/upload" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"secure_url":"https://media.example.com/demo/clip.mp4"}`)
	}))
	t.Cleanup(host.Close)

	opts = append([]testsupport.ConfigOption{
		testsupport.WithMailerURL(mailer.URL),
		testsupport.WithCloudinaryBase(host.URL),
	}, opts...)
	cfg := testsupport.NewConfig(t, opts...)

	components, err := BuildComponents(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("BuildComponents: %v", err)
	}
	d, err := New(cfg, logging.NewNop(), components)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv := newAPIServer(cfg, d, logging.NewNop())
	return &apiHarness{cfg: cfg, daemon: d, handler: srv.routes(cfg.API.Token), mail: mail}
}

func (h *apiHarness) do(t *testing.T, method, path string, body []byte, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func decodeOutcome(t *testing.T, w *httptest.ResponseRecorder) api.DeliveryOutcome {
	t.Helper()
	var outcome api.DeliveryOutcome
	if err := json.Unmarshal(w.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("decode outcome: %v (body %s)", err, w.Body.String())
	}
	return outcome
}

func TestDeliveryWithoutStillIsUnprocessable(t *testing.T) {
	h := newAPIHarness(t)
	w := h.do(t, http.MethodPost, "/api/deliveries/image", nil, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	if outcome := decodeOutcome(t, w); outcome.Code != "no_input_available" || outcome.JobID != "" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if h.mail.count() != 0 {
		t.Fatal("expected no mail")
	}
}

func TestStillUploadAndImageDelivery(t *testing.T) {
	h := newAPIHarness(t)

	w := h.do(t, http.MethodPut, "/api/still", testsupport.StillPNG(t, 64, 48), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for still upload, got %d: %s", w.Code, w.Body.String())
	}
	var still api.StillStatus
	if err := json.Unmarshal(w.Body.Bytes(), &still); err != nil {
		t.Fatalf("decode still: %v", err)
	}
	if !still.Loaded || still.Width != 64 || still.Height != 48 {
		t.Fatalf("unexpected still %+v", still)
	}

	w = h.do(t, http.MethodPost, "/api/deliveries/image", []byte(`{"recipient":"guest@example.com"}`), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	outcome := decodeOutcome(t, w)
	if outcome.Status != "delivered" || outcome.Recipient != "guest@example.com" || outcome.JobID == "" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if h.mail.count() != 1 || h.mail.payloads[0].ImageData == "" || h.mail.payloads[0].VideoURL != "" {
		t.Fatalf("unexpected mail %+v", h.mail.payloads)
	}

	w = h.do(t, http.MethodGet, "/api/status", nil, nil)
	var status api.DaemonStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Busy || !status.Still.Loaded || status.LastOutcome == nil || status.LastOutcome.JobID != outcome.JobID {
		t.Fatalf("unexpected status %+v", status)
	}

	if w := h.do(t, http.MethodDelete, "/api/still", nil, nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if h.daemon.Still().Loaded {
		t.Fatal("expected still cleared")
	}
}

func TestCombinedDeliveryPublishesArtifact(t *testing.T) {
	h := newAPIHarness(t)
	testsupport.WriteVideo(t, h.cfg.Paths.CaptureDir, "clip.mp4", 2048, time.Now())
	if w := h.do(t, http.MethodPut, "/api/still", testsupport.StillPNG(t, 32, 32), nil); w.Code != http.StatusOK {
		t.Fatalf("still upload failed: %d", w.Code)
	}

	if w := h.do(t, http.MethodGet, "/api/artifact", nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before any artifact, got %d", w.Code)
	}

	w := h.do(t, http.MethodPost, "/api/deliveries/combined", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	outcome := decodeOutcome(t, w)
	if outcome.Status != "delivered" || outcome.VideoURL != "https://media.example.com/demo/clip.mp4" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if len(outcome.Stages) != 4 {
		t.Fatalf("expected four stages, got %+v", outcome.Stages)
	}

	w = h.do(t, http.MethodGet, "/api/artifact", nil, nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("expected png artifact, got %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	if w.Header().Get(api.ArtifactURLHeader) != outcome.VideoURL {
		t.Fatalf("unexpected artifact url header %q", w.Header().Get(api.ArtifactURLHeader))
	}
	if _, err := os.Stat(h.cfg.Paths.ArtifactPath); err != nil {
		t.Fatalf("expected artifact file on disk: %v", err)
	}
}

func TestBusyDaemonRejectsSecondDelivery(t *testing.T) {
	h := newAPIHarness(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	h.mail.entered = entered
	h.mail.release = release
	if w := h.do(t, http.MethodPut, "/api/still", testsupport.StillPNG(t, 16, 16), nil); w.Code != http.StatusOK {
		t.Fatalf("still upload failed: %d", w.Code)
	}

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		req := httptest.NewRequest(http.MethodPost, "/api/deliveries/image", nil)
		w := httptest.NewRecorder()
		h.handler.ServeHTTP(w, req)
		done <- w
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first job never reached the mailer")
	}

	var status api.DaemonStatus
	if err := json.Unmarshal(h.do(t, http.MethodGet, "/api/status", nil, nil).Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Busy {
		t.Fatal("expected busy while a job runs")
	}

	for _, selection := range []string{"image", "video", "combined"} {
		w := h.do(t, http.MethodPost, "/api/deliveries/"+selection, nil, nil)
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409 for %s, got %d", selection, w.Code)
		}
		if outcome := decodeOutcome(t, w); outcome.Code != "job_busy" {
			t.Fatalf("unexpected busy outcome %+v", outcome)
		}
	}

	close(release)
	first := <-done
	if first.Code != http.StatusOK {
		t.Fatalf("expected first job to succeed, got %d: %s", first.Code, first.Body.String())
	}
	if h.mail.count() != 1 {
		t.Fatalf("expected exactly one mail, got %d", h.mail.count())
	}
	if h.daemon.Status(context.Background()).Busy {
		t.Fatal("expected idle after job")
	}
}

func TestDeliveryRejectsUnknownSelection(t *testing.T) {
	h := newAPIHarness(t)
	w := h.do(t, http.MethodPost, "/api/deliveries/slideshow", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp api.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Code != "invalid_request" {
		t.Fatalf("unexpected error body %s", w.Body.String())
	}

	w = h.do(t, http.MethodPost, "/api/deliveries/image", []byte(`{"recipient":`), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestStillUploadRejectsNonImages(t *testing.T) {
	h := newAPIHarness(t)
	w := h.do(t, http.MethodPut, "/api/still", []byte("definitely not an image"), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "unsupported content type") {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestAPIRequiresBearerToken(t *testing.T) {
	h := newAPIHarness(t, testsupport.WithAPIToken("s3cret"))

	if w := h.do(t, http.MethodGet, "/api/status", nil, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	wrong := http.Header{"Authorization": []string{"Bearer nope"}}
	if w := h.do(t, http.MethodGet, "/api/status", nil, wrong); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}
	right := http.Header{"Authorization": []string{"Bearer s3cret"}}
	w := h.do(t, http.MethodGet, "/api/status", nil, right)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	h := newAPIHarness(t)
	w := h.do(t, http.MethodGet, "/api/queue", nil, nil)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "not found") {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}
}

func TestDeliveryWriteTimeoutCoversRetries(t *testing.T) {
	cfg := config.Default()
	cfg.Upload.RequestTimeout = 60
	cfg.Mailer.RequestTimeout = 10
	if got, want := deliveryWriteTimeout(&cfg), 100*time.Second; got != want {
		t.Fatalf("single attempt timeout = %s, want %s", got, want)
	}

	cfg.Upload.MaxAttempts = 3
	cfg.Mailer.MaxAttempts = 2
	cfg.Upload.RetryMaxDelayMS = 5000
	// 3*60s + 2*5s upload, 2*10s + 5s mailer, 30s slack.
	if got, want := deliveryWriteTimeout(&cfg), 245*time.Second; got != want {
		t.Fatalf("retrying timeout = %s, want %s", got, want)
	}

	cfg.Mailer.RequestTimeout = 0
	cfg.Mailer.MaxAttempts = 1
	if got, want := deliveryWriteTimeout(&cfg), 280*time.Second; got != want {
		t.Fatalf("unbounded mailer timeout = %s, want %s", got, want)
	}

	srv := newAPIServer(&cfg, &Daemon{}, logging.NewNop())
	if srv.server.WriteTimeout != deliveryWriteTimeout(&cfg) {
		t.Fatalf("server write timeout %s not derived from retry policy", srv.server.WriteTimeout)
	}
}
