package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"photobooth/internal/api"
	"photobooth/internal/config"
	"photobooth/internal/delivery"
	"photobooth/internal/logging"
	"photobooth/internal/media"
	"photobooth/internal/services"
)

const (
	maxDeliveryBody = 4 << 10
	maxStillBody    = 32 << 20
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	if cfg == nil || d == nil {
		return nil
	}
	bind := strings.TrimSpace(cfg.API.Bind)
	if bind == "" {
		return nil
	}
	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(cfg.API.Token),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      deliveryWriteTimeout(cfg),
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// deliveryWriteTimeout bounds a synchronous delivery response: every upload
// and mailer attempt at its request timeout plus the longest backoff between
// attempts. A mailer without a timeout is budgeted like an upload request.
func deliveryWriteTimeout(cfg *config.Config) time.Duration {
	_, maxDelay := cfg.UploadRetryDelays()
	mailerTimeout := cfg.MailerTimeout()
	if mailerTimeout <= 0 {
		mailerTimeout = cfg.UploadTimeout()
	}
	total := attemptsBudget(cfg.Upload.MaxAttempts, cfg.UploadTimeout(), maxDelay) +
		attemptsBudget(cfg.Mailer.MaxAttempts, mailerTimeout, maxDelay)
	return total + 30*time.Second
}

func attemptsBudget(attempts int, perAttempt, maxDelay time.Duration) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	return time.Duration(attempts)*perAttempt + time.Duration(attempts-1)*maxDelay
}

func (s *apiServer) routes(token string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(s.accessLog)
	r.Use(authMiddleware(token))

	r.Get("/api/status", s.handleStatus)
	r.Post("/api/deliveries/{selection}", s.handleDelivery)
	r.Put("/api/still", s.handleSetStill)
	r.Delete("/api/still", s.handleClearStill)
	r.Get("/api/artifact", s.handleArtifact)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusNotFound, "not found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
	})
	return r
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:          status.Running,
		Busy:             status.Busy,
		PID:              status.PID,
		LockFilePath:     status.LockFilePath,
		CaptureDir:       status.CaptureDir,
		LatestVideo:      status.LatestVideo,
		UploadProvider:   status.UploadProvider,
		MailerConfigured: status.MailerConfigured,
		Still: api.StillStatus{
			Loaded:     status.Still.Loaded,
			Width:      status.Still.Width,
			Height:     status.Still.Height,
			CapturedAt: api.FormatTime(status.Still.CapturedAt),
		},
		Artifact: api.ArtifactStatus{
			Available: status.ArtifactURL != "",
			URL:       status.ArtifactURL,
			UpdatedAt: api.FormatTime(status.ArtifactAt),
		},
	}
	if status.LastOutcome != nil {
		last := api.FromOutcome(*status.LastOutcome)
		payload.LastOutcome = &last
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleDelivery(w http.ResponseWriter, r *http.Request) {
	selection, err := delivery.ParseSelection(chi.URLParam(r, "selection"))
	if err != nil {
		s.writeError(w, services.HTTPStatus(err), err.Error(), services.Code(err))
		return
	}

	var body api.DeliveryRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxDeliveryBody))
	if err := decoder.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid request body", services.Code(services.ErrValidation))
		return
	}

	// An accepted job runs to completion even if the caller disconnects.
	ctx := context.WithoutCancel(r.Context())
	outcome, err := s.daemon.Deliver(ctx, delivery.Request{Selection: selection, Recipient: body.Recipient})
	s.writeJSON(w, services.HTTPStatus(err), api.FromOutcome(outcome))
}

func (s *apiServer) handleSetStill(w http.ResponseWriter, r *http.Request) {
	img, err := media.DecodeStill(http.MaxBytesReader(w, r.Body, maxStillBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "still exceeds size limit", services.Code(services.ErrValidation))
			return
		}
		s.writeError(w, services.HTTPStatus(err), err.Error(), services.Code(err))
		return
	}
	info, err := s.daemon.SetStill(img)
	if err != nil {
		s.writeError(w, services.HTTPStatus(err), err.Error(), services.Code(err))
		return
	}
	s.writeJSON(w, http.StatusOK, api.StillStatus{
		Loaded:     info.Loaded,
		Width:      info.Width,
		Height:     info.Height,
		CapturedAt: api.FormatTime(info.CapturedAt),
	})
}

func (s *apiServer) handleClearStill(w http.ResponseWriter, _ *http.Request) {
	s.daemon.ClearStill()
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleArtifact(w http.ResponseWriter, _ *http.Request) {
	data, url, updatedAt, ok := s.daemon.LatestArtifact()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no artifact displayed yet", "")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Last-Modified", updatedAt.UTC().Format(http.TimeFormat))
	w.Header().Set(api.ArtifactURLHeader, url)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *apiServer) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.WithContext(r.Context(), s.log()).Debug("api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Duration("elapsed", time.Since(start)),
		)
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message, code string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message, Code: code})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
