package upload_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"photobooth/internal/services"
	"photobooth/internal/upload"
)

func TestCloudinaryUploadSendsMultipartForm(t *testing.T) {
	var (
		gotPreset   string
		gotFile     string
		gotFilename string
		gotType     string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		reader, err := r.MultipartReader()
		if err != nil {
			t.Errorf("multipart reader: %v", err)
			return
		}
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Errorf("next part: %v", err)
				return
			}
			data, _ := io.ReadAll(part)
			switch part.FormName() {
			case "file":
				gotFile = string(data)
				gotFilename = part.FileName()
				gotType = part.Header.Get("Content-Type")
			case "upload_preset":
				gotPreset = string(data)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"secure_url":"https://res.example.com/video/upload/v1/abc.mp4","public_id":"abc"}`)
	}))
	defer srv.Close()

	client := upload.NewCloudinary(srv.URL, "booth_preset", 0)
	result := client.Upload(context.Background(), upload.Media{
		Data:     []byte("fake-mp4-bytes"),
		Filename: "/captures/session.mp4",
		MimeType: "video/mp4",
	})
	if !result.OK {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.PublicURL != "https://res.example.com/video/upload/v1/abc.mp4" {
		t.Fatalf("unexpected url %q", result.PublicURL)
	}
	if result.Err() != nil {
		t.Fatalf("expected nil error for success, got %v", result.Err())
	}
	if gotPreset != "booth_preset" {
		t.Fatalf("unexpected preset %q", gotPreset)
	}
	if gotFile != "fake-mp4-bytes" || gotFilename != "session.mp4" || gotType != "video/mp4" {
		t.Fatalf("unexpected file part: %q %q %q", gotFile, gotFilename, gotType)
	}
}

func TestCloudinaryUploadDefaultsMimeType(t *testing.T) {
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if files := r.MultipartForm.File["file"]; len(files) == 1 {
			gotType = files[0].Header.Get("Content-Type")
		}
		_, _ = io.WriteString(w, `{"secure_url":"https://res.example.com/v.mp4"}`)
	}))
	defer srv.Close()

	result := upload.NewCloudinary(srv.URL, "p", time.Second).Upload(context.Background(), upload.Media{Data: []byte("opaque"), Filename: "v.mp4"})
	if !result.OK {
		t.Fatalf("expected success, got %+v", result)
	}
	if gotType != "video/mp4" {
		t.Fatalf("expected fallback video/mp4, got %q", gotType)
	}
}

func TestCloudinaryUploadClassifiesFailures(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantRetryable bool
		wantDetail    string
	}{
		{"bad request", http.StatusBadRequest, `{"error":{"message":"Upload preset not found"}}`, false, "Upload preset not found"},
		{"server error", http.StatusServiceUnavailable, "maintenance", true, "maintenance"},
		{"rate limited", http.StatusTooManyRequests, "slow down", true, "slow down"},
		{"missing secure_url", http.StatusOK, `{"public_id":"abc"}`, false, "secure_url"},
		{"error message on 200", http.StatusOK, `{"error":{"message":"quota"}}`, false, "quota"},
		{"invalid json", http.StatusOK, `<html>`, false, "parse response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			result := upload.NewCloudinary(srv.URL, "p", time.Second).Upload(context.Background(), upload.Media{Data: []byte("x"), Filename: "a.mp4", MimeType: "video/mp4"})
			if result.OK {
				t.Fatalf("expected failure, got %+v", result)
			}
			if result.Retryable != tt.wantRetryable {
				t.Fatalf("retryable = %v, want %v", result.Retryable, tt.wantRetryable)
			}
			if !strings.Contains(result.Detail, tt.wantDetail) {
				t.Fatalf("detail %q does not mention %q", result.Detail, tt.wantDetail)
			}
			if !errors.Is(result.Err(), services.ErrUploadFailed) {
				t.Fatalf("expected ErrUploadFailed, got %v", result.Err())
			}
		})
	}
}

func TestCloudinaryUploadTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	result := upload.NewCloudinary(url, "p", time.Second).Upload(context.Background(), upload.Media{Data: []byte("x"), Filename: "a.mp4"})
	if result.OK {
		t.Fatal("expected transport failure")
	}
	if result.Detail == "" {
		t.Fatal("expected transport detail")
	}
	if !result.Retryable {
		t.Fatalf("expected connection failure to be retryable, got %+v", result)
	}
}

func TestCloudinaryUploadTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := upload.NewCloudinary(srv.URL, "p", 50*time.Millisecond)
	result := client.Upload(context.Background(), upload.Media{Data: []byte("x"), Filename: "a.mp4"})
	if result.OK {
		t.Fatal("expected timeout failure")
	}
	if !result.Retryable {
		t.Fatalf("expected timeout to be retryable, got %+v", result)
	}
}

func TestCloudinaryUploadWithHTTPClientOption(t *testing.T) {
	var called bool
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"secure_url":"https://x/y.mp4"}`)),
			Header:     make(http.Header),
		}, nil
	})}
	result := upload.NewCloudinary("https://api.example.com/v1_1/demo/video/upload", "p", 0, upload.WithHTTPClient(client)).
		Upload(context.Background(), upload.Media{Data: []byte("x"), Filename: "a.mp4"})
	if !called || !result.OK {
		t.Fatalf("expected injected client to be used, called=%v result=%+v", called, result)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
