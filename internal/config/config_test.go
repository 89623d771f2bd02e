package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"photobooth/internal/config"
)

func TestLoadDefaultConfigUsesEnvAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo-cloud")
	t.Setenv("CLOUDINARY_UPLOAD_PRESET", "booth")
	t.Setenv("PHOTOBOOTH_MAILER_URL", "https://mailer.example.com/api/send-photo")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantCapture := filepath.Join(tempHome, ".local", "share", "photobooth", "videos")
	if cfg.Paths.CaptureDir != wantCapture {
		t.Fatalf("unexpected capture dir: got %q want %q", cfg.Paths.CaptureDir, wantCapture)
	}
	if cfg.Cloudinary.CloudName != "demo-cloud" || cfg.Cloudinary.UploadPreset != "booth" {
		t.Fatalf("expected cloudinary settings from env, got %+v", cfg.Cloudinary)
	}
	if got := cfg.CloudinaryUploadURL(); got != "https://api.cloudinary.com/v1_1/demo-cloud/video/upload" {
		t.Fatalf("unexpected upload url: %q", got)
	}
	if cfg.Image.JPEGQuality != 85 {
		t.Fatalf("expected jpeg quality 85, got %d", cfg.Image.JPEGQuality)
	}
	if cfg.UploadTimeout() != 120*time.Second {
		t.Fatalf("expected 120s upload timeout, got %s", cfg.UploadTimeout())
	}
	if cfg.Upload.MaxAttempts != 1 || cfg.Mailer.MaxAttempts != 1 {
		t.Fatalf("expected single attempt defaults, got upload=%d mailer=%d", cfg.Upload.MaxAttempts, cfg.Mailer.MaxAttempts)
	}
	if cfg.MailerTimeout() != 0 {
		t.Fatalf("expected mailer timeout to default to transport default, got %s", cfg.MailerTimeout())
	}
	if cfg.Artifact.Size != 500 || cfg.Artifact.DisplayBox != 500 {
		t.Fatalf("unexpected artifact defaults: %+v", cfg.Artifact)
	}
	if cfg.Capture.Extension != ".mp4" {
		t.Fatalf("unexpected capture extension: %q", cfg.Capture.Extension)
	}
	if cfg.MaxVideoBytes() != 100<<20 {
		t.Fatalf("expected 100 MiB video cap, got %d", cfg.MaxVideoBytes())
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
capture_dir = "~/booth/videos"

[capture]
extension = "MOV"

[upload]
provider = "S3"
max_attempts = 3
max_video_mb = 250

[s3]
bucket = "booth-media"
public_base_url = "https://media.example.com/"
key_prefix = "/events/"

[mailer]
api_url = "https://mailer.example.com/send"
default_recipient = " guest@example.com "

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected explicit config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.CaptureDir != filepath.Join(tempHome, "booth", "videos") {
		t.Fatalf("unexpected capture dir: %q", cfg.Paths.CaptureDir)
	}
	if cfg.Capture.Extension != ".mov" {
		t.Fatalf("expected normalized extension, got %q", cfg.Capture.Extension)
	}
	if cfg.Upload.Provider != config.ProviderS3 || cfg.Upload.MaxAttempts != 3 {
		t.Fatalf("unexpected upload settings: %+v", cfg.Upload)
	}
	if cfg.MaxVideoBytes() != 250<<20 {
		t.Fatalf("unexpected video cap: %d", cfg.MaxVideoBytes())
	}
	if cfg.S3.PublicBaseURL != "https://media.example.com" || cfg.S3.KeyPrefix != "events" {
		t.Fatalf("unexpected s3 settings: %+v", cfg.S3)
	}
	if cfg.Mailer.DefaultRecipient != "guest@example.com" {
		t.Fatalf("expected trimmed recipient, got %q", cfg.Mailer.DefaultRecipient)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging settings: %+v", cfg.Logging)
	}
}

func TestValidateRejectsInvalidSettings(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.Cloudinary.CloudName = "demo"
		cfg.Cloudinary.UploadPreset = "preset"
		cfg.Mailer.APIURL = "https://mailer.example.com/send"
		return cfg
	}

	valid := base()
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected base config to validate, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"quality too high", func(c *config.Config) { c.Image.JPEGQuality = 101 }, "image.jpeg_quality"},
		{"missing preset", func(c *config.Config) { c.Cloudinary.UploadPreset = "" }, "cloudinary.upload_preset"},
		{"missing cloud", func(c *config.Config) { c.Cloudinary.CloudName = "" }, "cloudinary.cloud_name"},
		{"unknown provider", func(c *config.Config) { c.Upload.Provider = "ftp" }, "upload.provider"},
		{"s3 without bucket", func(c *config.Config) { c.Upload.Provider = config.ProviderS3 }, "s3.bucket"},
		{"missing mailer", func(c *config.Config) { c.Mailer.APIURL = "" }, "mailer.api_url"},
		{"mailer not http", func(c *config.Config) { c.Mailer.APIURL = "ftp://mailer" }, "mailer.api_url"},
		{"zero timeout", func(c *config.Config) { c.Upload.RequestTimeout = 0 }, "upload.request_timeout"},
		{"zero video cap", func(c *config.Config) { c.Upload.MaxVideoMB = 0 }, "upload.max_video_mb"},
		{"zero artifact", func(c *config.Config) { c.Artifact.Size = 0 }, "artifact.size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestEnsureDirectoriesCreatesPaths(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.CaptureDir = filepath.Join(base, "videos")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ArtifactPath = filepath.Join(base, "artifact", "qr.png")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.CaptureDir, cfg.Paths.LogDir, filepath.Dir(cfg.Paths.ArtifactPath)} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}

func TestCreateSampleProducesParsableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var parsed config.Config
	if err := toml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if parsed.Image.JPEGQuality != 85 {
		t.Fatalf("expected sample jpeg quality 85, got %d", parsed.Image.JPEGQuality)
	}
	if parsed.Upload.Provider != config.ProviderCloudinary {
		t.Fatalf("expected sample provider cloudinary, got %q", parsed.Upload.Provider)
	}
}
