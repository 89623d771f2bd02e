package testsupport

import (
	"path/filepath"
	"testing"

	"photobooth/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Endpoints point at unroutable placeholders until overridden.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CaptureDir = filepath.Join(base, "captures")
	cfgVal.Paths.ArtifactPath = filepath.Join(base, "artifact", "qr.png")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Cloudinary.BaseURL = "http://127.0.0.1:1"
	cfgVal.Cloudinary.CloudName = "demo"
	cfgVal.Cloudinary.UploadPreset = "photobooth"
	cfgVal.Mailer.APIURL = "http://127.0.0.1:1/send"
	cfgVal.Upload.RequestTimeout = 5
	cfgVal.Mailer.RequestTimeout = 5
	cfgVal.API.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMailerURL points the mailer at url.
func WithMailerURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Mailer.APIURL = url
	}
}

// WithCloudinaryBase points the Cloudinary client at base; uploads go to
// base + "/demo/video/upload".
func WithCloudinaryBase(base string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cloudinary.BaseURL = base
	}
}

// WithAPIToken sets the trigger API bearer token.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.Token = token
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.CaptureDir)
}
