package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and artifact locations.
type Paths struct {
	CaptureDir   string `toml:"capture_dir"`
	ArtifactPath string `toml:"artifact_path"`
	LogDir       string `toml:"log_dir"`
}

// Capture describes how recorded videos are discovered.
type Capture struct {
	Extension string `toml:"extension"`
}

// Image contains still encoding settings.
type Image struct {
	JPEGQuality int `toml:"jpeg_quality"`
}

// Upload selects the media host and its request policy.
type Upload struct {
	Provider         string `toml:"provider"`
	RequestTimeout   int    `toml:"request_timeout"`
	MaxAttempts      int    `toml:"max_attempts"`
	RetryBaseDelayMS int    `toml:"retry_base_delay_ms"`
	RetryMaxDelayMS  int    `toml:"retry_max_delay_ms"`
	MaxVideoMB       int    `toml:"max_video_mb"`
}

// Cloudinary contains unsigned-preset upload settings.
type Cloudinary struct {
	BaseURL      string `toml:"base_url"`
	CloudName    string `toml:"cloud_name"`
	UploadPreset string `toml:"upload_preset"`
}

// S3 contains settings for the S3-compatible upload backend.
type S3 struct {
	Bucket          string `toml:"bucket"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	PublicBaseURL   string `toml:"public_base_url"`
	KeyPrefix       string `toml:"key_prefix"`
}

// Mailer contains configuration for the email delivery endpoint.
type Mailer struct {
	APIURL           string `toml:"api_url"`
	DefaultRecipient string `toml:"default_recipient"`
	RequestTimeout   int    `toml:"request_timeout"`
	MaxAttempts      int    `toml:"max_attempts"`
}

// Artifact contains QR rendering settings.
type Artifact struct {
	Size       int `toml:"size"`
	DisplayBox int `toml:"display_box"`
}

// API contains the trigger API bind address and bearer token.
type API struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Sentry contains optional error reporting settings.
type Sentry struct {
	DSN         string `toml:"dsn"`
	Environment string `toml:"environment"`
}

// Config encapsulates all configuration values for the photobooth.
//
// Configuration sections by subsystem:
//   - Paths: capture directory, artifact output, and logs
//   - Capture: video file extension to look for
//   - Image: JPEG quality for stills
//   - Upload: provider selection, timeout, and retry policy
//   - Cloudinary / S3: provider credentials
//   - Mailer: notification endpoint and default recipient
//   - Artifact: QR size and display box
//   - API: trigger API bind and token
//   - Logging: log format and level
//   - Sentry: optional error reporting
type Config struct {
	Paths      Paths      `toml:"paths"`
	Capture    Capture    `toml:"capture"`
	Image      Image      `toml:"image"`
	Upload     Upload     `toml:"upload"`
	Cloudinary Cloudinary `toml:"cloudinary"`
	S3         S3         `toml:"s3"`
	Mailer     Mailer     `toml:"mailer"`
	Artifact   Artifact   `toml:"artifact"`
	API        API        `toml:"api"`
	Logging    Logging    `toml:"logging"`
	Sentry     Sentry     `toml:"sentry"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("photobooth.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the capture, log, and artifact directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.CaptureDir, c.Paths.LogDir}
	if strings.TrimSpace(c.Paths.ArtifactPath) != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.ArtifactPath))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// UploadTimeout returns the upload request timeout.
func (c *Config) UploadTimeout() time.Duration {
	return time.Duration(c.Upload.RequestTimeout) * time.Second
}

// MailerTimeout returns the mailer request timeout. Zero leaves the transport default.
func (c *Config) MailerTimeout() time.Duration {
	return time.Duration(c.Mailer.RequestTimeout) * time.Second
}

// UploadRetryDelays returns the base and maximum backoff between upload attempts.
func (c *Config) UploadRetryDelays() (time.Duration, time.Duration) {
	return time.Duration(c.Upload.RetryBaseDelayMS) * time.Millisecond,
		time.Duration(c.Upload.RetryMaxDelayMS) * time.Millisecond
}

// MaxVideoBytes returns the largest capture the uploader will read.
func (c *Config) MaxVideoBytes() int64 {
	return int64(c.Upload.MaxVideoMB) << 20
}

// CloudinaryUploadURL returns the video upload endpoint for the configured cloud.
func (c *Config) CloudinaryUploadURL() string {
	base := strings.TrimRight(c.Cloudinary.BaseURL, "/")
	return base + "/" + c.Cloudinary.CloudName + "/video/upload"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
