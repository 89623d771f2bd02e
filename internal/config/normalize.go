package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCapture()
	c.normalizeUpload()
	c.normalizeCloudinary()
	c.normalizeS3()
	c.normalizeMailer()
	c.normalizeAPI()
	c.normalizeLogging()
	c.normalizeSentry()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CaptureDir) == "" {
		c.Paths.CaptureDir = defaultCaptureDir
	}
	if c.Paths.CaptureDir, err = expandPath(c.Paths.CaptureDir); err != nil {
		return fmt.Errorf("paths.capture_dir: %w", err)
	}
	if c.Paths.ArtifactPath, err = expandPath(strings.TrimSpace(c.Paths.ArtifactPath)); err != nil {
		return fmt.Errorf("paths.artifact_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCapture() {
	ext := strings.ToLower(strings.TrimSpace(c.Capture.Extension))
	if ext == "" {
		ext = defaultCaptureExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.Capture.Extension = ext
}

func (c *Config) normalizeUpload() {
	c.Upload.Provider = strings.ToLower(strings.TrimSpace(c.Upload.Provider))
	if c.Upload.Provider == "" {
		c.Upload.Provider = defaultUploadProvider
	}
	if c.Upload.MaxAttempts == 0 {
		c.Upload.MaxAttempts = defaultUploadAttempts
	}
	if c.Upload.MaxVideoMB == 0 {
		c.Upload.MaxVideoMB = defaultMaxVideoMB
	}
}

func (c *Config) normalizeCloudinary() {
	c.Cloudinary.BaseURL = strings.TrimSpace(c.Cloudinary.BaseURL)
	if c.Cloudinary.BaseURL == "" {
		c.Cloudinary.BaseURL = defaultCloudinaryBaseURL
	}
	c.Cloudinary.CloudName = strings.TrimSpace(c.Cloudinary.CloudName)
	if c.Cloudinary.CloudName == "" {
		if value, ok := os.LookupEnv("CLOUDINARY_CLOUD_NAME"); ok {
			c.Cloudinary.CloudName = strings.TrimSpace(value)
		}
	}
	c.Cloudinary.UploadPreset = strings.TrimSpace(c.Cloudinary.UploadPreset)
	if c.Cloudinary.UploadPreset == "" {
		if value, ok := os.LookupEnv("CLOUDINARY_UPLOAD_PRESET"); ok {
			c.Cloudinary.UploadPreset = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeS3() {
	c.S3.Bucket = strings.TrimSpace(c.S3.Bucket)
	c.S3.Region = strings.TrimSpace(c.S3.Region)
	c.S3.Endpoint = strings.TrimSpace(c.S3.Endpoint)
	c.S3.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.S3.PublicBaseURL), "/")
	c.S3.KeyPrefix = strings.Trim(strings.TrimSpace(c.S3.KeyPrefix), "/")
	c.S3.AccessKeyID = strings.TrimSpace(c.S3.AccessKeyID)
	if c.S3.AccessKeyID == "" {
		if value, ok := os.LookupEnv("AWS_ACCESS_KEY_ID"); ok {
			c.S3.AccessKeyID = strings.TrimSpace(value)
		}
	}
	c.S3.SecretAccessKey = strings.TrimSpace(c.S3.SecretAccessKey)
	if c.S3.SecretAccessKey == "" {
		if value, ok := os.LookupEnv("AWS_SECRET_ACCESS_KEY"); ok {
			c.S3.SecretAccessKey = strings.TrimSpace(value)
		}
	}
	if c.S3.Region == "" {
		c.S3.Region = "auto"
	}
}

func (c *Config) normalizeMailer() {
	c.Mailer.APIURL = strings.TrimSpace(c.Mailer.APIURL)
	if c.Mailer.APIURL == "" {
		if value, ok := os.LookupEnv("PHOTOBOOTH_MAILER_URL"); ok {
			c.Mailer.APIURL = strings.TrimSpace(value)
		}
	}
	c.Mailer.DefaultRecipient = strings.TrimSpace(c.Mailer.DefaultRecipient)
	if c.Mailer.MaxAttempts == 0 {
		c.Mailer.MaxAttempts = defaultMailerAttempts
	}
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("PHOTOBOOTH_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeSentry() {
	c.Sentry.DSN = strings.TrimSpace(c.Sentry.DSN)
	if c.Sentry.DSN == "" {
		if value, ok := os.LookupEnv("SENTRY_DSN"); ok {
			c.Sentry.DSN = strings.TrimSpace(value)
		}
	}
	c.Sentry.Environment = strings.TrimSpace(c.Sentry.Environment)
}
