package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateImage(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateMailer(); err != nil {
		return err
	}
	if err := c.validateArtifact(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateImage() error {
	if c.Image.JPEGQuality < 1 || c.Image.JPEGQuality > 100 {
		return errors.New("image.jpeg_quality must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateUpload() error {
	if err := ensurePositiveMap(map[string]int{
		"upload.request_timeout": c.Upload.RequestTimeout,
		"upload.max_attempts":    c.Upload.MaxAttempts,
		"upload.max_video_mb":    c.Upload.MaxVideoMB,
	}); err != nil {
		return err
	}
	if c.Upload.RetryBaseDelayMS < 0 || c.Upload.RetryMaxDelayMS < 0 {
		return errors.New("upload retry delays must not be negative")
	}
	switch c.Upload.Provider {
	case ProviderCloudinary:
		return c.validateCloudinary()
	case ProviderS3:
		return c.validateS3()
	default:
		return fmt.Errorf("upload.provider %q is not supported (use %q or %q)", c.Upload.Provider, ProviderCloudinary, ProviderS3)
	}
}

func (c *Config) validateCloudinary() error {
	if c.Cloudinary.CloudName == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("cloudinary.cloud_name is required. Set CLOUDINARY_CLOUD_NAME env var or edit %s (create with 'photobooth config init')", defaultPath)
	}
	if c.Cloudinary.UploadPreset == "" {
		return errors.New("cloudinary.upload_preset is required. Set CLOUDINARY_UPLOAD_PRESET env var or edit the config file")
	}
	return validateHTTPURL("cloudinary.base_url", c.Cloudinary.BaseURL)
}

func (c *Config) validateS3() error {
	if c.S3.Bucket == "" {
		return errors.New("s3.bucket must be set when upload.provider is s3")
	}
	if c.S3.PublicBaseURL == "" {
		return errors.New("s3.public_base_url must be set when upload.provider is s3")
	}
	if err := validateHTTPURL("s3.public_base_url", c.S3.PublicBaseURL); err != nil {
		return err
	}
	if c.S3.Endpoint != "" {
		return validateHTTPURL("s3.endpoint", c.S3.Endpoint)
	}
	return nil
}

func (c *Config) validateMailer() error {
	if c.Mailer.APIURL == "" {
		return errors.New("mailer.api_url is required. Set PHOTOBOOTH_MAILER_URL env var or edit the config file")
	}
	if err := validateHTTPURL("mailer.api_url", c.Mailer.APIURL); err != nil {
		return err
	}
	if c.Mailer.RequestTimeout < 0 {
		return errors.New("mailer.request_timeout must not be negative")
	}
	if c.Mailer.MaxAttempts <= 0 {
		return errors.New("mailer.max_attempts must be positive")
	}
	return nil
}

func (c *Config) validateArtifact() error {
	return ensurePositiveMap(map[string]int{
		"artifact.size":        c.Artifact.Size,
		"artifact.display_box": c.Artifact.DisplayBox,
	})
}

func validateHTTPURL(key, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if (scheme != "http" && scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", key, value)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
