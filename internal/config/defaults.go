package config

const (
	defaultConfigPath         = "~/.config/photobooth/config.toml"
	defaultCaptureDir         = "~/.local/share/photobooth/videos"
	defaultArtifactPath       = "~/.local/share/photobooth/artifact/qr.png"
	defaultLogDir             = "~/.local/share/photobooth/logs"
	defaultCaptureExtension   = ".mp4"
	defaultJPEGQuality        = 85
	defaultUploadProvider     = ProviderCloudinary
	defaultUploadTimeout      = 120
	defaultUploadAttempts     = 1
	defaultRetryBaseDelayMS   = 1000
	defaultRetryMaxDelayMS    = 8000
	defaultMaxVideoMB         = 100
	defaultCloudinaryBaseURL  = "https://api.cloudinary.com/v1_1"
	defaultS3KeyPrefix        = "photobooth"
	defaultMailerAttempts     = 1
	defaultDefaultRecipient   = "test@example.com"
	defaultArtifactSize       = 500
	defaultArtifactDisplayBox = 500
	defaultAPIBind            = "127.0.0.1:7590"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Upload providers.
const (
	ProviderCloudinary = "cloudinary"
	ProviderS3         = "s3"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CaptureDir:   defaultCaptureDir,
			ArtifactPath: defaultArtifactPath,
			LogDir:       defaultLogDir,
		},
		Capture: Capture{
			Extension: defaultCaptureExtension,
		},
		Image: Image{
			JPEGQuality: defaultJPEGQuality,
		},
		Upload: Upload{
			Provider:         defaultUploadProvider,
			RequestTimeout:   defaultUploadTimeout,
			MaxAttempts:      defaultUploadAttempts,
			RetryBaseDelayMS: defaultRetryBaseDelayMS,
			RetryMaxDelayMS:  defaultRetryMaxDelayMS,
			MaxVideoMB:       defaultMaxVideoMB,
		},
		Cloudinary: Cloudinary{
			BaseURL: defaultCloudinaryBaseURL,
		},
		S3: S3{
			KeyPrefix: defaultS3KeyPrefix,
		},
		Mailer: Mailer{
			DefaultRecipient: defaultDefaultRecipient,
			MaxAttempts:      defaultMailerAttempts,
		},
		Artifact: Artifact{
			Size:       defaultArtifactSize,
			DisplayBox: defaultArtifactDisplayBox,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
