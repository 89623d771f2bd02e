package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"photobooth/internal/services"
)

// S3Config describes an S3-compatible bucket with public read access.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	KeyPrefix       string
	Timeout         time.Duration
}

// ObjectPutter is the subset of manager.Uploader used by S3Client.
type ObjectPutter interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Client uploads media to an S3-compatible bucket.
type S3Client struct {
	cfg    S3Config
	putter ObjectPutter
	newKey func() string
}

// NewS3 loads AWS configuration with static credentials when supplied and
// builds a client for cfg.
func NewS3(ctx context.Context, cfg S3Config) (*S3Client, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "upload", "s3 init", "bucket is required", nil)
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "upload", "s3 init", "load aws config", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3WithPutter(cfg, manager.NewUploader(client)), nil
}

// NewS3WithPutter builds a client around an existing putter.
func NewS3WithPutter(cfg S3Config, putter ObjectPutter) *S3Client {
	cfg.PublicBaseURL = strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	cfg.KeyPrefix = strings.Trim(strings.TrimSpace(cfg.KeyPrefix), "/")
	return &S3Client{cfg: cfg, putter: putter, newKey: uuid.NewString}
}

// Name identifies the backend in logs.
func (c *S3Client) Name() string { return "s3" }

// Upload puts media under a unique key and returns its public URL.
func (c *S3Client) Upload(ctx context.Context, media Media) Result {
	if c.putter == nil {
		return Result{Detail: "s3 client not initialized"}
	}
	key := c.objectKey(media.Filename)
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	_, err := c.putter.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(media.Data),
		ContentType: aws.String(resolveMimeType(media.Data, media.MimeType)),
	})
	if err != nil {
		return classifyS3Error(ctx, err)
	}
	return Result{OK: true, PublicURL: c.cfg.PublicBaseURL + "/" + key}
}

func (c *S3Client) objectKey(filename string) string {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == "/" {
		name = "capture.mp4"
	}
	name = c.newKey() + "-" + name
	if c.cfg.KeyPrefix == "" {
		return name
	}
	return path.Join(c.cfg.KeyPrefix, name)
}

func classifyS3Error(ctx context.Context, err error) Result {
	result := Result{Detail: truncate(err.Error())}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		result.Detail = truncate(fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage()))
		result.Retryable = apiErr.ErrorFault() == smithy.FaultServer
		return result
	}
	result.Retryable = retryableTransport(ctx, err)
	return result
}
