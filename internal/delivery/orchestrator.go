package delivery

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"photobooth/internal/artifact"
	"photobooth/internal/fileutil"
	"photobooth/internal/logging"
	"photobooth/internal/media"
	"photobooth/internal/notifications"
	"photobooth/internal/upload"
)

// DefaultMaxVideoBytes matches the media host's unsigned upload ceiling.
const DefaultMaxVideoBytes = 100 << 20

// StillSource provides the current captured still, if any.
type StillSource interface {
	Still() (image.Image, bool)
}

// ImageEncoder turns a still into JPEG bytes.
type ImageEncoder interface {
	EncodeJPEG(img image.Image) ([]byte, error)
}

// VideoLocator finds the newest recorded video.
type VideoLocator interface {
	FindNewest() (string, bool, error)
}

// ArtifactPublisher renders and displays the QR artifact for a video URL.
type ArtifactPublisher interface {
	Publish(ctx context.Context, url string) (artifact.Rendered, error)
}

// Dependencies are the collaborators a job uses. Notifier is required;
// without Stills or Locator the corresponding input is never available.
type Dependencies struct {
	Stills    StillSource
	Encoder   ImageEncoder
	Locator   VideoLocator
	Uploader  upload.Uploader
	Publisher ArtifactPublisher
	Notifier  notifications.Service
	Logger    *slog.Logger
}

// Orchestrator runs delivery jobs one at a time.
type Orchestrator struct {
	lock JobLock

	stills    StillSource
	encoder   ImageEncoder
	locator   VideoLocator
	uploader  upload.Uploader
	publisher ArtifactPublisher
	notifier  notifications.Service
	logger    *slog.Logger

	uploadRetry      RetryPolicy
	notifyRetry      RetryPolicy
	defaultRecipient string
	maxVideoBytes    int64

	readVideo func(path string) ([]byte, error)
	sleeper   func(time.Duration)
	now       func() time.Time
	newJobID  func() string
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithUploadRetry sets the retry policy for video uploads.
func WithUploadRetry(policy RetryPolicy) Option {
	return func(o *Orchestrator) { o.uploadRetry = policy }
}

// WithNotifyRetry sets the retry policy for notifications.
func WithNotifyRetry(policy RetryPolicy) Option {
	return func(o *Orchestrator) { o.notifyRetry = policy }
}

// WithDefaultRecipient sets the address used when a request names none.
func WithDefaultRecipient(address string) Option {
	return func(o *Orchestrator) { o.defaultRecipient = strings.TrimSpace(address) }
}

// WithMaxVideoBytes caps the size of a capture read for upload. Values <= 0
// keep DefaultMaxVideoBytes.
func WithMaxVideoBytes(limit int64) Option {
	return func(o *Orchestrator) {
		if limit > 0 {
			o.maxVideoBytes = limit
		}
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(o *Orchestrator) { o.sleeper = sleeper }
}

// WithVideoReader overrides how located videos are read.
func WithVideoReader(reader func(path string) ([]byte, error)) Option {
	return func(o *Orchestrator) {
		if reader != nil {
			o.readVideo = reader
		}
	}
}

// WithJobIDs overrides job identifier generation.
func WithJobIDs(next func() string) Option {
	return func(o *Orchestrator) {
		if next != nil {
			o.newJobID = next
		}
	}
}

// NewOrchestrator wires an orchestrator from its collaborators.
func NewOrchestrator(deps Dependencies, opts ...Option) (*Orchestrator, error) {
	if deps.Notifier == nil {
		return nil, errors.New("delivery: notifier is required")
	}
	o := &Orchestrator{
		stills:      deps.Stills,
		encoder:     deps.Encoder,
		locator:     deps.Locator,
		uploader:    deps.Uploader,
		publisher:   deps.Publisher,
		notifier:    deps.Notifier,
		logger:      logging.NewComponentLogger(deps.Logger, "delivery"),
		uploadRetry:   SingleAttempt(),
		notifyRetry:   SingleAttempt(),
		maxVideoBytes: DefaultMaxVideoBytes,
		now:           time.Now,
		newJobID:      uuid.NewString,
	}
	o.readVideo = func(path string) ([]byte, error) {
		return fileutil.ReadFileLimited(path, o.maxVideoBytes)
	}
	if o.encoder == nil {
		o.encoder = media.NewEncoder(media.DefaultJPEGQuality)
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Busy reports whether a job is currently running.
func (o *Orchestrator) Busy() bool {
	return o.lock.Busy()
}
