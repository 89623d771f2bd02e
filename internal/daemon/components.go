package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"photobooth/internal/artifact"
	"photobooth/internal/capture"
	"photobooth/internal/config"
	"photobooth/internal/delivery"
	"photobooth/internal/media"
	"photobooth/internal/notifications"
	"photobooth/internal/upload"
)

// Components are the collaborators the daemon serves.
type Components struct {
	Orchestrator   *delivery.Orchestrator
	Stills         *media.StillStore
	Locator        *capture.Locator
	Artifacts      *artifact.MemorySurface
	Reporter       Reporter
	UploadProvider string
}

// BuildComponents constructs the delivery pipeline described by cfg.
func BuildComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Components, error) {
	if cfg == nil {
		return Components{}, fmt.Errorf("config is required")
	}
	locator, err := capture.NewLocator(cfg.Paths.CaptureDir, cfg.Capture.Extension)
	if err != nil {
		return Components{}, fmt.Errorf("capture locator: %w", err)
	}
	uploader, err := upload.New(ctx, cfg)
	if err != nil {
		return Components{}, fmt.Errorf("upload client: %w", err)
	}
	reporter, err := NewReporter(cfg.Sentry)
	if err != nil {
		return Components{}, fmt.Errorf("error reporter: %w", err)
	}

	memory := artifact.NewMemorySurface()
	surfaces := artifact.MultiSurface{memory}
	if cfg.Paths.ArtifactPath != "" {
		surfaces = append(surfaces, artifact.NewFileSurface(cfg.Paths.ArtifactPath))
	}
	stills := media.NewStillStore()

	baseDelay, maxDelay := cfg.UploadRetryDelays()
	orchestrator, err := delivery.NewOrchestrator(delivery.Dependencies{
		Stills:    stills,
		Encoder:   media.NewEncoder(cfg.Image.JPEGQuality),
		Locator:   locator,
		Uploader:  uploader,
		Publisher: artifact.NewPublisher(cfg.Artifact.Size, cfg.Artifact.DisplayBox, surfaces, logger),
		Notifier:  notifications.NewService(cfg, notifications.WithLogger(logger)),
		Logger:    logger,
	},
		delivery.WithUploadRetry(delivery.RetryPolicy{MaxAttempts: cfg.Upload.MaxAttempts, BaseDelay: baseDelay, MaxDelay: maxDelay}),
		delivery.WithNotifyRetry(delivery.RetryPolicy{MaxAttempts: cfg.Mailer.MaxAttempts, BaseDelay: baseDelay, MaxDelay: maxDelay}),
		delivery.WithDefaultRecipient(cfg.Mailer.DefaultRecipient),
		delivery.WithMaxVideoBytes(cfg.MaxVideoBytes()),
	)
	if err != nil {
		return Components{}, fmt.Errorf("delivery orchestrator: %w", err)
	}

	return Components{
		Orchestrator:   orchestrator,
		Stills:         stills,
		Locator:        locator,
		Artifacts:      memory,
		Reporter:       reporter,
		UploadProvider: uploader.Name(),
	}, nil
}
