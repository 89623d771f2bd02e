package daemon

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"photobooth/internal/config"
	"photobooth/internal/delivery"
	"photobooth/internal/logging"
	"photobooth/internal/services"
)

// Daemon serves delivery jobs and enforces single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	components Components

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	cancel  context.CancelFunc

	mu   sync.RWMutex
	last *delivery.Outcome
}

// Status represents daemon runtime information.
type Status struct {
	Running          bool
	Busy             bool
	PID              int
	LockFilePath     string
	CaptureDir       string
	LatestVideo      string
	UploadProvider   string
	MailerConfigured bool
	Still            StillInfo
	ArtifactURL      string
	ArtifactAt       time.Time
	LastOutcome      *delivery.Outcome
}

// StillInfo describes the captured still.
type StillInfo struct {
	Loaded     bool
	Width      int
	Height     int
	CapturedAt time.Time
}

// New constructs a daemon around prebuilt components.
func New(cfg *config.Config, logger *slog.Logger, components Components) (*Daemon, error) {
	if cfg == nil || components.Orchestrator == nil || components.Stills == nil {
		return nil, errors.New("daemon requires config, orchestrator, and still store")
	}
	if components.Reporter == nil {
		components.Reporter = nopReporter{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "photobooth.lock")
	return &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		components: components,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and starts the trigger API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another photobooth daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	srv := newAPIServer(d.cfg, d, d.logger)
	if err := srv.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.api = srv
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("photobooth daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
		logging.String("capture_dir", d.cfg.Paths.CaptureDir),
		logging.String("upload_provider", d.components.UploadProvider),
	)
	return nil
}

// Stop shuts down the trigger API and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.api = nil
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.components.Reporter.Flush(2 * time.Second)
	d.running.Store(false)
	d.logger.Info("photobooth daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Addr returns the address the trigger API listens on, or "" when stopped.
func (d *Daemon) Addr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// Deliver runs one delivery job and remembers its outcome.
func (d *Daemon) Deliver(ctx context.Context, req delivery.Request) (delivery.Outcome, error) {
	outcome, err := d.components.Orchestrator.Run(ctx, req)
	if outcome.JobID != "" {
		d.mu.Lock()
		recorded := outcome
		d.last = &recorded
		d.mu.Unlock()
	}
	if err != nil && reportable(err) {
		d.components.Reporter.Report(ctx, err, map[string]string{
			"job_id":    outcome.JobID,
			"selection": string(outcome.Selection),
		})
	}
	return outcome, err
}

// SetStill replaces the captured still.
func (d *Daemon) SetStill(img image.Image) (StillInfo, error) {
	if img == nil || img.Bounds().Empty() {
		return StillInfo{}, services.Wrap(services.ErrValidation, "daemon", "set still", "image is empty", nil)
	}
	d.components.Stills.Set(img)
	d.logger.Info("still captured",
		logging.String(logging.FieldEventType, "still_set"),
		logging.Int("width", img.Bounds().Dx()),
		logging.Int("height", img.Bounds().Dy()),
	)
	return d.Still(), nil
}

// ClearStill drops the captured still.
func (d *Daemon) ClearStill() {
	d.components.Stills.Clear()
	d.logger.Info("still cleared", logging.String(logging.FieldEventType, "still_cleared"))
}

// Still describes the captured still.
func (d *Daemon) Still() StillInfo {
	img, ok := d.components.Stills.Still()
	if !ok {
		return StillInfo{}
	}
	capturedAt, _ := d.components.Stills.CapturedAt()
	return StillInfo{
		Loaded:     true,
		Width:      img.Bounds().Dx(),
		Height:     img.Bounds().Dy(),
		CapturedAt: capturedAt,
	}
}

// LatestArtifact returns the most recently displayed artifact PNG.
func (d *Daemon) LatestArtifact() ([]byte, string, time.Time, bool) {
	if d.components.Artifacts == nil {
		return nil, "", time.Time{}, false
	}
	return d.components.Artifacts.Latest()
}

// LockPath returns the path to the daemon lock file.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:          d.running.Load(),
		Busy:             d.components.Orchestrator.Busy(),
		PID:              os.Getpid(),
		LockFilePath:     d.lockPath,
		CaptureDir:       d.cfg.Paths.CaptureDir,
		UploadProvider:   d.components.UploadProvider,
		MailerConfigured: d.cfg.Mailer.APIURL != "",
		Still:            d.Still(),
	}
	if d.components.Locator != nil {
		if path, ok, err := d.components.Locator.FindNewest(); err != nil {
			logging.WithContext(ctx, d.logger).Debug("status video lookup failed", logging.Error(err))
		} else if ok {
			status.LatestVideo = path
		}
	}
	if _, url, at, ok := d.LatestArtifact(); ok {
		status.ArtifactURL = url
		status.ArtifactAt = at
	}
	d.mu.RLock()
	if d.last != nil {
		last := *d.last
		status.LastOutcome = &last
	}
	d.mu.RUnlock()
	return status
}
