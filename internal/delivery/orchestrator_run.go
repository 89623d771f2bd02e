package delivery

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"photobooth/internal/logging"
	"photobooth/internal/media"
	"photobooth/internal/notifications"
	"photobooth/internal/services"
	"photobooth/internal/upload"
)

// job is the per-run working state. It never outlives Run.
type job struct {
	id        string
	recipient string

	still       image.Image
	hasImage    bool
	imageBase64 string
	imageBytes  int

	hasVideo  bool
	videoPath string
	videoURL  string
}

// Run executes one delivery job. The returned error is nil when the mailer
// accepted the notification; the Outcome is always populated.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Outcome, error) {
	started := o.now()
	req.Recipient = strings.TrimSpace(req.Recipient)
	if req.Recipient == "" {
		req.Recipient = o.defaultRecipient
	}
	outcome := Outcome{
		Selection: req.Selection,
		Recipient: req.Recipient,
		Status:    StatusFailed,
		StartedAt: started,
	}

	if o.lock.Busy() {
		return o.reject(ctx, outcome, services.ErrJobBusy)
	}
	if err := req.validate(); err != nil {
		return o.reject(ctx, outcome, err)
	}

	j := o.resolveInputs(ctx, req)
	if !j.hasImage && !j.hasVideo {
		// A job may have started while inputs were resolved.
		if o.lock.Busy() {
			return o.reject(ctx, outcome, services.ErrJobBusy)
		}
		return o.reject(ctx, outcome, services.Wrap(services.ErrNoInputAvailable, "delivery", "resolve inputs",
			fmt.Sprintf("no still or video available for %s delivery", req.Selection), nil))
	}

	if !o.lock.TryAcquire() {
		return o.reject(ctx, outcome, services.ErrJobBusy)
	}
	defer o.lock.Release()

	j.id = o.newJobID()
	outcome.JobID = j.id
	outcome.VideoPath = j.videoPath
	ctx = services.WithJobID(ctx, j.id)
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("delivery started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("selection", string(req.Selection)),
		logging.Bool("has_image", j.hasImage),
		logging.Bool("has_video", j.hasVideo),
	)

	outcome.Stages = append(outcome.Stages, o.runEncode(ctx, j, req.Selection))
	outcome.ImageBytes = j.imageBytes

	uploadResult := o.runUpload(ctx, j, req.Selection)
	outcome.Stages = append(outcome.Stages, uploadResult)
	outcome.Stages = append(outcome.Stages, o.runPublish(ctx, j))
	outcome.VideoURL = j.videoURL

	payload := notifications.Payload{
		MailTo:    j.recipient,
		ImageData: j.imageBase64,
		VideoURL:  j.videoURL,
	}
	if payload.Empty() {
		outcome.Stages = append(outcome.Stages, StageResult{Stage: StageNotify, State: StateSkipped, Detail: "nothing to deliver"})
		return o.finish(ctx, outcome, started, services.Wrap(services.ErrNothingToDeliver, "delivery", "build payload",
			"every requested input failed before notification", nil))
	}

	notifyResult := o.runNotify(ctx, payload)
	outcome.Stages = append(outcome.Stages, notifyResult)
	if notifyResult.err != nil {
		return o.finish(ctx, outcome, started, notifyResult.err)
	}

	outcome.Status = StatusDelivered
	if outcome.Failed(services.ErrEncodingFailed) || outcome.Failed(services.ErrUploadFailed) {
		outcome.Status = StatusPartial
	}
	return o.finish(ctx, outcome, started, nil)
}

func (o *Orchestrator) resolveInputs(ctx context.Context, req Request) *job {
	j := &job{recipient: req.Recipient}
	if req.Selection.wantsImage() && o.stills != nil {
		if img, ok := o.stills.Still(); ok && img != nil {
			j.still = img
			j.hasImage = true
		}
	}
	if req.Selection.wantsVideo() && o.locator != nil {
		path, ok, err := o.locator.FindNewest()
		if err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, o.logger), "video lookup failed", "video_lookup_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check capture directory permissions"),
				logging.String(logging.FieldImpact, "video treated as absent"),
			)
		} else if ok {
			j.hasVideo = true
			j.videoPath = path
		}
	}
	return j
}

func (o *Orchestrator) runEncode(ctx context.Context, j *job, selection Selection) StageResult {
	if !j.hasImage {
		return skipped(StageEncode, selection.wantsImage(), "no still captured")
	}
	ctx = services.WithStage(ctx, string(StageEncode))
	start := o.now()
	o.stageStarted(ctx)

	data, err := o.encoder.EncodeJPEG(j.still)
	if err != nil {
		j.hasImage = false
		return o.stageFailed(ctx, StageEncode, start, 1, wrapAs(services.ErrEncodingFailed, "encode", err), "image dropped from delivery")
	}
	j.imageBase64 = media.ToPortableText(data)
	j.imageBytes = len(data)
	o.stageCompleted(ctx, start,
		logging.Float64("jpeg_kb", float64(len(data))/1024),
		logging.Int("base64_length", len(j.imageBase64)),
	)
	return StageResult{Stage: StageEncode, State: StateSucceeded, Attempts: 1, Duration: o.now().Sub(start)}
}

func (o *Orchestrator) runUpload(ctx context.Context, j *job, selection Selection) StageResult {
	if !j.hasVideo {
		return skipped(StageUpload, selection.wantsVideo(), "no video found")
	}
	ctx = services.WithStage(ctx, string(StageUpload))
	start := o.now()
	o.stageStarted(ctx, logging.String("video_file", j.videoPath))

	if o.uploader == nil {
		j.hasVideo = false
		return o.stageFailed(ctx, StageUpload, start, 0,
			services.Wrap(services.ErrUploadFailed, "upload", "", "no uploader configured", nil), "video dropped from delivery")
	}

	data, err := o.readVideo(j.videoPath)
	if err != nil {
		j.hasVideo = false
		return o.stageFailed(ctx, StageUpload, start, 0,
			services.Wrap(services.ErrUploadFailed, "upload", "read video", filepath.Base(j.videoPath), err), "video dropped from delivery")
	}
	logging.WithContext(ctx, o.logger).Info("uploading video",
		logging.String("provider", o.uploader.Name()),
		logging.Float64("video_mb", float64(len(data))/(1024*1024)),
	)

	mediaFile := upload.Media{Data: data, Filename: filepath.Base(j.videoPath), MimeType: "video/mp4"}
	maxAttempts := o.uploadRetry.attempts()
	var (
		result   upload.Result
		attempts int
	)
	for attempts = 1; ; attempts++ {
		result = o.uploader.Upload(ctx, mediaFile)
		if result.OK || !result.Retryable || attempts >= maxAttempts {
			break
		}
		delay := o.uploadRetry.backoffDelay(attempts)
		logging.WithContext(ctx, o.logger).Warn("upload attempt failed, retrying",
			logging.Int("attempt", attempts),
			logging.Int("max_attempts", maxAttempts),
			logging.Duration("retry_delay", delay),
			logging.String("error_message", result.Detail),
		)
		if err := o.sleep(ctx, delay); err != nil {
			break
		}
	}
	if !result.OK {
		j.hasVideo = false
		return o.stageFailed(ctx, StageUpload, start, attempts, result.Err(), "video dropped from delivery")
	}

	j.videoURL = result.PublicURL
	o.stageCompleted(ctx, start, logging.String("video_url", j.videoURL), logging.Int("attempts", attempts))
	return StageResult{Stage: StageUpload, State: StateSucceeded, Attempts: attempts, Duration: o.now().Sub(start)}
}

func (o *Orchestrator) runPublish(ctx context.Context, j *job) StageResult {
	if j.videoURL == "" {
		return StageResult{Stage: StagePublish, State: StateSkipped, Detail: "no video url"}
	}
	if o.publisher == nil {
		return StageResult{Stage: StagePublish, State: StateSkipped, Detail: "no artifact surface configured"}
	}
	ctx = services.WithStage(ctx, string(StagePublish))
	start := o.now()
	o.stageStarted(ctx)

	rendered, err := o.publisher.Publish(ctx, j.videoURL)
	if err != nil {
		return o.stageFailed(ctx, StagePublish, start, 1, wrapAs(services.ErrGenerationFailed, "publish", err), "guest can still use the emailed link")
	}
	o.stageCompleted(ctx, start, logging.Int("width", rendered.Width), logging.Int("height", rendered.Height))
	return StageResult{Stage: StagePublish, State: StateSucceeded, Attempts: 1, Duration: o.now().Sub(start)}
}

func (o *Orchestrator) runNotify(ctx context.Context, payload notifications.Payload) StageResult {
	ctx = services.WithStage(ctx, string(StageNotify))
	start := o.now()
	o.stageStarted(ctx,
		logging.Bool("has_image", payload.ImageData != ""),
		logging.Bool("has_video_url", payload.VideoURL != ""),
	)

	maxAttempts := o.notifyRetry.attempts()
	var (
		result   notifications.Result
		attempts int
	)
	for attempts = 1; ; attempts++ {
		result = o.notifier.Send(ctx, payload)
		if result.OK || !result.Retryable || attempts >= maxAttempts {
			break
		}
		delay := o.notifyRetry.backoffDelay(attempts)
		logging.WithContext(ctx, o.logger).Warn("notification attempt failed, retrying",
			logging.Int("attempt", attempts),
			logging.Int("max_attempts", maxAttempts),
			logging.Duration("retry_delay", delay),
			logging.String("error_message", result.Detail),
		)
		if err := o.sleep(ctx, delay); err != nil {
			break
		}
	}
	if !result.OK {
		return o.stageFailed(ctx, StageNotify, start, attempts, result.Err(), "guest did not receive an email")
	}
	o.stageCompleted(ctx, start, logging.Int("status_code", result.StatusCode), logging.Int("attempts", attempts))
	return StageResult{Stage: StageNotify, State: StateSucceeded, Attempts: attempts, Duration: o.now().Sub(start)}
}

func (o *Orchestrator) reject(ctx context.Context, outcome Outcome, err error) (Outcome, error) {
	outcome.Code = services.Code(err)
	outcome.Error = err.Error()
	logging.WithContext(ctx, o.logger).Info("delivery rejected",
		logging.String(logging.FieldEventType, "job_rejected"),
		logging.String("selection", string(outcome.Selection)),
		logging.String("code", outcome.Code),
		logging.Error(err),
	)
	return outcome, err
}

func (o *Orchestrator) finish(ctx context.Context, outcome Outcome, started time.Time, err error) (Outcome, error) {
	outcome.Duration = o.now().Sub(started)
	logger := logging.WithContext(ctx, o.logger)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Code = services.Code(err)
		outcome.Error = err.Error()
		logging.ErrorWithContext(logger, "delivery failed", "job_failed",
			logging.String("code", outcome.Code),
			logging.Duration("job_duration", outcome.Duration),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hintFor(err)),
		)
		return outcome, err
	}
	logger.Info("delivery completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String("status", string(outcome.Status)),
		logging.String("video_url", outcome.VideoURL),
		logging.Duration("job_duration", outcome.Duration),
	)
	return outcome, nil
}

func skipped(stage Stage, requested bool, reason string) StageResult {
	if !requested {
		reason = "not requested"
	}
	return StageResult{Stage: stage, State: StateSkipped, Detail: reason}
}

func wrapAs(marker error, stage string, err error) error {
	if errors.Is(err, marker) {
		return err
	}
	return services.Wrap(marker, stage, "", "", err)
}

func hintFor(err error) string {
	switch services.Code(err) {
	case "notification_failed":
		return "check mailer.api_url and the mailer service logs"
	case "nothing_to_deliver":
		return "check upload credentials and the captured still"
	default:
		return "check logs for details"
	}
}
