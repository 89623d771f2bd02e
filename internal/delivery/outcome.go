package delivery

import (
	"errors"
	"time"
)

// Status summarizes a finished job.
type Status string

const (
	// StatusDelivered means the notification was accepted and every requested
	// input made it into the payload.
	StatusDelivered Status = "delivered"
	// StatusPartial means the notification was accepted but the still could
	// not be encoded or the video could not be uploaded.
	StatusPartial Status = "partial"
	// StatusFailed means the job was rejected or nothing reached the guest.
	StatusFailed Status = "failed"
)

// Stage names a pipeline step.
type Stage string

const (
	StageEncode  Stage = "encode"
	StageUpload  Stage = "upload"
	StagePublish Stage = "publish"
	StageNotify  Stage = "notify"
)

// StageState is the result of one stage.
type StageState string

const (
	StateSucceeded StageState = "succeeded"
	StateFailed    StageState = "failed"
	StateSkipped   StageState = "skipped"
)

// StageResult records what happened in one stage.
type StageResult struct {
	Stage    Stage         `json:"stage"`
	State    StageState    `json:"state"`
	Detail   string        `json:"detail,omitempty"`
	Code     string        `json:"code,omitempty"`
	Attempts int           `json:"attempts,omitempty"`
	Duration time.Duration `json:"duration_ns"`

	err error
}

// Err returns the stage failure, if any.
func (r StageResult) Err() error {
	return r.err
}

// Outcome is the structured result of a delivery job.
type Outcome struct {
	JobID      string        `json:"job_id,omitempty"`
	Selection  Selection     `json:"selection"`
	Recipient  string        `json:"recipient,omitempty"`
	Status     Status        `json:"status"`
	Code       string        `json:"code,omitempty"`
	Error      string        `json:"error,omitempty"`
	Stages     []StageResult `json:"stages,omitempty"`
	VideoPath  string        `json:"video_path,omitempty"`
	VideoURL   string        `json:"video_url,omitempty"`
	ImageBytes int           `json:"image_bytes,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration_ns"`
}

// Stage returns the result recorded for name.
func (o Outcome) Stage(name Stage) (StageResult, bool) {
	for _, result := range o.Stages {
		if result.Stage == name {
			return result, true
		}
	}
	return StageResult{}, false
}

// StageErrors returns every recorded stage failure in pipeline order.
func (o Outcome) StageErrors() []error {
	var errs []error
	for _, result := range o.Stages {
		if result.err != nil {
			errs = append(errs, result.err)
		}
	}
	return errs
}

// Failed reports whether any recorded stage failure matches target.
func (o Outcome) Failed(target error) bool {
	return errors.Is(errors.Join(o.StageErrors()...), target)
}
