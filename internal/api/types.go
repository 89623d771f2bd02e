package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// DeliveryRequest is the optional body of a delivery trigger.
type DeliveryRequest struct {
	Recipient string `json:"recipient,omitempty"`
}

// StageOutcome describes one pipeline stage of a job.
type StageOutcome struct {
	Stage      string `json:"stage"`
	State      string `json:"state"`
	Detail     string `json:"detail,omitempty"`
	Code       string `json:"code,omitempty"`
	Attempts   int    `json:"attempts,omitempty"`
	DurationMS int64  `json:"durationMs"`
}

// DeliveryOutcome is the transport form of a finished (or rejected) job.
type DeliveryOutcome struct {
	JobID      string         `json:"jobId,omitempty"`
	Selection  string         `json:"selection"`
	Recipient  string         `json:"recipient,omitempty"`
	Status     string         `json:"status"`
	Code       string         `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Stages     []StageOutcome `json:"stages,omitempty"`
	VideoPath  string         `json:"videoPath,omitempty"`
	VideoURL   string         `json:"videoUrl,omitempty"`
	ImageBytes int            `json:"imageBytes,omitempty"`
	StartedAt  string         `json:"startedAt,omitempty"`
	DurationMS int64          `json:"durationMs"`
}

// StillStatus describes the captured still held by the daemon.
type StillStatus struct {
	Loaded     bool   `json:"loaded"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	CapturedAt string `json:"capturedAt,omitempty"`
}

// ArtifactStatus describes the most recently displayed artifact.
type ArtifactStatus struct {
	Available bool   `json:"available"`
	URL       string `json:"url,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running          bool             `json:"running"`
	Busy             bool             `json:"busy"`
	PID              int              `json:"pid"`
	LockFilePath     string           `json:"lockFilePath"`
	CaptureDir       string           `json:"captureDir"`
	LatestVideo      string           `json:"latestVideo,omitempty"`
	UploadProvider   string           `json:"uploadProvider"`
	MailerConfigured bool             `json:"mailerConfigured"`
	Still            StillStatus      `json:"still"`
	Artifact         ArtifactStatus   `json:"artifact"`
	LastOutcome      *DeliveryOutcome `json:"lastOutcome,omitempty"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
