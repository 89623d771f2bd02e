package api

import (
	"time"

	"photobooth/internal/delivery"
)

// FromOutcome converts a delivery outcome into its wire form.
func FromOutcome(outcome delivery.Outcome) DeliveryOutcome {
	dto := DeliveryOutcome{
		JobID:      outcome.JobID,
		Selection:  string(outcome.Selection),
		Recipient:  outcome.Recipient,
		Status:     string(outcome.Status),
		Code:       outcome.Code,
		Error:      outcome.Error,
		VideoPath:  outcome.VideoPath,
		VideoURL:   outcome.VideoURL,
		ImageBytes: outcome.ImageBytes,
		StartedAt:  FormatTime(outcome.StartedAt),
		DurationMS: outcome.Duration.Milliseconds(),
	}
	if len(outcome.Stages) > 0 {
		dto.Stages = make([]StageOutcome, 0, len(outcome.Stages))
		for _, stage := range outcome.Stages {
			dto.Stages = append(dto.Stages, StageOutcome{
				Stage:      string(stage.Stage),
				State:      string(stage.State),
				Detail:     stage.Detail,
				Code:       stage.Code,
				Attempts:   stage.Attempts,
				DurationMS: stage.Duration.Milliseconds(),
			})
		}
	}
	return dto
}

// FormatTime renders t in the API timestamp format; the zero time is empty.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// ParseTime parses an API timestamp. Empty or malformed values yield the
// zero time.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(dateTimeFormat, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
