package delivery

import (
	"context"
	"time"

	"photobooth/internal/logging"
	"photobooth/internal/services"
)

func (o *Orchestrator) stageStarted(ctx context.Context, attrs ...logging.Attr) {
	attrs = append(attrs, logging.String(logging.FieldEventType, "stage_start"))
	logging.WithContext(ctx, o.logger).Info("stage started", logging.Args(attrs...)...)
}

func (o *Orchestrator) stageCompleted(ctx context.Context, start time.Time, attrs ...logging.Attr) {
	attrs = append(attrs,
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", o.now().Sub(start)),
	)
	logging.WithContext(ctx, o.logger).Info("stage completed", logging.Args(attrs...)...)
}

// stageFailed logs a non-fatal stage failure and records it.
func (o *Orchestrator) stageFailed(ctx context.Context, stage Stage, start time.Time, attempts int, err error, impact string) StageResult {
	duration := o.now().Sub(start)
	logging.WarnWithContext(logging.WithContext(ctx, o.logger), "stage failed", "stage_failure",
		logging.Error(err),
		logging.String("code", services.Code(err)),
		logging.Int("attempts", attempts),
		logging.Duration("stage_duration", duration),
		logging.String(logging.FieldImpact, impact),
	)
	return StageResult{
		Stage:    stage,
		State:    StateFailed,
		Detail:   err.Error(),
		Code:     services.Code(err),
		Attempts: attempts,
		Duration: duration,
		err:      err,
	}
}
