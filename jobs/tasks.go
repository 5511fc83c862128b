package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rengaa-pos/rengaa-pos/internal/billing"
	"github.com/rengaa-pos/rengaa-pos/internal/observability"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskHoldsSweep reclaims terminal hold states abandoned past the
	// idle threshold.
	TaskHoldsSweep = "holds:sweep"
)

// HoldsSweepPayload parametrises one sweep run.
type HoldsSweepPayload struct {
	MaxIdle time.Duration `json:"max_idle"`
}

// NewHoldsSweepTask constructs an Asynq task for the sweep.
func NewHoldsSweepTask(payload HoldsSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskHoldsSweep, data), nil
}

// HoldsSweepHandler returns the handler func for TaskHoldsSweep.
func HoldsSweepHandler(holds *billing.HoldStore, metrics *observability.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload HoldsSweepPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.MaxIdle <= 0 {
			payload.MaxIdle = 72 * time.Hour
		}
		removed, err := holds.SweepStale(ctx, payload.MaxIdle)
		if err != nil {
			logger.Error("holds sweep failed", slog.Any("error", err))
			return err
		}
		metrics.AddHoldsSwept(len(removed))
		if len(removed) > 0 {
			logger.Info("holds sweep reclaimed terminals",
				slog.Int("count", len(removed)), slog.Any("terminals", removed))
		}
		return nil
	}
}
