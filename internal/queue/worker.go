package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
)

func (j *Queue) HandleDrainTask(ctx context.Context, task *asynq.Task) error {
	result, err := j.dr.DrainDue(ctx, j.batchSize)
	if err != nil {
		slog.Error("drain from queue nudge failed", "err", err)
		return fmt.Errorf("drain: %w", err)
	}

	slog.Info("drain from queue nudge", "processed", result.Processed, "failed", result.Failed)
	return nil
}

func (j *Queue) HandleAnalyticsSyncTask(ctx context.Context, task *asynq.Task) error {
	var payload AnalyticsSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if payload.UserID == 0 {
		return fmt.Errorf("analytics sync without user_id: %w", asynq.SkipRetry)
	}

	result := j.as.SyncAll(ctx, payload.UserID, payload.DaysBack, payload.Limit)
	slog.Info("analytics sync from queue",
		"user_id", payload.UserID,
		"synced", result.Synced,
		"failed", result.Failed)
	return nil
}
