package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postsync/internal/models"
	"github.com/maheshrc27/postsync/internal/repository"
)

// EnqueuePost stores a durable PENDING task that the dispatcher picks up once
// scheduledFor has passed.
func EnqueuePost(ctx context.Context, tasks repository.TaskRepository, tx *sql.Tx, payload PublishPostPayload, scheduledFor time.Time, maxAttempts int) (int64, error) {
	raw, err := EncodePayload(payload)
	if err != nil {
		return 0, err
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	id, err := tasks.Create(ctx, tx, &models.Task{
		Type:         payload.Kind(),
		Payload:      raw,
		ScheduledFor: scheduledFor,
		MaxAttempts:  maxAttempts,
	})
	if err != nil {
		return 0, fmt.Errorf("create task: %w", err)
	}

	log.Printf("Task %d scheduled for post %d at %s", id, payload.PostID, scheduledFor.Format(time.RFC3339))
	return id, nil
}

// EnqueueDrain asks the worker to run a dispatcher batch now. It carries no
// work itself; losing it only delays publishing until the next interval.
func EnqueueDrain(ctx context.Context, client Enqueuer) error {
	task := asynq.NewTask(TaskTypeDrain, nil)

	_, err := client.EnqueueContext(ctx, task, asynq.MaxRetry(0), asynq.Unique(30*time.Second))
	if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		return err
	}
	return nil
}

func EnqueueAnalyticsSync(ctx context.Context, client Enqueuer, payload AnalyticsSyncPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeAnalyticsSync, raw)
	_, err = client.EnqueueContext(ctx, task, asynq.MaxRetry(1), asynq.Unique(5*time.Minute))
	if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		return err
	}
	return nil
}
