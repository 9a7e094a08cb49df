package queue

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postsync/internal/transfer"
)

const (
	TaskTypeDrain         = "dispatch:drain"
	TaskTypeAnalyticsSync = "analytics:sync"
)

type AnalyticsSyncPayload struct {
	UserID   int64 `json:"user_id"`
	DaysBack int   `json:"days_back"`
	Limit    int   `json:"limit"`
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Drainer interface {
	DrainDue(ctx context.Context, batchSize int) (transfer.DrainResult, error)
}

type Syncer interface {
	SyncAll(ctx context.Context, userID int64, daysBack, limit int) transfer.SyncResult
}

type Queue struct {
	dr        Drainer
	as        Syncer
	batchSize int
}

func NewQueue(dr Drainer, as Syncer, batchSize int) *Queue {
	return &Queue{
		dr:        dr,
		as:        as,
		batchSize: batchSize,
	}
}
