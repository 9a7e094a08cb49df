package queue

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postsync/internal/models"
	"github.com/maheshrc27/postsync/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTaskRepo struct {
	created []*models.Task
	err     error
}

func (r *stubTaskRepo) Create(ctx context.Context, tx *sql.Tx, task *models.Task) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.created = append(r.created, task)
	return int64(len(r.created)), nil
}

func (r *stubTaskRepo) GetByID(ctx context.Context, id int64) (*models.Task, error) { return nil, nil }
func (r *stubTaskRepo) ClaimNext(ctx context.Context, taskType models.TaskType, now time.Time) (*models.Task, error) {
	return nil, nil
}
func (r *stubTaskRepo) Complete(ctx context.Context, id int64, now time.Time) error { return nil }
func (r *stubTaskRepo) Retry(ctx context.Context, id int64, errMsg string, now time.Time) error {
	return nil
}
func (r *stubTaskRepo) Fail(ctx context.Context, id int64, errMsg string, now time.Time) error {
	return nil
}
func (r *stubTaskRepo) RequeueStale(ctx context.Context, olderThan, now time.Time) ([]*models.Task, error) {
	return nil, nil
}

type stubEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (e *stubEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	e.tasks = append(e.tasks, task)
	if e.err != nil {
		return nil, e.err
	}
	return &asynq.TaskInfo{ID: "t1", Type: task.Type()}, nil
}

func TestEnqueuePost(t *testing.T) {
	repo := &stubTaskRepo{}
	due := time.Now().Add(2 * time.Hour)

	id, err := EnqueuePost(context.Background(), repo, nil, PublishPostPayload{PostID: 5, UserID: 1, Platforms: []string{"twitter"}}, due, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	require.Len(t, repo.created, 1)
	task := repo.created[0]
	assert.Equal(t, models.TaskTypePublishPost, task.Type)
	assert.Equal(t, due, task.ScheduledFor)
	assert.Equal(t, 1, task.MaxAttempts, "max attempts is clamped to at least one")

	decoded, err := DecodePayload(task.Type, task.Payload)
	require.NoError(t, err)
	assert.Equal(t, int64(5), decoded.(*PublishPostPayload).PostID)
}

func TestEnqueuePostRepoError(t *testing.T) {
	repo := &stubTaskRepo{err: errors.New("db down")}
	_, err := EnqueuePost(context.Background(), repo, nil, PublishPostPayload{PostID: 5}, time.Now(), 3)
	assert.ErrorContains(t, err, "create task")
}

func TestEnqueueDrainIgnoresDuplicates(t *testing.T) {
	e := &stubEnqueuer{err: asynq.ErrDuplicateTask}
	require.NoError(t, EnqueueDrain(context.Background(), e))
	require.Len(t, e.tasks, 1)
	assert.Equal(t, TaskTypeDrain, e.tasks[0].Type())

	e = &stubEnqueuer{err: errors.New("redis unreachable")}
	assert.Error(t, EnqueueDrain(context.Background(), e))
}

func TestEnqueueAnalyticsSync(t *testing.T) {
	e := &stubEnqueuer{}
	require.NoError(t, EnqueueAnalyticsSync(context.Background(), e, AnalyticsSyncPayload{UserID: 9, DaysBack: 7, Limit: 50}))
	require.Len(t, e.tasks, 1)

	var p AnalyticsSyncPayload
	require.NoError(t, json.Unmarshal(e.tasks[0].Payload(), &p))
	assert.Equal(t, int64(9), p.UserID)
}

type stubDrainer struct {
	batch  int
	result transfer.DrainResult
	err    error
}

func (d *stubDrainer) DrainDue(ctx context.Context, batchSize int) (transfer.DrainResult, error) {
	d.batch = batchSize
	return d.result, d.err
}

type stubSyncer struct {
	calls []AnalyticsSyncPayload
}

func (s *stubSyncer) SyncAll(ctx context.Context, userID int64, daysBack, limit int) transfer.SyncResult {
	s.calls = append(s.calls, AnalyticsSyncPayload{UserID: userID, DaysBack: daysBack, Limit: limit})
	return transfer.SyncResult{Synced: 2}
}

func TestHandleDrainTask(t *testing.T) {
	d := &stubDrainer{result: transfer.DrainResult{Processed: 2}}
	q := NewQueue(d, &stubSyncer{}, 10)

	require.NoError(t, q.HandleDrainTask(context.Background(), asynq.NewTask(TaskTypeDrain, nil)))
	assert.Equal(t, 10, d.batch)

	d.err = errors.New("db down")
	assert.Error(t, q.HandleDrainTask(context.Background(), asynq.NewTask(TaskTypeDrain, nil)))
}

func TestHandleAnalyticsSyncTask(t *testing.T) {
	s := &stubSyncer{}
	q := NewQueue(&stubDrainer{}, s, 10)

	raw, _ := json.Marshal(AnalyticsSyncPayload{UserID: 4, DaysBack: 7, Limit: 20})
	require.NoError(t, q.HandleAnalyticsSyncTask(context.Background(), asynq.NewTask(TaskTypeAnalyticsSync, raw)))
	require.Len(t, s.calls, 1)
	assert.Equal(t, AnalyticsSyncPayload{UserID: 4, DaysBack: 7, Limit: 20}, s.calls[0])

	err := q.HandleAnalyticsSyncTask(context.Background(), asynq.NewTask(TaskTypeAnalyticsSync, []byte(`{}`)))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	err = q.HandleAnalyticsSyncTask(context.Background(), asynq.NewTask(TaskTypeAnalyticsSync, []byte(`nope`)))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
