package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/postsync/internal/metrics"
	"github.com/maheshrc27/postsync/internal/models"
	"github.com/maheshrc27/postsync/internal/queue"
	"github.com/maheshrc27/postsync/internal/repository"
	"github.com/maheshrc27/postsync/internal/service"
	"github.com/maheshrc27/postsync/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	// errFatal marks task failures that no retry can fix.
	errFatal = errors.New("task cannot be processed")
	// errAlreadyPublished is returned for posts that went out on an earlier attempt.
	errAlreadyPublished = errors.New("post already published")
)

type PostSchedulerJob struct {
	tr         repository.TaskRepository
	pr         repository.PostRepository
	ps         service.PublisherService
	batchSize  int
	staleAfter time.Duration
	now        func() time.Time
}

func NewPostSchedulerJob(
	tr repository.TaskRepository,
	pr repository.PostRepository,
	ps service.PublisherService,
	batchSize int,
	staleAfter time.Duration) *PostSchedulerJob {
	return &PostSchedulerJob{
		tr:         tr,
		pr:         pr,
		ps:         ps,
		batchSize:  batchSize,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Run is the cron entry point.
func (j *PostSchedulerJob) Run() {
	if _, err := j.DrainDue(context.Background(), j.batchSize); err != nil {
		slog.Error("scheduled drain failed", "error", err)
	}
}

// DrainDue claims up to batchSize due publish tasks one at a time and runs
// each through the publisher. Processed counts completed tasks, failed counts
// attempts that did not complete. Every claim in a run uses the run's start
// time, so a task retried during the run waits for the next one.
func (j *PostSchedulerJob) DrainDue(ctx context.Context, batchSize int) (transfer.DrainResult, error) {
	var result transfer.DrainResult
	if batchSize <= 0 {
		batchSize = j.batchSize
	}

	runID, err := gonanoid.New()
	if err != nil {
		runID = "unknown"
	}
	log := slog.With("run_id", runID)

	start := time.Now()
	defer func() {
		metrics.DrainDuration.Observe(time.Since(start).Seconds())
	}()

	claimAt := j.now().UTC()
	if j.staleAfter > 0 {
		j.requeueStale(ctx, log, claimAt)
	}

	for i := 0; i < batchSize; i++ {
		task, err := j.tr.ClaimNext(ctx, models.TaskTypePublishPost, claimAt)
		if err != nil {
			return result, fmt.Errorf("claim task: %w", err)
		}
		if task == nil {
			break
		}
		metrics.TasksClaimed.Inc()

		if j.process(ctx, log, task) {
			result.Processed++
		} else {
			result.Failed++
		}
	}

	log.Info("drain finished", "processed", result.Processed, "failed", result.Failed)
	return result, nil
}

// requeueStale releases tasks stuck in PROCESSING. Posts behind tasks that ran
// out of attempts are marked failed.
func (j *PostSchedulerJob) requeueStale(ctx context.Context, log *slog.Logger, now time.Time) {
	tasks, err := j.tr.RequeueStale(ctx, now.Add(-j.staleAfter), now)
	if err != nil {
		log.Warn("requeue of stale tasks failed", "error", err)
		return
	}
	if len(tasks) == 0 {
		return
	}
	metrics.StaleTasksRequeued.Add(float64(len(tasks)))
	log.Warn("requeued stale tasks", "count", len(tasks))

	for _, task := range tasks {
		if task.Status != models.TaskStatusFailed {
			continue
		}
		metrics.TaskOutcomes.WithLabelValues("failed").Inc()

		payload, err := queue.DecodePayload(task.Type, task.Payload)
		if err != nil {
			continue
		}
		if p, ok := payload.(*queue.PublishPostPayload); ok {
			j.markPostFailed(ctx, log.With("task_id", task.ID), p.PostID)
		}
	}
}

// process runs one claimed task and moves it out of PROCESSING. It reports
// whether the post went out.
func (j *PostSchedulerJob) process(ctx context.Context, log *slog.Logger, task *models.Task) bool {
	log = log.With("task_id", task.ID, "attempt", task.Attempts)

	postID, err := j.publish(ctx, task)
	now := j.now().UTC()

	if errors.Is(err, errAlreadyPublished) {
		log.Info("post already published, skipping gateway", "post_id", postID)
		err = nil
	} else if err == nil {
		// The post is marked first so a task stuck in PROCESSING never publishes twice.
		if err := j.pr.MarkPublished(ctx, postID, now); err != nil {
			log.Error("failed to mark post published", "post_id", postID, "error", err)
		}
	}

	if err == nil {
		if err := j.tr.Complete(ctx, task.ID, now); err != nil {
			log.Error("failed to complete task, left for stale recovery", "post_id", postID, "error", err)
			return true
		}
		metrics.TaskOutcomes.WithLabelValues("completed").Inc()
		log.Info("task completed", "post_id", postID)
		return true
	}

	if !errors.Is(err, errFatal) && task.CanRetry() {
		if rErr := j.tr.Retry(ctx, task.ID, err.Error(), now); rErr != nil {
			log.Error("failed to requeue task", "error", rErr)
			return false
		}
		metrics.TaskOutcomes.WithLabelValues("retry").Inc()
		log.Warn("task attempt failed, will retry", "post_id", postID, "error", err)
		return false
	}

	if fErr := j.tr.Fail(ctx, task.ID, err.Error(), now); fErr != nil {
		log.Error("failed to fail task", "error", fErr)
		return false
	}
	metrics.TaskOutcomes.WithLabelValues("failed").Inc()

	if postID != 0 {
		j.markPostFailed(ctx, log, postID)
	}
	log.Error("task failed", "post_id", postID, "error", err)
	return false
}

// markPostFailed flags a post whose task gave up. Posts that already went out stay published.
func (j *PostSchedulerJob) markPostFailed(ctx context.Context, log *slog.Logger, postID int64) {
	post, err := j.pr.GetByID(ctx, postID)
	if err != nil {
		log.Error("failed to load post", "post_id", postID, "error", err)
		return
	}
	if post == nil || post.Status == models.PostStatusPublished {
		return
	}
	if err := j.pr.UpdatePostStatus(ctx, models.PostStatusFailed, postID); err != nil && !errors.Is(err, repository.ErrPostNotFound) {
		log.Error("failed to mark post failed", "post_id", postID, "error", err)
	}
}

// publish decodes the task and hands it to the publisher. Errors wrapping
// errFatal skip the retry path.
func (j *PostSchedulerJob) publish(ctx context.Context, task *models.Task) (int64, error) {
	payload, err := queue.DecodePayload(task.Type, task.Payload)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errFatal, err)
	}

	var req *transfer.PublishRequest
	switch p := payload.(type) {
	case *queue.PublishPostPayload:
		req = p.PublishRequest()
	default:
		return 0, fmt.Errorf("%w: unhandled payload %T", errFatal, payload)
	}

	post, err := j.pr.GetByID(ctx, req.PostID)
	if err != nil {
		return req.PostID, fmt.Errorf("load post: %w", err)
	}
	if post == nil {
		return 0, fmt.Errorf("%w: post %d not found", errFatal, req.PostID)
	}
	if post.Status == models.PostStatusPublished {
		return req.PostID, errAlreadyPublished
	}
	if _, err := j.ps.Publish(ctx, req); err != nil {
		if errors.Is(err, service.ErrInvalidPublishRequest) {
			return req.PostID, fmt.Errorf("%w: %v", errFatal, err)
		}
		return req.PostID, err
	}
	return req.PostID, nil
}
