package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/postsync/internal/repository"
	"github.com/maheshrc27/postsync/internal/service"
	"github.com/maheshrc27/postsync/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const analyticsConcurrency = 4

type AnalyticsSyncJob struct {
	pr       repository.PostRepository
	as       service.AnalyticsService
	daysBack int
	limit    int
	now      func() time.Time
}

func NewAnalyticsSyncJob(pr repository.PostRepository, as service.AnalyticsService, daysBack, limit int) *AnalyticsSyncJob {
	return &AnalyticsSyncJob{
		pr:       pr,
		as:       as,
		daysBack: daysBack,
		limit:    limit,
		now:      time.Now,
	}
}

func (j *AnalyticsSyncJob) Run() {
	if _, err := j.SyncRecent(context.Background()); err != nil {
		slog.Error("scheduled analytics sync failed", "error", err)
	}
}

// SyncRecent refreshes analytics for every user with posts published inside
// the look-back window. Users are synced concurrently, each user's posts in order.
func (j *AnalyticsSyncJob) SyncRecent(ctx context.Context) (transfer.SyncResult, error) {
	var total transfer.SyncResult

	runID, err := gonanoid.New()
	if err != nil {
		runID = "unknown"
	}
	log := slog.With("run_id", runID)

	since := j.now().Add(-time.Duration(j.daysBack) * 24 * time.Hour)
	users, err := j.pr.ListUsersPublishedSince(ctx, since)
	if err != nil {
		return total, fmt.Errorf("list users: %w", err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		semaphore = make(chan struct{}, analyticsConcurrency)
	)

	for _, userID := range users {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(userID int64) {
			defer wg.Done()
			defer func() { <-semaphore }()

			res := j.as.SyncAll(ctx, userID, j.daysBack, j.limit)

			mu.Lock()
			total.Merge(res)
			mu.Unlock()
		}(userID)
	}
	wg.Wait()

	log.Info("analytics sync finished", "users", len(users), "synced", total.Synced, "failed", total.Failed)
	return total, nil
}
