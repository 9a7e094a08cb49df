package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/maheshrc27/postsync/internal/metrics"
	"github.com/maheshrc27/postsync/internal/models"
	"github.com/maheshrc27/postsync/internal/repository"
	"github.com/maheshrc27/postsync/internal/transfer"
)

const (
	defaultSyncDaysBack = 7
	defaultSyncLimit    = 50

	// AllPlatforms stands in for the platform of a failure that hit the whole post
	// before its platforms were known.
	AllPlatforms = "*"
)

type AnalyticsService interface {
	SyncPost(ctx context.Context, postID int64, platforms []string) transfer.SyncResult
	SyncAll(ctx context.Context, userID int64, daysBack, limit int) transfer.SyncResult
	ListSnapshots(ctx context.Context, userID, postID int64) ([]*models.AnalyticsSnapshot, error)
}

type analyticsService struct {
	gw     AnalyticsGateway
	pr     repository.PostRepository
	ar     repository.AnalyticsRepository
	window time.Duration
	now    func() time.Time
}

func NewAnalyticsService(gw AnalyticsGateway, pr repository.PostRepository, ar repository.AnalyticsRepository, window time.Duration) AnalyticsService {
	return &analyticsService{
		gw:     gw,
		pr:     pr,
		ar:     ar,
		window: window,
		now:    time.Now,
	}
}

func (s *analyticsService) SyncPost(ctx context.Context, postID int64, platforms []string) transfer.SyncResult {
	var result transfer.SyncResult

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil || post == nil {
		msg := repository.ErrPostNotFound.Error()
		if err != nil {
			msg = err.Error()
		}
		failAll(&result, postID, scopeOf(platforms, nil), msg)
		return result
	}

	scope := scopeOf(platforms, post.Platforms)
	correlationID := post.CorrelationID()
	if correlationID == "" {
		failAll(&result, postID, scope, "no correlation id")
		return result
	}

	resp, err := s.gw.PostAnalytics(ctx, correlationID, platforms)
	if err != nil {
		slog.Warn("analytics fetch failed", "post_id", postID, "error", err)
		failAll(&result, postID, scope, err.Error())
		return result
	}

	filter := make(map[string]struct{}, len(platforms))
	for _, p := range platforms {
		filter[strings.ToLower(p)] = struct{}{}
	}

	keys := make([]string, 0, len(resp.Analytics))
	for k := range resp.Analytics {
		if len(filter) > 0 {
			if _, ok := filter[strings.ToLower(k)]; !ok {
				continue
			}
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	recordedAt := s.now().UTC()
	if s.window > 0 {
		recordedAt = recordedAt.Truncate(s.window)
	}

	for _, platform := range keys {
		detail := transfer.SyncDetail{PostID: postID, Platform: platform}

		var counters transfer.PlatformCounters
		if err := json.Unmarshal(resp.Analytics[platform], &counters); err != nil {
			detail.Error = fmt.Sprintf("decode counters: %v", err)
			s.add(&result, detail)
			continue
		}

		snapshot := normalizeCounters(counters)
		snapshot.PostID = postID
		snapshot.Platform = platform
		snapshot.RecordedAt = recordedAt

		if _, err := s.ar.Upsert(ctx, snapshot); err != nil {
			detail.Error = err.Error()
			s.add(&result, detail)
			continue
		}

		detail.Success = true
		s.add(&result, detail)
	}

	return result
}

func (s *analyticsService) SyncAll(ctx context.Context, userID int64, daysBack, limit int) transfer.SyncResult {
	var result transfer.SyncResult

	if daysBack <= 0 {
		daysBack = defaultSyncDaysBack
	}
	if limit <= 0 {
		limit = defaultSyncLimit
	}

	since := s.now().Add(-time.Duration(daysBack) * 24 * time.Hour)
	posts, err := s.pr.ListPublishedSince(ctx, userID, since, limit)
	if err != nil {
		slog.Error("failed to list published posts", "user_id", userID, "error", err)
		return result
	}

	for _, post := range posts {
		result.Merge(s.SyncPost(ctx, post.ID, nil))
	}

	slog.Info("analytics sync finished", "user_id", userID, "posts", len(posts), "synced", result.Synced, "failed", result.Failed)
	return result
}

func (s *analyticsService) ListSnapshots(ctx context.Context, userID, postID int64) ([]*models.AnalyticsSnapshot, error) {
	owned, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, repository.ErrPostNotFound
	}
	return s.ar.ListByPostID(ctx, postID)
}

func (s *analyticsService) add(result *transfer.SyncResult, d transfer.SyncDetail) {
	outcome := "synced"
	if !d.Success {
		outcome = "failed"
		slog.Warn("analytics row not synced", "post_id", d.PostID, "platform", d.Platform, "error", d.Error)
	}
	metrics.AnalyticsRows.WithLabelValues(outcome).Inc()
	result.Add(d)
}

func failAll(result *transfer.SyncResult, postID int64, platforms []string, msg string) {
	if len(platforms) == 0 {
		platforms = []string{AllPlatforms}
	}
	for _, p := range platforms {
		metrics.AnalyticsRows.WithLabelValues("failed").Inc()
		result.Add(transfer.SyncDetail{PostID: postID, Platform: p, Error: msg})
	}
}

func scopeOf(requested, fallback []string) []string {
	if len(requested) > 0 {
		return requested
	}
	return fallback
}

// normalizeCounters folds platform-specific counter names into the common set.
func normalizeCounters(c transfer.PlatformCounters) *models.AnalyticsSnapshot {
	pick := func(primary, alt *int64) int64 {
		if primary != nil {
			return *primary
		}
		if alt != nil {
			return *alt
		}
		return 0
	}

	s := &models.AnalyticsSnapshot{
		Impressions: pick(c.Impressions, nil),
		Likes:       pick(c.Likes, c.Favorites),
		Comments:    pick(c.Comments, c.Replies),
		Shares:      pick(c.Shares, c.Retweets),
		Clicks:      pick(c.Clicks, nil),
		Reach:       pick(c.Reach, nil),
		Saves:       pick(c.Saves, nil),
	}
	if c.Engagements != nil {
		s.Engagements = *c.Engagements
	} else {
		s.Engagements = s.Likes + s.Comments + s.Shares
	}
	return s
}
