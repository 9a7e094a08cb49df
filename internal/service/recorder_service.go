package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/postsync/internal/metrics"
	"github.com/maheshrc27/postsync/internal/models"
	"github.com/maheshrc27/postsync/internal/repository"
	"github.com/maheshrc27/postsync/internal/transfer"
)

type RecorderService interface {
	Record(ctx context.Context, userID, postID int64, result transfer.PlatformResult) error
}

type recorderService struct {
	ac repository.SocialAccountRepository
	rr repository.PostResultRepository
}

func NewRecorderService(ac repository.SocialAccountRepository, rr repository.PostResultRepository) RecorderService {
	return &recorderService{ac: ac, rr: rr}
}

// Record upserts one platform outcome against the user's connected account.
// A platform without a connected account is skipped.
func (s *recorderService) Record(ctx context.Context, userID, postID int64, result transfer.PlatformResult) error {
	account, err := s.ac.GetConnected(ctx, userID, result.Platform)
	if err != nil {
		return fmt.Errorf("lookup account for %s: %w", result.Platform, err)
	}
	if account == nil {
		slog.Warn("no connected account, result not recorded", "user_id", userID, "post_id", postID, "platform", result.Platform)
		metrics.ResultsSkipped.WithLabelValues(result.Platform).Inc()
		return nil
	}

	status := models.ResultStatusFailed
	if result.Success {
		status = models.ResultStatusPublished
	}

	_, err = s.rr.Upsert(ctx, &models.PostResult{
		PostID:      postID,
		AccountID:   account.ID,
		Platform:    result.Platform,
		Status:      status,
		ExternalID:  result.ExternalID,
		PlatformURL: result.PlatformURL,
		Error:       result.Error,
		PublishedAt: result.PublishedAt,
	})
	if err != nil {
		return fmt.Errorf("record %s result for post %d: %w", result.Platform, postID, err)
	}
	return nil
}
