package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postsync/internal/models"
)

type AnalyticsRepository interface {
	Upsert(ctx context.Context, s *models.AnalyticsSnapshot) (int64, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.AnalyticsSnapshot, error)
}

type analyticsRepository struct {
	db *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) Upsert(ctx context.Context, s *models.AnalyticsSnapshot) (int64, error) {
	query := `
		INSERT INTO analytics_snapshots
			(post_id, platform, impressions, engagements, likes, comments, shares, clicks, reach, saves, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (post_id, platform, recorded_at) DO UPDATE
		SET impressions = EXCLUDED.impressions,
			engagements = EXCLUDED.engagements,
			likes = EXCLUDED.likes,
			comments = EXCLUDED.comments,
			shares = EXCLUDED.shares,
			clicks = EXCLUDED.clicks,
			reach = EXCLUDED.reach,
			saves = EXCLUDED.saves
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		s.PostID,
		s.Platform,
		s.Impressions,
		s.Engagements,
		s.Likes,
		s.Comments,
		s.Shares,
		s.Clicks,
		s.Reach,
		s.Saves,
		s.RecordedAt,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

// ListByPostID returns snapshots newest first.
func (r *analyticsRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.AnalyticsSnapshot, error) {
	query := `
		SELECT id, post_id, platform, impressions, engagements, likes, comments, shares, clicks, reach, saves, recorded_at
		FROM analytics_snapshots
		WHERE post_id = $1
		ORDER BY recorded_at DESC, platform
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var snapshots []*models.AnalyticsSnapshot
	for rows.Next() {
		var s models.AnalyticsSnapshot
		err := rows.Scan(&s.ID, &s.PostID, &s.Platform, &s.Impressions, &s.Engagements, &s.Likes,
			&s.Comments, &s.Shares, &s.Clicks, &s.Reach, &s.Saves, &s.RecordedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		snapshots = append(snapshots, &s)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return snapshots, nil
}
