package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postsync/internal/models"
)

type PostResultRepository interface {
	Upsert(ctx context.Context, pr *models.PostResult) (int64, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.PostResult, error)
}

type postResultRepository struct {
	db *sql.DB
}

func NewPostResultRepository(db *sql.DB) PostResultRepository {
	return &postResultRepository{db: db}
}

// Upsert keeps one row per (post, account); the latest write wins.
func (r *postResultRepository) Upsert(ctx context.Context, pr *models.PostResult) (int64, error) {
	query := `
		INSERT INTO post_results (post_id, account_id, platform, status, external_id, platform_url, error, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (post_id, account_id) DO UPDATE
		SET platform = EXCLUDED.platform,
			status = EXCLUDED.status,
			external_id = EXCLUDED.external_id,
			platform_url = EXCLUDED.platform_url,
			error = EXCLUDED.error,
			published_at = EXCLUDED.published_at,
			updated_at = NOW()
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		pr.PostID,
		pr.AccountID,
		pr.Platform,
		pr.Status,
		pr.ExternalID,
		pr.PlatformURL,
		pr.Error,
		pr.PublishedAt,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postResultRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PostResult, error) {
	query := `
		SELECT id, post_id, account_id, platform, status, external_id, platform_url, error, published_at, created_at, updated_at
		FROM post_results
		WHERE post_id = $1
		ORDER BY platform
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var results []*models.PostResult
	for rows.Next() {
		var pr models.PostResult
		var publishedAt sql.NullTime
		err := rows.Scan(&pr.ID, &pr.PostID, &pr.AccountID, &pr.Platform, &pr.Status, &pr.ExternalID,
			&pr.PlatformURL, &pr.Error, &publishedAt, &pr.CreatedAt, &pr.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		if publishedAt.Valid {
			pr.PublishedAt = &publishedAt.Time
		}
		results = append(results, &pr)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return results, nil
}
