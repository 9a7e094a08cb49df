package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/maheshrc27/postsync/internal/models"
)

func TestPostResultRepositoryUpsert(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()

	pr := &models.PostResult{
		PostID:      1,
		AccountID:   4,
		Platform:    "twitter",
		Status:      models.ResultStatusPublished,
		ExternalID:  "tw-1",
		PublishedAt: &now,
	}

	// Same key written twice resolves to the same row.
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(`INSERT INTO post_results .*ON CONFLICT \(post_id, account_id\) DO UPDATE`).
			WithArgs(int64(1), int64(4), "twitter", models.ResultStatusPublished, "tw-1", "", "", &now).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(21)))
	}

	repo := NewPostResultRepository(db)
	first, err := repo.Upsert(context.Background(), pr)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	second, err := repo.Upsert(context.Background(), pr)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if first != second {
		t.Fatalf("expected same row id, got %d and %d", first, second)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostResultRepositoryListByPostID(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "post_id", "account_id", "platform", "status", "external_id", "platform_url", "error", "published_at", "created_at", "updated_at"}).
		AddRow(int64(1), int64(8), int64(2), "linkedin", "FAILED", "", "", "token expired", nil, now, now).
		AddRow(int64(2), int64(8), int64(3), "twitter", "PUBLISHED", "tw-8", "https://x.com/p/8", "", now, now, now)

	mock.ExpectQuery(`FROM post_results\s+WHERE post_id = \$1`).WithArgs(int64(8)).WillReturnRows(rows)

	results, err := NewPostResultRepository(db).ListByPostID(context.Background(), 8)
	if err != nil {
		t.Fatalf("ListByPostID: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].PublishedAt != nil || results[1].PublishedAt == nil {
		t.Fatalf("unexpected published_at values")
	}
}
