package models

import "time"

const (
	ResultStatusPublished = "PUBLISHED"
	ResultStatusFailed    = "FAILED"
)

// PostResult is the outcome of the latest publish attempt for one (post, account).
type PostResult struct {
	ID          int64      `db:"id" json:"id"`
	PostID      int64      `db:"post_id" json:"post_id"`
	AccountID   int64      `db:"account_id" json:"account_id"`
	Platform    string     `db:"platform" json:"platform"`
	Status      string     `db:"status" json:"status"`
	ExternalID  string     `db:"external_id" json:"external_id,omitempty"`
	PlatformURL string     `db:"platform_url" json:"platform_url,omitempty"`
	Error       string     `db:"error" json:"error,omitempty"`
	PublishedAt *time.Time `db:"published_at" json:"published_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
