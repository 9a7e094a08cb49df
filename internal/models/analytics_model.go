package models

import "time"

type AnalyticsSnapshot struct {
	ID          int64     `db:"id" json:"id"`
	PostID      int64     `db:"post_id" json:"post_id"`
	Platform    string    `db:"platform" json:"platform"`
	Impressions int64     `db:"impressions" json:"impressions"`
	Engagements int64     `db:"engagements" json:"engagements"`
	Likes       int64     `db:"likes" json:"likes"`
	Comments    int64     `db:"comments" json:"comments"`
	Shares      int64     `db:"shares" json:"shares"`
	Clicks      int64     `db:"clicks" json:"clicks"`
	Reach       int64     `db:"reach" json:"reach"`
	Saves       int64     `db:"saves" json:"saves"`
	RecordedAt  time.Time `db:"recorded_at" json:"recorded_at"`
}
