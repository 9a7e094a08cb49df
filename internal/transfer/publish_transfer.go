package transfer

import "time"

// PublishRequest is the input of one fan-out publish.
type PublishRequest struct {
	PostID          int64                     `json:"post_id"`
	UserID          int64                     `json:"user_id"`
	Content         string                    `json:"content"`
	Title           string                    `json:"title,omitempty"`
	MediaURLs       []string                  `json:"media_urls,omitempty"`
	Platforms       []string                  `json:"platforms"`
	Hashtags        []string                  `json:"hashtags,omitempty"`
	PlatformOptions map[string]map[string]any `json:"platform_options,omitempty"`
	ScheduleDate    *time.Time                `json:"schedule_date,omitempty"`
}

type PlatformResult struct {
	Platform    string     `json:"platform"`
	Success     bool       `json:"success"`
	ExternalID  string     `json:"external_id,omitempty"`
	PlatformURL string     `json:"platform_url,omitempty"`
	Error       string     `json:"error,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

type SyncDetail struct {
	PostID   int64  `json:"post_id"`
	Platform string `json:"platform"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

type SyncResult struct {
	Synced  int          `json:"synced"`
	Failed  int          `json:"failed"`
	Details []SyncDetail `json:"details"`
}

func (r *SyncResult) Add(d SyncDetail) {
	if d.Success {
		r.Synced++
	} else {
		r.Failed++
	}
	r.Details = append(r.Details, d)
}

func (r *SyncResult) Merge(other SyncResult) {
	r.Synced += other.Synced
	r.Failed += other.Failed
	r.Details = append(r.Details, other.Details...)
}

// DrainResult counts the outcome of one dispatcher batch.
type DrainResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}
