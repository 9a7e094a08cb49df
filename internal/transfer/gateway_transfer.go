package transfer

import (
	"time"

	"github.com/goccy/go-json"
)

type GatewayPostID struct {
	Platform string `json:"platform"`
	ID       string `json:"id"`
	Status   string `json:"status"`
	PostURL  string `json:"postUrl,omitempty"`
}

type GatewayError struct {
	Platform string `json:"platform,omitempty"`
	Message  string `json:"message"`
}

type GatewayPublishResponse struct {
	Status  string          `json:"status"`
	ID      string          `json:"id,omitempty"`
	PostIDs []GatewayPostID `json:"postIds,omitempty"`
	Errors  []GatewayError  `json:"errors,omitempty"`
}

// HasBreakdown reports whether the gateway returned any per-platform outcome.
func (r *GatewayPublishResponse) HasBreakdown() bool {
	if len(r.PostIDs) > 0 {
		return true
	}
	for _, e := range r.Errors {
		if e.Platform != "" {
			return true
		}
	}
	return false
}

type GatewayAnalyticsRequest struct {
	ID        string   `json:"id"`
	Platforms []string `json:"platforms,omitempty"`
}

// GatewayAnalyticsResponse keeps per-platform counters raw so one malformed
// platform entry does not spoil the rest.
type GatewayAnalyticsResponse struct {
	Status    string                     `json:"status"`
	Analytics map[string]json.RawMessage `json:"analytics,omitempty"`
}

// PlatformCounters is the union of counter names the gateway uses across platforms.
type PlatformCounters struct {
	Impressions *int64 `json:"impressions,omitempty"`
	Engagements *int64 `json:"engagements,omitempty"`
	Likes       *int64 `json:"likes,omitempty"`
	Favorites   *int64 `json:"favorites,omitempty"`
	Comments    *int64 `json:"comments,omitempty"`
	Replies     *int64 `json:"replies,omitempty"`
	Shares      *int64 `json:"shares,omitempty"`
	Retweets    *int64 `json:"retweets,omitempty"`
	Clicks      *int64 `json:"clicks,omitempty"`
	Reach       *int64 `json:"reach,omitempty"`
	Saves       *int64 `json:"saves,omitempty"`
}

// GatewayPublishRequest marshals PlatformOptions as top-level "<platform>Options" blocks.
type GatewayPublishRequest struct {
	Post            string
	Platforms       []string
	MediaURLs       []string
	Title           string
	ScheduleDate    *time.Time
	PlatformOptions map[string]map[string]any
}

func (r GatewayPublishRequest) MarshalJSON() ([]byte, error) {
	body := map[string]any{
		"post":      r.Post,
		"platforms": r.Platforms,
	}
	if len(r.MediaURLs) > 0 {
		body["mediaUrls"] = r.MediaURLs
	}
	if r.Title != "" {
		body["title"] = r.Title
	}
	if r.ScheduleDate != nil {
		body["scheduleDate"] = r.ScheduleDate.UTC().Format(time.RFC3339)
	}
	for platform, opts := range r.PlatformOptions {
		if len(opts) == 0 {
			continue
		}
		body[platform+"Options"] = opts
	}
	return json.Marshal(body)
}
