package models

import (
	"database/sql/driver"
	"errors"
	"time"

	"github.com/goccy/go-json"
)

type Post struct {
	ID            int64      `db:"id" json:"id"`
	UserID        int64      `db:"user_id" json:"user_id"`
	Content       string     `db:"content" json:"content"`
	Title         string     `db:"title" json:"title,omitempty"`
	MediaURLs     []string   `db:"media_urls" json:"media_urls"`
	Platforms     []string   `db:"platforms" json:"platforms"`
	Hashtags      []string   `db:"hashtags" json:"hashtags"`
	Status        string     `db:"status" json:"status"` // DRAFT, SCHEDULED, PUBLISHED, FAILED
	ScheduledTime *time.Time `db:"scheduled_time" json:"scheduled_time,omitempty"`
	PublishedAt   *time.Time `db:"published_at" json:"published_at,omitempty"`
	Metadata      Metadata   `db:"metadata" json:"metadata"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusDraft     = "DRAFT"
	PostStatusScheduled = "SCHEDULED"
	PostStatusPublished = "PUBLISHED"
	PostStatusFailed    = "FAILED"
)

// MetadataGatewayPostID holds the gateway correlation id of the publish call.
const MetadataGatewayPostID = "gateway_post_id"

// CorrelationID returns the gateway id stored for this post, if any.
func (p *Post) CorrelationID() string {
	if p == nil || p.Metadata == nil {
		return ""
	}
	return p.Metadata[MetadataGatewayPostID]
}

// Metadata is stored as a jsonb object.
type Metadata map[string]string

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("metadata: unsupported source type")
	}

	out := Metadata{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return err
		}
	}
	*m = out
	return nil
}
