package queue

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/maheshrc27/postsync/internal/models"
	"github.com/maheshrc27/postsync/internal/transfer"
)

var ErrUnknownTaskType = errors.New("unknown task type")

// Payload is the closed set of task payloads. New task kinds add a type here
// and a case in DecodePayload.
type Payload interface {
	Kind() models.TaskType
}

type PublishPostPayload struct {
	PostID          int64                     `json:"post_id"`
	UserID          int64                     `json:"user_id"`
	Content         string                    `json:"content"`
	Title           string                    `json:"title,omitempty"`
	MediaURLs       []string                  `json:"media_urls,omitempty"`
	Platforms       []string                  `json:"platforms"`
	Hashtags        []string                  `json:"hashtags,omitempty"`
	PlatformOptions map[string]map[string]any `json:"platform_options,omitempty"`
}

func (PublishPostPayload) Kind() models.TaskType {
	return models.TaskTypePublishPost
}

func (p *PublishPostPayload) PublishRequest() *transfer.PublishRequest {
	return &transfer.PublishRequest{
		PostID:          p.PostID,
		UserID:          p.UserID,
		Content:         p.Content,
		Title:           p.Title,
		MediaURLs:       p.MediaURLs,
		Platforms:       p.Platforms,
		Hashtags:        p.Hashtags,
		PlatformOptions: p.PlatformOptions,
	}
}

func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, errors.New("payload is nil")
	}
	return json.Marshal(p)
}

func DecodePayload(kind models.TaskType, raw []byte) (Payload, error) {
	switch kind {
	case models.TaskTypePublishPost:
		var p PublishPostPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
		if p.PostID == 0 {
			return nil, fmt.Errorf("decode %s payload: missing post_id", kind)
		}
		return &p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTaskType, kind)
	}
}
