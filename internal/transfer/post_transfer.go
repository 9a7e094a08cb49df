package transfer

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type PostCreation struct {
	Content         string                    `json:"content" validate:"required,max=10000"`
	Title           string                    `json:"title" validate:"max=300"`
	Platforms       []string                  `json:"platforms" validate:"required,min=1,unique,dive,required"`
	MediaURLs       []string                  `json:"mediaUrls" validate:"omitempty,dive,url"`
	Hashtags        []string                  `json:"hashtags" validate:"omitempty,dive,required"`
	PlatformOptions map[string]map[string]any `json:"platformOptions"`
	ScheduleDate    *time.Time                `json:"scheduleDate"`
	Draft           bool                      `json:"draft"`
}

type CronResponse struct {
	Status    string    `json:"status"`
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

type AnalyticsCronResponse struct {
	Status    string    `json:"status"`
	Synced    int       `json:"synced"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// SessionClaims is the payload of a session token. Subject repeats UserID.
type SessionClaims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}
