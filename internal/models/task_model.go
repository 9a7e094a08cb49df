package models

import "time"

type TaskType string

const TaskTypePublishPost TaskType = "publish_post"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusFailed     TaskStatus = "FAILED"
)

// IsTerminal reports whether no further transitions are possible.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

type Task struct {
	ID           int64      `db:"id" json:"id"`
	Type         TaskType   `db:"type" json:"type"`
	Payload      []byte     `db:"payload" json:"payload"`
	ScheduledFor time.Time  `db:"scheduled_for" json:"scheduled_for"`
	Status       TaskStatus `db:"status" json:"status"`
	Attempts     int        `db:"attempts" json:"attempts"`
	MaxAttempts  int        `db:"max_attempts" json:"max_attempts"`
	LastAttempt  *time.Time `db:"last_attempt" json:"last_attempt,omitempty"`
	Error        string     `db:"error" json:"error,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// CanRetry reports whether a failed attempt should go back to PENDING.
func (t *Task) CanRetry() bool {
	return t.Attempts < t.MaxAttempts
}
