package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/maheshrc27/postsync/internal/models"
)

// ErrTaskNotProcessing is returned when a transition finds the task no longer claimed.
var ErrTaskNotProcessing = errors.New("task is not in PROCESSING state")

type TaskRepository interface {
	Create(ctx context.Context, tx *sql.Tx, task *models.Task) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	ClaimNext(ctx context.Context, taskType models.TaskType, now time.Time) (*models.Task, error)
	Complete(ctx context.Context, id int64, now time.Time) error
	Retry(ctx context.Context, id int64, errMsg string, now time.Time) error
	Fail(ctx context.Context, id int64, errMsg string, now time.Time) error
	RequeueStale(ctx context.Context, olderThan, now time.Time) ([]*models.Task, error)
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, type, payload, scheduled_for, status, attempts, max_attempts, last_attempt, error, created_at, updated_at`

func scanTask(row rowScanner) (*models.Task, error) {
	var task models.Task
	var lastAttempt sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.Type,
		&task.Payload,
		&task.ScheduledFor,
		&task.Status,
		&task.Attempts,
		&task.MaxAttempts,
		&lastAttempt,
		&task.Error,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastAttempt.Valid {
		task.LastAttempt = &lastAttempt.Time
	}
	return &task, nil
}

func (r *taskRepository) Create(ctx context.Context, tx *sql.Tx, task *models.Task) (int64, error) {
	query := `
		INSERT INTO tasks (type, payload, scheduled_for, status, max_attempts)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	args := []any{task.Type, task.Payload, task.ScheduledFor, models.TaskStatusPending, task.MaxAttempts}

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return task, nil
}

// ClaimNext moves the earliest due PENDING task to PROCESSING in one statement
// and returns it. SKIP LOCKED keeps overlapping dispatchers from blocking on
// the same row; the status predicate keeps them from claiming it twice.
// Tasks last attempted at or after now are skipped, so a drain that passes
// one timestamp to every claim tries each task at most once.
// Returns nil, nil when nothing is due.
func (r *taskRepository) ClaimNext(ctx context.Context, taskType models.TaskType, now time.Time) (*models.Task, error) {
	query := `
		UPDATE tasks
		SET status = $1,
			attempts = attempts + 1,
			last_attempt = $2,
			updated_at = $2
		WHERE id = (
			SELECT id FROM tasks
			WHERE type = $3
				AND status = $4
				AND scheduled_for <= $2
				AND attempts < max_attempts
				AND (last_attempt IS NULL OR last_attempt < $2)
			ORDER BY scheduled_for ASC, id ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		AND status = $4
		RETURNING ` + taskColumns

	task, err := scanTask(r.db.QueryRowContext(ctx, query,
		models.TaskStatusProcessing, now, taskType, models.TaskStatusPending))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Complete(ctx context.Context, id int64, now time.Time) error {
	query := `
		UPDATE tasks
		SET status = $1,
			error = '',
			updated_at = $2
		WHERE id = $3 AND status = $4
	`
	return r.transition(ctx, query, models.TaskStatusCompleted, now, id, models.TaskStatusProcessing)
}

// Retry releases a claimed task back to PENDING. It refuses once attempts are exhausted.
func (r *taskRepository) Retry(ctx context.Context, id int64, errMsg string, now time.Time) error {
	query := `
		UPDATE tasks
		SET status = $1,
			error = $2,
			updated_at = $3
		WHERE id = $4 AND status = $5 AND attempts < max_attempts
	`
	return r.transition(ctx, query, models.TaskStatusPending, errMsg, now, id, models.TaskStatusProcessing)
}

func (r *taskRepository) Fail(ctx context.Context, id int64, errMsg string, now time.Time) error {
	query := `
		UPDATE tasks
		SET status = $1,
			error = $2,
			updated_at = $3
		WHERE id = $4 AND status = $5
	`
	return r.transition(ctx, query, models.TaskStatusFailed, errMsg, now, id, models.TaskStatusProcessing)
}

// RequeueStale recovers tasks left in PROCESSING by a process that died
// mid-attempt and returns them in their new state. Tasks with attempts left go
// back to PENDING, the rest become FAILED.
func (r *taskRepository) RequeueStale(ctx context.Context, olderThan, now time.Time) ([]*models.Task, error) {
	query := `
		UPDATE tasks
		SET status = CASE WHEN attempts < max_attempts THEN $1 ELSE $2 END,
			error = 'processing timed out',
			updated_at = $3
		WHERE status = $4 AND last_attempt < $5
		RETURNING ` + taskColumns

	rows, err := r.db.QueryContext(ctx, query,
		models.TaskStatusPending, models.TaskStatusFailed, now, models.TaskStatusProcessing, olderThan)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) transition(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		return ErrTaskNotProcessing
	}
	return nil
}
