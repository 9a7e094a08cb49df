package job

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/postsync/internal/models"
	"github.com/maheshrc27/postsync/internal/repository"
	"github.com/maheshrc27/postsync/internal/transfer"
)

// memTasks mirrors the conditional transitions of the tasks table.
type memTasks struct {
	mu          sync.Mutex
	tasks       map[int64]*models.Task
	nextID      int64
	claimErr    error
	completeErr error
}

func newMemTasks() *memTasks {
	return &memTasks{tasks: map[int64]*models.Task{}}
}

func (m *memTasks) Create(ctx context.Context, tx *sql.Tx, task *models.Task) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	cp := *task
	cp.ID = m.nextID
	if cp.Status == "" {
		cp.Status = models.TaskStatusPending
	}
	m.tasks[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memTasks) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *memTasks) ClaimNext(ctx context.Context, taskType models.TaskType, now time.Time) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claimErr != nil {
		return nil, m.claimErr
	}

	var due []*models.Task
	for _, t := range m.tasks {
		if t.Type != taskType || t.Status != models.TaskStatusPending || t.ScheduledFor.After(now) {
			continue
		}
		if t.Attempts >= t.MaxAttempts || (t.LastAttempt != nil && !t.LastAttempt.Before(now)) {
			continue
		}
		due = append(due, t)
	}
	if len(due) == 0 {
		return nil, nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].ScheduledFor.Equal(due[j].ScheduledFor) {
			return due[i].ID < due[j].ID
		}
		return due[i].ScheduledFor.Before(due[j].ScheduledFor)
	})

	t := due[0]
	t.Status = models.TaskStatusProcessing
	t.Attempts++
	t.LastAttempt = &now
	cp := *t
	return &cp, nil
}

func (m *memTasks) transition(id int64, to models.TaskStatus, errMsg string, guard func(*models.Task) bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.Status != models.TaskStatusProcessing || (guard != nil && !guard(t)) {
		return repository.ErrTaskNotProcessing
	}
	t.Status = to
	t.Error = errMsg
	return nil
}

func (m *memTasks) Complete(ctx context.Context, id int64, now time.Time) error {
	if m.completeErr != nil {
		return m.completeErr
	}
	return m.transition(id, models.TaskStatusCompleted, "", nil)
}

func (m *memTasks) Retry(ctx context.Context, id int64, errMsg string, now time.Time) error {
	return m.transition(id, models.TaskStatusPending, errMsg, func(t *models.Task) bool { return t.Attempts < t.MaxAttempts })
}

func (m *memTasks) Fail(ctx context.Context, id int64, errMsg string, now time.Time) error {
	return m.transition(id, models.TaskStatusFailed, errMsg, nil)
}

func (m *memTasks) RequeueStale(ctx context.Context, olderThan, now time.Time) ([]*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Task
	for _, t := range m.tasks {
		if t.Status != models.TaskStatusProcessing || t.LastAttempt == nil || !t.LastAttempt.Before(olderThan) {
			continue
		}
		if t.Attempts < t.MaxAttempts {
			t.Status = models.TaskStatusPending
		} else {
			t.Status = models.TaskStatusFailed
		}
		t.Error = "processing timed out"
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memTasks) status(id int64) models.TaskStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks[id].Status
}

type memPosts struct {
	mu    sync.Mutex
	posts map[int64]*models.Post
	users []int64
}

func newMemPosts(posts ...*models.Post) *memPosts {
	m := &memPosts{posts: map[int64]*models.Post{}}
	for _, p := range posts {
		m.posts[p.ID] = p
	}
	return m
}

func (m *memPosts) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.posts[id], nil
}

func (m *memPosts) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	return 0, errors.New("not supported")
}

func (m *memPosts) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	return nil, nil
}

func (m *memPosts) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	return false, nil
}

func (m *memPosts) UpdatePostStatus(ctx context.Context, status string, postID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return repository.ErrPostNotFound
	}
	p.Status = status
	return nil
}

func (m *memPosts) MarkPublished(ctx context.Context, postID int64, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return repository.ErrPostNotFound
	}
	p.Status = models.PostStatusPublished
	p.PublishedAt = &publishedAt
	return nil
}

func (m *memPosts) SetMetadata(ctx context.Context, postID int64, key, value string) error {
	return nil
}

func (m *memPosts) ListPublishedSince(ctx context.Context, userID int64, since time.Time, limit int) ([]*models.Post, error) {
	return nil, nil
}

func (m *memPosts) ListUsersPublishedSince(ctx context.Context, since time.Time) ([]int64, error) {
	return m.users, nil
}

type fakePublisher struct {
	mu      sync.Mutex
	err     error
	failFor map[int64]error
	calls   []*transfer.PublishRequest
}

func (f *fakePublisher) Publish(ctx context.Context, req *transfer.PublishRequest) ([]transfer.PlatformResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	if err := f.failFor[req.PostID]; err != nil {
		return nil, err
	}
	results := make([]transfer.PlatformResult, 0, len(req.Platforms))
	for _, p := range req.Platforms {
		results = append(results, transfer.PlatformResult{Platform: p, Success: true})
	}
	return results, nil
}

type fakeAnalytics struct {
	mu    sync.Mutex
	users []int64
}

func (f *fakeAnalytics) SyncPost(ctx context.Context, postID int64, platforms []string) transfer.SyncResult {
	return transfer.SyncResult{}
}

func (f *fakeAnalytics) SyncAll(ctx context.Context, userID int64, daysBack, limit int) transfer.SyncResult {
	f.mu.Lock()
	f.users = append(f.users, userID)
	f.mu.Unlock()

	var res transfer.SyncResult
	res.Add(transfer.SyncDetail{PostID: userID * 10, Platform: "twitter", Success: true})
	if userID%2 == 0 {
		res.Add(transfer.SyncDetail{PostID: userID * 10, Platform: "linkedin", Error: "no correlation id"})
	}
	return res
}

func (f *fakeAnalytics) ListSnapshots(ctx context.Context, userID, postID int64) ([]*models.AnalyticsSnapshot, error) {
	return nil, nil
}
