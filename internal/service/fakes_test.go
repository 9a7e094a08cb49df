package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/maheshrc27/postsync/internal/models"
	"github.com/maheshrc27/postsync/internal/repository"
	"github.com/maheshrc27/postsync/internal/transfer"
)

type fakePostRepo struct {
	posts    map[int64]*models.Post
	listErr  error
	metadata map[int64]map[string]string
	nextID   int64
}

func newFakePostRepo(posts ...*models.Post) *fakePostRepo {
	r := &fakePostRepo{posts: map[int64]*models.Post{}, metadata: map[int64]map[string]string{}, nextID: 100}
	for _, p := range posts {
		r.posts[p.ID] = p
	}
	return r
}

func (r *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	return r.posts[id], nil
}

func (r *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	r.nextID++
	cp := *post
	cp.ID = r.nextID
	r.posts[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakePostRepo) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	var out []*models.Post
	for _, p := range r.posts {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePostRepo) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	p, ok := r.posts[postID]
	return ok && p.UserID == userID, nil
}

func (r *fakePostRepo) UpdatePostStatus(ctx context.Context, status string, postID int64) error {
	p, ok := r.posts[postID]
	if !ok {
		return repository.ErrPostNotFound
	}
	p.Status = status
	return nil
}

func (r *fakePostRepo) MarkPublished(ctx context.Context, postID int64, publishedAt time.Time) error {
	p, ok := r.posts[postID]
	if !ok {
		return repository.ErrPostNotFound
	}
	p.Status = models.PostStatusPublished
	p.PublishedAt = &publishedAt
	return nil
}

func (r *fakePostRepo) SetMetadata(ctx context.Context, postID int64, key, value string) error {
	if r.metadata[postID] == nil {
		r.metadata[postID] = map[string]string{}
	}
	r.metadata[postID][key] = value
	return nil
}

func (r *fakePostRepo) ListPublishedSince(ctx context.Context, userID int64, since time.Time, limit int) ([]*models.Post, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*models.Post
	for id := int64(0); id <= r.nextID && len(out) < limit; id++ {
		p, ok := r.posts[id]
		if !ok || p.UserID != userID || p.Status != models.PostStatusPublished {
			continue
		}
		if p.PublishedAt == nil || p.PublishedAt.Before(since) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePostRepo) ListUsersPublishedSince(ctx context.Context, since time.Time) ([]int64, error) {
	return nil, nil
}

type fakeAccounts struct {
	byPlatform map[string]*models.SocialAccount
	err        error
}

func (f *fakeAccounts) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	for _, a := range f.byPlatform {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeAccounts) GetConnected(ctx context.Context, userID int64, platform string) (*models.SocialAccount, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byPlatform[platform], nil
}

func (f *fakeAccounts) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	var out []*models.SocialAccount
	for _, a := range f.byPlatform {
		out = append(out, a)
	}
	return out, nil
}

// fakeResults keys rows the way the unique index does.
type fakeResults struct {
	rows map[[2]int64]*models.PostResult
	err  error
}

func newFakeResults() *fakeResults {
	return &fakeResults{rows: map[[2]int64]*models.PostResult{}}
}

func (f *fakeResults) Upsert(ctx context.Context, pr *models.PostResult) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	cp := *pr
	f.rows[[2]int64{pr.PostID, pr.AccountID}] = &cp
	return int64(len(f.rows)), nil
}

func (f *fakeResults) ListByPostID(ctx context.Context, postID int64) ([]*models.PostResult, error) {
	var out []*models.PostResult
	for k, v := range f.rows {
		if k[0] == postID {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeAnalyticsRepo struct {
	rows     map[string]*models.AnalyticsSnapshot
	failFor  string
	upserted int
}

func newFakeAnalyticsRepo() *fakeAnalyticsRepo {
	return &fakeAnalyticsRepo{rows: map[string]*models.AnalyticsSnapshot{}}
}

func (f *fakeAnalyticsRepo) Upsert(ctx context.Context, s *models.AnalyticsSnapshot) (int64, error) {
	if f.failFor != "" && s.Platform == f.failFor {
		return 0, errors.New("constraint violation")
	}
	f.upserted++
	cp := *s
	key := fmt.Sprintf("%d|%s|%s", s.PostID, s.Platform, s.RecordedAt.Format(time.RFC3339))
	f.rows[key] = &cp
	return int64(len(f.rows)), nil
}

func (f *fakeAnalyticsRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.AnalyticsSnapshot, error) {
	var out []*models.AnalyticsSnapshot
	for _, s := range f.rows {
		if s.PostID == postID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeGateway struct {
	publish   func(req *transfer.GatewayPublishRequest) (*transfer.GatewayPublishResponse, error)
	analytics func(id string, platforms []string) (*transfer.GatewayAnalyticsResponse, error)

	publishCalls   []*transfer.GatewayPublishRequest
	analyticsCalls []string
}

func (g *fakeGateway) Publish(ctx context.Context, req *transfer.GatewayPublishRequest) (*transfer.GatewayPublishResponse, error) {
	g.publishCalls = append(g.publishCalls, req)
	return g.publish(req)
}

func (g *fakeGateway) PostAnalytics(ctx context.Context, id string, platforms []string) (*transfer.GatewayAnalyticsResponse, error) {
	g.analyticsCalls = append(g.analyticsCalls, id)
	return g.analytics(id, platforms)
}

type fakeRecorder struct {
	recorded []transfer.PlatformResult
	err      error
}

func (f *fakeRecorder) Record(ctx context.Context, userID, postID int64, result transfer.PlatformResult) error {
	f.recorded = append(f.recorded, result)
	return f.err
}

type fakeTasks struct {
	created []*models.Task
	err     error
}

func (f *fakeTasks) Create(ctx context.Context, tx *sql.Tx, task *models.Task) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.created = append(f.created, task)
	return int64(len(f.created)), nil
}

func (f *fakeTasks) GetByID(ctx context.Context, id int64) (*models.Task, error) { return nil, nil }

func (f *fakeTasks) ClaimNext(ctx context.Context, taskType models.TaskType, now time.Time) (*models.Task, error) {
	return nil, nil
}

func (f *fakeTasks) Complete(ctx context.Context, id int64, now time.Time) error { return nil }

func (f *fakeTasks) Retry(ctx context.Context, id int64, errMsg string, now time.Time) error {
	return nil
}

func (f *fakeTasks) Fail(ctx context.Context, id int64, errMsg string, now time.Time) error {
	return nil
}

func (f *fakeTasks) RequeueStale(ctx context.Context, olderThan, now time.Time) ([]*models.Task, error) {
	return nil, nil
}

type fakeUploader struct {
	keys        []string
	contentType string
	err         error
}

func (f *fakeUploader) UploadObject(ctx context.Context, key string, file []byte, contentType string) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.contentType = contentType
	return nil
}

func (f *fakeUploader) PublicURL(key string) string {
	return "https://media.example.com/" + key
}
