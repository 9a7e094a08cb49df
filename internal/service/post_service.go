package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/postsync/internal/models"
	"github.com/maheshrc27/postsync/internal/queue"
	"github.com/maheshrc27/postsync/internal/repository"
	"github.com/maheshrc27/postsync/internal/transfer"
)

type PostService interface {
	CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.Post, bool, error)
	List(ctx context.Context, userID int64) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error)
	Results(ctx context.Context, postID, userID int64) ([]*models.PostResult, error)
}

type postService struct {
	db          *sql.DB
	pr          repository.PostRepository
	tr          repository.TaskRepository
	rr          repository.PostResultRepository
	maxAttempts int
	now         func() time.Time
}

func NewPostService(
	db *sql.DB,
	pr repository.PostRepository,
	tr repository.TaskRepository,
	rr repository.PostResultRepository,
	maxAttempts int) PostService {
	return &postService{
		db:          db,
		pr:          pr,
		tr:          tr,
		rr:          rr,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// CreatePost stores the post and, unless it is a draft, its publish task in
// one transaction. The bool reports whether the task is already due.
func (s *postService) CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.Post, bool, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return nil, false, err
	}
	if userID == 0 {
		err := errors.New("User is not valid")
		slog.Info(err.Error())
		return nil, false, err
	}

	now := s.now().UTC()
	scheduledFor := now
	if pc.ScheduleDate != nil && pc.ScheduleDate.After(now) {
		scheduledFor = pc.ScheduleDate.UTC()
	}

	post := &models.Post{
		UserID:    userID,
		Content:   pc.Content,
		Title:     pc.Title,
		MediaURLs: pc.MediaURLs,
		Platforms: pc.Platforms,
		Hashtags:  pc.Hashtags,
		Status:    models.PostStatusScheduled,
		Metadata:  models.Metadata{},
	}
	if pc.Draft {
		post.Status = models.PostStatusDraft
		post.ScheduledTime = pc.ScheduleDate
	} else {
		post.ScheduledTime = &scheduledFor
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	post.ID, err = s.pr.Create(ctx, tx, post)
	if err != nil {
		return nil, false, fmt.Errorf("error creating post: %w", err)
	}

	if !pc.Draft {
		payload := queue.PublishPostPayload{
			PostID:          post.ID,
			UserID:          userID,
			Content:         post.Content,
			Title:           post.Title,
			MediaURLs:       post.MediaURLs,
			Platforms:       post.Platforms,
			Hashtags:        post.Hashtags,
			PlatformOptions: pc.PlatformOptions,
		}
		if _, err = queue.EnqueuePost(ctx, s.tr, tx, payload, scheduledFor, s.maxAttempts); err != nil {
			return nil, false, fmt.Errorf("error scheduling post: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	dueNow := !pc.Draft && !scheduledFor.After(now)
	return post, dueNow, nil
}

func (s *postService) PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error) {
	if err := s.checkOwner(ctx, postID, userID); err != nil {
		return nil, err
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("Error getting post info")
	}
	if post == nil {
		return nil, repository.ErrPostNotFound
	}

	return post, nil
}

func (s *postService) Results(ctx context.Context, postID, userID int64) ([]*models.PostResult, error) {
	if err := s.checkOwner(ctx, postID, userID); err != nil {
		return nil, err
	}

	results, err := s.rr.ListByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("Error getting post results")
	}
	return results, nil
}

func (s *postService) List(ctx context.Context, userID int64) ([]*models.Post, error) {
	posts, err := s.pr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Error getting posts")
	}
	return posts, nil
}

func (s *postService) checkOwner(ctx context.Context, postID, userID int64) error {
	if userID == 0 {
		err := errors.New("User is not valid")
		slog.Info(err.Error())
		return err
	}
	if postID == 0 {
		err := errors.New("post id is not valid")
		slog.Info(err.Error())
		return err
	}

	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		slog.Info(repository.ErrPostNotFound.Error())
		return repository.ErrPostNotFound
	}
	return nil
}
