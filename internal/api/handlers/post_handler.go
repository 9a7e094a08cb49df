package handlers

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postsync/internal/queue"
	"github.com/maheshrc27/postsync/internal/service"
	"github.com/maheshrc27/postsync/internal/transfer"
)

type PostHandler struct {
	s        service.PostService
	as       service.AnalyticsService
	client   queue.Enqueuer
	validate *validator.Validate
	daysBack int
	limit    int
}

func NewPostHandler(
	s service.PostService,
	as service.AnalyticsService,
	client queue.Enqueuer,
	daysBack, limit int) *PostHandler {
	return &PostHandler{
		s:        s,
		as:       as,
		client:   client,
		validate: validator.New(),
		daysBack: daysBack,
		limit:    limit,
	}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}
	if err := h.validate.Struct(&pc); err != nil {
		return validationResponse(c, err)
	}

	post, dueNow, err := h.s.CreatePost(c.Context(), userID, &pc)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if dueNow {
		// The task is durable; a lost nudge only waits for the next interval.
		if err := queue.EnqueueDrain(c.Context(), h.client); err != nil {
			slog.Warn("failed to enqueue drain nudge", "post_id", post.ID, "error", err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	posts, err := h.s.List(c.Context(), GetUserID(c))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	postID, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	post, err := h.s.PostInfo(c.Context(), postID, GetUserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) Results(c *fiber.Ctx) error {
	postID, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	results, err := h.s.Results(c.Context(), postID, GetUserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(results)
}

func (h *PostHandler) Analytics(c *fiber.Ctx) error {
	postID, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	snapshots, err := h.as.ListSnapshots(c.Context(), GetUserID(c), postID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(snapshots)
}

type syncRequest struct {
	Platforms []string `json:"platforms" validate:"omitempty,dive,required"`
}

// SyncPostAnalytics refreshes one post synchronously.
func (h *PostHandler) SyncPostAnalytics(c *fiber.Ctx) error {
	postID, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var req syncRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unable to parse body"})
		}
		if err := h.validate.Struct(&req); err != nil {
			return validationResponse(c, err)
		}
	}

	if _, err := h.s.PostInfo(c.Context(), postID, GetUserID(c)); err != nil {
		return errorResponse(c, err)
	}

	result := h.as.SyncPost(c.Context(), postID, req.Platforms)
	return c.Status(fiber.StatusOK).JSON(result)
}

// SyncAllAnalytics queues a refresh of the user's recent posts.
func (h *PostHandler) SyncAllAnalytics(c *fiber.Ctx) error {
	err := queue.EnqueueAnalyticsSync(c.Context(), h.client, queue.AnalyticsSyncPayload{
		UserID:   GetUserID(c),
		DaysBack: h.daysBack,
		Limit:    h.limit,
	})
	if err != nil {
		slog.Error("failed to enqueue analytics sync", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to queue analytics sync",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Analytics sync queued",
	})
}
