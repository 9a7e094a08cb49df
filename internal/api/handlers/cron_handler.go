package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postsync/internal/queue"
	"github.com/maheshrc27/postsync/internal/transfer"
)

type RecentSyncer interface {
	SyncRecent(ctx context.Context) (transfer.SyncResult, error)
}

type CronHandler struct {
	dr        queue.Drainer
	rs        RecentSyncer
	batchSize int
}

func NewCronHandler(dr queue.Drainer, rs RecentSyncer, batchSize int) *CronHandler {
	return &CronHandler{dr: dr, rs: rs, batchSize: batchSize}
}

// PostScheduler drains due tasks. The counts are reported on failure too,
// covering whatever the run finished before the error.
func (h *CronHandler) PostScheduler(c *fiber.Ctx) error {
	result, err := h.dr.DrainDue(c.Context(), h.batchSize)

	resp := transfer.CronResponse{
		Status:    "success",
		Processed: result.Processed,
		Failed:    result.Failed,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		slog.Error("post scheduler trigger failed", "error", err)
		resp.Status = "error"
		resp.Error = err.Error()
		return c.Status(fiber.StatusInternalServerError).JSON(resp)
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *CronHandler) AnalyticsSync(c *fiber.Ctx) error {
	result, err := h.rs.SyncRecent(c.Context())

	resp := transfer.AnalyticsCronResponse{
		Status:    "success",
		Synced:    result.Synced,
		Failed:    result.Failed,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		slog.Error("analytics sync trigger failed", "error", err)
		resp.Status = "error"
		resp.Error = err.Error()
		return c.Status(fiber.StatusInternalServerError).JSON(resp)
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}
