package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/postsync/internal/metrics"
	"github.com/maheshrc27/postsync/internal/models"
	"github.com/maheshrc27/postsync/internal/repository"
	"github.com/maheshrc27/postsync/internal/transfer"
)

var ErrInvalidPublishRequest = errors.New("publish request has no platforms")

const errPlatformMissing = "platform not included in gateway response"

type PublisherService interface {
	Publish(ctx context.Context, req *transfer.PublishRequest) ([]transfer.PlatformResult, error)
}

type publisherService struct {
	gw  PublishingGateway
	rs  RecorderService
	pr  repository.PostRepository
	now func() time.Time
}

func NewPublisherService(gw PublishingGateway, rs RecorderService, pr repository.PostRepository) PublisherService {
	return &publisherService{
		gw:  gw,
		rs:  rs,
		pr:  pr,
		now: time.Now,
	}
}

func (s *publisherService) Publish(ctx context.Context, req *transfer.PublishRequest) ([]transfer.PlatformResult, error) {
	if req == nil || len(req.Platforms) == 0 {
		return nil, ErrInvalidPublishRequest
	}

	gwReq := &transfer.GatewayPublishRequest{
		Post:            FormatContent(req.Content, req.Hashtags),
		Platforms:       req.Platforms,
		MediaURLs:       req.MediaURLs,
		Title:           req.Title,
		ScheduleDate:    req.ScheduleDate,
		PlatformOptions: req.PlatformOptions,
	}

	resp, err := s.gw.Publish(ctx, gwReq)
	if err == nil && resp.Status == "error" && !resp.HasBreakdown() {
		err = totalFailure(resp)
	}

	var results []transfer.PlatformResult
	if err != nil {
		slog.Error("gateway publish failed", "post_id", req.PostID, "error", err)
		results = make([]transfer.PlatformResult, 0, len(req.Platforms))
		for _, p := range req.Platforms {
			results = append(results, transfer.PlatformResult{Platform: p, Error: err.Error()})
		}
	} else {
		results = s.reconcile(req.Platforms, resp)
		if resp.ID != "" {
			if mErr := s.pr.SetMetadata(ctx, req.PostID, models.MetadataGatewayPostID, resp.ID); mErr != nil {
				slog.Warn("failed to store gateway post id", "post_id", req.PostID, "error", mErr)
			}
		}
	}

	for _, r := range results {
		outcome := "failed"
		if r.Success {
			outcome = "published"
		}
		metrics.PlatformResults.WithLabelValues(r.Platform, outcome).Inc()

		if rErr := s.rs.Record(ctx, req.UserID, req.PostID, r); rErr != nil {
			slog.Error("failed to record platform result", "post_id", req.PostID, "platform", r.Platform, "error", rErr)
		}
	}

	return results, err
}

// reconcile maps the gateway answer onto the requested platforms, in request order.
func (s *publisherService) reconcile(platforms []string, resp *transfer.GatewayPublishResponse) []transfer.PlatformResult {
	published := make(map[string]transfer.GatewayPostID, len(resp.PostIDs))
	for _, p := range resp.PostIDs {
		published[strings.ToLower(p.Platform)] = p
	}
	failed := make(map[string]string, len(resp.Errors))
	var general string
	for _, e := range resp.Errors {
		if e.Platform != "" {
			failed[strings.ToLower(e.Platform)] = e.Message
		} else if general == "" && e.Message != "" {
			general = e.Message
		}
	}

	now := s.now().UTC()
	results := make([]transfer.PlatformResult, 0, len(platforms))
	for _, platform := range platforms {
		key := strings.ToLower(platform)
		if p, ok := published[key]; ok && !strings.EqualFold(p.Status, "error") {
			publishedAt := now
			results = append(results, transfer.PlatformResult{
				Platform:    platform,
				Success:     true,
				ExternalID:  p.ID,
				PlatformURL: p.PostURL,
				PublishedAt: &publishedAt,
			})
			continue
		}
		msg, ok := failed[key]
		switch {
		case ok:
		case general != "":
			msg = general
		case published[key].Status != "":
			msg = fmt.Sprintf("gateway reported status %s for %s", published[key].Status, platform)
		default:
			msg = errPlatformMissing
		}
		results = append(results, transfer.PlatformResult{Platform: platform, Error: msg})
	}
	return results
}

func totalFailure(resp *transfer.GatewayPublishResponse) error {
	for _, e := range resp.Errors {
		if e.Message != "" {
			return errors.New(e.Message)
		}
	}
	return errors.New("gateway rejected the post")
}

// FormatContent appends hashtags after a blank line, skipping ones already in
// content and repeats.
func FormatContent(content string, hashtags []string) string {
	seen := make(map[string]struct{})
	for _, tok := range strings.Fields(content) {
		if strings.HasPrefix(tok, "#") {
			seen[strings.ToLower(strings.TrimRight(tok, ".,;:!?"))] = struct{}{}
		}
	}

	var tags []string
	for _, h := range hashtags {
		h = strings.TrimSpace(h)
		h = strings.TrimLeft(h, "#")
		if h == "" || strings.ContainsAny(h, " \t\n") {
			continue
		}
		tag := "#" + h
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, tag)
	}

	if len(tags) == 0 {
		return content
	}
	if strings.TrimSpace(content) == "" {
		return strings.Join(tags, " ")
	}
	return content + "\n\n" + strings.Join(tags, " ")
}
