package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	config "github.com/maheshrc27/postsync/configs"
	"github.com/maheshrc27/postsync/internal/metrics"
	"github.com/maheshrc27/postsync/internal/transfer"
	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrGatewayUnavailable marks failures that happened before the gateway gave
// any per-platform answer. These are the only publish failures worth retrying.
var ErrGatewayUnavailable = errors.New("gateway unavailable")

const (
	gatewayBreakerName      = "publishing-gateway"
	gatewayBreakerThreshold = 5
)

type PublishingGateway interface {
	Publish(ctx context.Context, req *transfer.GatewayPublishRequest) (*transfer.GatewayPublishResponse, error)
}

type AnalyticsGateway interface {
	PostAnalytics(ctx context.Context, id string, platforms []string) (*transfer.GatewayAnalyticsResponse, error)
}

type GatewayService interface {
	PublishingGateway
	AnalyticsGateway
}

type gatewayService struct {
	client *resty.Client
	cb     *gobreaker.CircuitBreaker[*resty.Response]
}

func NewGatewayService(cfg config.Config) GatewayService {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.Gateway.BaseURL, "/")).
		SetTimeout(cfg.Gateway.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.Gateway.APIKey != "" {
		client.SetAuthToken(cfg.Gateway.APIKey)
	}

	metrics.CircuitBreakerState.WithLabelValues(gatewayBreakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[*resty.Response](gobreaker.Settings{
		Name:        gatewayBreakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= gatewayBreakerThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("gateway circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})

	return &gatewayService{client: client, cb: cb}
}

// call sends one POST through the breaker. Transport errors and 5xx count as
// breaker failures; 4xx bodies are handed back for the caller to interpret.
func (s *gatewayService) call(ctx context.Context, endpoint string, body any) (*resty.Response, error) {
	start := time.Now()

	resp, err := s.cb.Execute(func() (*resty.Response, error) {
		resp, err := s.client.R().
			SetContext(ctx).
			SetBody(body).
			Post(endpoint)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return resp, fmt.Errorf("gateway returned status %d", resp.StatusCode())
		}
		return resp, nil
	})

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.GatewayRequestDuration.WithLabelValues(endpoint, outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return resp, nil
}

func (s *gatewayService) Publish(ctx context.Context, req *transfer.GatewayPublishRequest) (*transfer.GatewayPublishResponse, error) {
	resp, err := s.call(ctx, "/post", req)
	if err != nil {
		return nil, err
	}

	var result transfer.GatewayPublishResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: unreadable publish response (status %d)", ErrGatewayUnavailable, resp.StatusCode())
	}

	return &result, nil
}

func (s *gatewayService) PostAnalytics(ctx context.Context, id string, platforms []string) (*transfer.GatewayAnalyticsResponse, error) {
	if id == "" {
		return nil, errors.New("analytics request without id")
	}

	resp, err := s.call(ctx, "/analytics/post", &transfer.GatewayAnalyticsRequest{ID: id, Platforms: platforms})
	if err != nil {
		return nil, err
	}

	var result transfer.GatewayAnalyticsResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: unreadable analytics response (status %d)", ErrGatewayUnavailable, resp.StatusCode())
	}

	if resp.IsError() || (result.Status == "error" && len(result.Analytics) == 0) {
		return nil, fmt.Errorf("analytics request rejected (status %d)", resp.StatusCode())
	}

	return &result, nil
}
