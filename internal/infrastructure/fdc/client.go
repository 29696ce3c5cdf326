package fdc

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nutriground/backend/config"
	"github.com/nutriground/backend/internal/domain"
)

const (
	searchPath = "/v1/foods/search"
	// FNDDS and SR Legacy carry curated generic foods; Branded covers
	// packaged products. Foundation overlaps SR Legacy for our purposes.
	searchDataTypes = "Survey (FNDDS),SR Legacy,Branded"
	maxAttempts     = 3
	retryBaseDelay  = 500 * time.Millisecond
)

// Client talks to the FoodData Central search API. It rate-limits itself
// below the API quota and retries transient failures; callers see either
// candidates or ErrSearchUnavailable.
type Client struct {
	http     *resty.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
	apiKey   string
	pageSize int
}

// NewClient creates an FDC search client from config. The quota is
// spread evenly across the hour with a small burst allowance.
func NewClient(cfg config.FDCConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	perHour := cfg.RequestsPerHour
	if perHour <= 0 {
		perHour = 1000
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(30 * time.Second).
		SetHeader("User-Agent", "NutriGround/1.0")

	return &Client{
		http:     httpClient,
		limiter:  rate.NewLimiter(rate.Limit(float64(perHour)/3600.0), 10),
		logger:   logger,
		apiKey:   cfg.APIKey,
		pageSize: pageSize,
	}
}

// Search returns candidate foods for a normalized query. An empty result
// is not an error; the matcher decides what "no results" means.
func (c *Client) Search(ctx context.Context, query string) ([]domain.FoodCandidate, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrSearchUnavailable, err)
		}

		var envelope domain.SearchResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"query":    query,
				"api_key":  c.apiKey,
				"dataType": searchDataTypes,
				"pageSize": strconv.Itoa(c.pageSize),
			}).
			SetResult(&envelope).
			Get(searchPath)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", domain.ErrSearchUnavailable, err)
			c.logger.Warn("food search request failed",
				zap.String("query", query), zap.Int("attempt", attempt), zap.Error(err))
			if attempt < maxAttempts {
				c.backoff(ctx, attempt)
			}
			continue
		}

		switch {
		case resp.StatusCode() == http.StatusOK:
			return envelope.Foods, nil
		case resp.StatusCode() == http.StatusNotFound:
			return nil, nil
		case resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500:
			lastErr = fmt.Errorf("%w: status %d", domain.ErrSearchUnavailable, resp.StatusCode())
			c.logger.Warn("food search returned retryable status",
				zap.String("query", query), zap.Int("attempt", attempt), zap.Int("status", resp.StatusCode()))
			if attempt < maxAttempts {
				c.backoff(ctx, attempt)
			}
			continue
		default:
			return nil, fmt.Errorf("%w: status %d", domain.ErrSearchUnavailable, resp.StatusCode())
		}
	}
	return nil, lastErr
}

func (c *Client) backoff(ctx context.Context, attempt int) {
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(attempt) * retryBaseDelay):
	}
}
