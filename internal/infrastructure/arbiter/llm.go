// Package arbiter breaks candidate ties that scoring cannot separate.
// The model only ever picks from the pre-filtered shortlist; it can never
// introduce a candidate of its own.
package arbiter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/nutriground/backend/config"
	"github.com/nutriground/backend/internal/domain"
)

const systemPrompt = "You match food ingredient names to database descriptions. " +
	"Reply with only the number of the best-matching option. No explanation."

// chatRequest is the OpenAI-compatible chat completion payload.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Client asks an OpenAI-compatible chat endpoint to pick among near-tied
// candidates. All failures collapse to ErrArbiterUnavailable; the caller
// decides what a missing arbiter means.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
	model  string
}

func NewClient(cfg config.ArbiterConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:   httpClient,
		logger: logger,
		model:  cfg.Model,
	}
}

// Choose returns the index of the best candidate for the query. The reply
// is parsed strictly: anything that is not a listed option number is an
// error, never a guess.
func (c *Client) Choose(ctx context.Context, query string, candidates []domain.FoodCandidate) (int, error) {
	if len(candidates) == 0 {
		return 0, fmt.Errorf("%w: no candidates", domain.ErrArbiterUnavailable)
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Ingredient: %q\n\nOptions:\n", query)
	for i, candidate := range candidates {
		fmt.Fprintf(&prompt, "%d. %s (%s)\n", i+1, candidate.Description, candidate.DataType)
	}
	prompt.WriteString("\nWhich option matches best? Reply with the number only.")

	var parsed chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model: c.model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: prompt.String()},
			},
			MaxTokens:   8,
			Temperature: 0,
		}).
		SetResult(&parsed).
		Post("/chat/completions")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrArbiterUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", domain.ErrArbiterUnavailable, resp.StatusCode())
	}
	if len(parsed.Choices) == 0 {
		return 0, fmt.Errorf("%w: empty response", domain.ErrArbiterUnavailable)
	}

	answer := strings.TrimSpace(parsed.Choices[0].Message.Content)
	answer = strings.TrimSuffix(answer, ".")
	choice, err := strconv.Atoi(answer)
	if err != nil || choice < 1 || choice > len(candidates) {
		c.logger.Warn("arbiter reply not a listed option",
			zap.String("query", query), zap.String("reply", answer))
		return 0, fmt.Errorf("%w: unparseable reply %q", domain.ErrArbiterUnavailable, answer)
	}
	return choice - 1, nil
}
