package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/carelane/reply-engine/internal/core/domain"
	"github.com/carelane/reply-engine/internal/platform/config"
)

const rateLimiterBurst = 5

type openaiClient struct {
	client      *openai.Client
	model       string
	timeout     time.Duration
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

// NewOpenAI builds a Client backed by the OpenAI chat completions API.
func NewOpenAI(cfg *config.Config, logger *zerolog.Logger) Client {
	return &openaiClient{
		client:      openai.NewClient(cfg.LLMAPIKey),
		model:       cfg.LLMModel,
		timeout:     cfg.LLMRequestTimeout,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RateLimitRPS)), rateLimiterBurst),
		logger:      logger,
	}
}

// complete sends one bounded completion request. Each call carries its
// own deadline so a hung model call surfaces as a row-level failure
// instead of stalling the batch.
func (c *openaiClient) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *openaiClient) ClassifyIntent(ctx context.Context, message string) ([]domain.Intent, error) {
	text, err := c.complete(ctx, classifyPrompt(message), classifyMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("classify intent: %w", err)
	}

	intents := parseIntentLabels(text)
	c.logger.Debug().Int("intents", len(intents)).Msg("classified message")

	return intents, nil
}

func (c *openaiClient) ValidateIntent(ctx context.Context, message string, intents []domain.Intent) (bool, error) {
	text, err := c.complete(ctx, validatePrompt(message, intents), validateMaxTokens)
	if err != nil {
		return false, fmt.Errorf("validate intent: %w", err)
	}

	return parseAffirmation(text), nil
}

func (c *openaiClient) EnhanceResponse(ctx context.Context, draft, sender string) (string, error) {
	text, err := c.complete(ctx, enhancePrompt(draft), enhanceMaxTokens)
	if err != nil {
		return "", fmt.Errorf("enhance response: %w", err)
	}

	return strings.ReplaceAll(strings.TrimSpace(text), domain.SenderPlaceholder, sender), nil
}
