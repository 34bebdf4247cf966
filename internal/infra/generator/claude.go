package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"claim-navigator/internal/resilience/circuitbreaker"
	"claim-navigator/internal/resilience/retry"
)

// LoadClaudeConfig loads Claude generation settings from the
// environment with warn-and-default semantics.
func LoadClaudeConfig() Config {
	return Config{
		WordLimit: loadWordLimit(),
		Model:     string(anthropic.ModelClaudeSonnet4_5_20250929),
		MaxTokens: 2048,
		Timeout:   120 * time.Second,
	}
}

// Claude implements LetterGenerator using Anthropic's Claude API,
// wrapped in circuit breaker and retry logic.
type Claude struct {
	client         anthropic.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	config         Config
	metrics        LetterMetricsRecorder
}

// NewClaude creates a Claude letter generator with the given API key.
func NewClaude(apiKey string) *Claude {
	config := LoadClaudeConfig()

	slog.Info("Initialized Claude letter generator",
		slog.Int("word_limit", config.WordLimit),
		slog.String("model", config.Model))

	return &Claude{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		circuitBreaker: circuitbreaker.New(circuitbreaker.GeneratorAPIConfig()),
		retryConfig:    retry.GeneratorAPIConfig(),
		config:         config,
		metrics:        NewPrometheusLetterMetrics(),
	}
}

// Generate drafts an appeal letter using Claude.
func (c *Claude) Generate(ctx context.Context, req LetterRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("invalid letter request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var result string
	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doGenerate(ctx, req)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("claude api circuit breaker open, request rejected",
					slog.String("service", "claude-api"),
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("claude api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		return "", fmt.Errorf("claude letter generation failed after retries: %w", retryErr)
	}
	return result, nil
}

// doGenerate performs the actual API call without retry or circuit
// breaker.
func (c *Claude) doGenerate(ctx context.Context, req LetterRequest) (string, error) {
	requestID := uuid.New().String()
	prompt := buildPrompt(req, c.config.WordLimit)

	slog.InfoContext(ctx, "Starting letter generation",
		slog.String("request_id", requestID),
		slog.String("claim_number", req.ClaimNumber),
		slog.Int("word_limit", c.config.WordLimit))

	start := time.Now()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
	})

	duration := time.Since(start)

	if err != nil {
		c.metrics.RecordGeneration("claude", "failure", duration)
		slog.ErrorContext(ctx, "Letter generation failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("claude api error: %w", err)
	}

	if len(message.Content) == 0 {
		c.metrics.RecordGeneration("claude", "failure", duration)
		return "", fmt.Errorf("claude api returned empty response")
	}

	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		c.metrics.RecordGeneration("claude", "failure", duration)
		return "", fmt.Errorf("claude api returned unexpected response type")
	}

	letter := textBlock.Text
	c.metrics.RecordGeneration("claude", "success", duration)
	c.metrics.RecordLetterLength(len(letter))

	slog.InfoContext(ctx, "Letter generation completed",
		slog.String("request_id", requestID),
		slog.Int("letter_chars", len(letter)),
		slog.Duration("duration", duration))

	return letter, nil
}
