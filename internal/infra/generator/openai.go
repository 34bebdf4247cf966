package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"claim-navigator/internal/resilience/circuitbreaker"
	"claim-navigator/internal/resilience/retry"
)

// LoadOpenAIConfig loads OpenAI generation settings from the
// environment. Returns an error on invalid configuration.
func LoadOpenAIConfig() (*Config, error) {
	config := &Config{
		WordLimit: loadWordLimit(),
		Model:     openai.GPT4oMini,
		MaxTokens: 2048,
		Timeout:   120 * time.Second,
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid OpenAI generator configuration: %w", err)
	}
	return config, nil
}

// OpenAI implements LetterGenerator using the OpenAI chat completion
// API, wrapped in circuit breaker and retry logic.
type OpenAI struct {
	client         *openai.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	config         Config
	metrics        LetterMetricsRecorder
}

// NewOpenAI creates an OpenAI letter generator with the given API key.
func NewOpenAI(apiKey string) (*OpenAI, error) {
	config, err := LoadOpenAIConfig()
	if err != nil {
		return nil, err
	}

	slog.Info("Initialized OpenAI letter generator",
		slog.Int("word_limit", config.WordLimit),
		slog.String("model", config.Model))

	return &OpenAI{
		client:         openai.NewClient(apiKey),
		circuitBreaker: circuitbreaker.New(circuitbreaker.GeneratorAPIConfig()),
		retryConfig:    retry.GeneratorAPIConfig(),
		config:         *config,
		metrics:        NewPrometheusLetterMetrics(),
	}, nil
}

// Generate drafts an appeal letter using OpenAI.
func (o *OpenAI) Generate(ctx context.Context, req LetterRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("invalid letter request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	var result string
	retryErr := retry.WithBackoff(ctx, o.retryConfig, func() error {
		cbResult, err := o.circuitBreaker.Execute(func() (interface{}, error) {
			return o.doGenerate(ctx, req)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("openai api circuit breaker open, request rejected",
					slog.String("service", "openai-api"),
					slog.String("state", o.circuitBreaker.State().String()))
				return fmt.Errorf("openai api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		return "", fmt.Errorf("openai letter generation failed after retries: %w", retryErr)
	}
	return result, nil
}

func (o *OpenAI) doGenerate(ctx context.Context, req LetterRequest) (string, error) {
	prompt := buildPrompt(req, o.config.WordLimit)
	start := time.Now()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.config.Model,
		MaxTokens: o.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You draft professional insurance claim appeal letters.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})

	duration := time.Since(start)

	if err != nil {
		o.metrics.RecordGeneration("openai", "failure", duration)
		slog.ErrorContext(ctx, "Letter generation failed",
			slog.String("claim_number", req.ClaimNumber),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		o.metrics.RecordGeneration("openai", "failure", duration)
		return "", fmt.Errorf("openai api returned no choices")
	}

	letter := resp.Choices[0].Message.Content
	o.metrics.RecordGeneration("openai", "success", duration)
	o.metrics.RecordLetterLength(len(letter))

	slog.InfoContext(ctx, "Letter generation completed",
		slog.String("claim_number", req.ClaimNumber),
		slog.Int("letter_chars", len(letter)),
		slog.Duration("duration", duration))

	return letter, nil
}
