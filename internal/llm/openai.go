package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint
// (OpenAI itself, vLLM, LM Studio, llama.cpp server).
type OpenAIClient struct {
	client *openai.Client
	opts   Options
	logger *zap.Logger
}

// NewOpenAIClient creates a chat completions client. BaseURL must include the
// API version prefix, e.g. http://localhost:8000/v1.
func NewOpenAIClient(opts Options, logger *zap.Logger) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		opts:   opts,
		logger: logger,
	}
}

// Generate sends the prompt as a single user message.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "OpenAIClient.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.opts.Model), attribute.Int("llm.prompt_bytes", len(prompt)))

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(c.opts.Temperature),
		MaxTokens:   c.opts.MaxTokens,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		err = classifyOpenAIError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug("chat completion failed", zap.String("model", c.opts.Model), zap.Error(err))
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrMalformed)
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty response", ErrMalformed)
	}
	c.logger.Debug("chat completion succeeded", zap.String("model", c.opts.Model), zap.String("finish_reason", string(resp.Choices[0].FinishReason)))
	return text, nil
}

// classifyOpenAIError maps client errors onto the package sentinels. A body
// that could not be decoded is malformed; everything else is unavailability.
func classifyOpenAIError(err error) error {
	var reqErr *openai.RequestError
	var apiErr *openai.APIError
	switch {
	case errors.As(err, &apiErr), errors.As(err, &reqErr):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	case strings.Contains(err.Error(), "unmarshal"), strings.Contains(err.Error(), "invalid character"):
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	default:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}
