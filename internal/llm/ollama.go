package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("specdrive/llm")

// GeneratePath is appended to the configured base URL for every request.
const GeneratePath = "/api/generate"

// OllamaClient talks to an Ollama-compatible /api/generate endpoint.
type OllamaClient struct {
	httpClient *http.Client
	opts       Options
	logger     *zap.Logger
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

// generateOptions carries max_tokens for OpenAI-style shims and num_predict,
// which is the name Ollama itself reads.
type generateOptions struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Thinking string `json:"thinking"`
	Done     bool   `json:"done"`
}

// NewOllamaClient creates a client for the given options. A nil logger is
// replaced by a no-op logger.
func NewOllamaClient(opts Options, logger *zap.Logger) *OllamaClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	return &OllamaClient{
		httpClient: &http.Client{},
		opts:       opts,
		logger:     logger,
	}
}

// Generate posts a single non-streaming generate request. The call is
// bounded by the configured timeout and never retried.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "OllamaClient.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.opts.Model), attribute.Int("llm.prompt_bytes", len(prompt)))

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	text, err := c.generate(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug("generate failed", zap.String("model", c.opts.Model), zap.Error(err))
		return "", err
	}
	c.logger.Debug("generate succeeded", zap.String("model", c.opts.Model), zap.Int("response_bytes", len(text)))
	return text, nil
}

func (c *OllamaClient) generate(ctx context.Context, prompt string) (string, error) {
	payload := generateRequest{
		Model:  c.opts.Model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: c.opts.Temperature,
			MaxTokens:   c.opts.MaxTokens,
			NumPredict:  c.opts.MaxTokens,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+GeneratePath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %w", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, truncate(string(data), 200))
	}

	var decoded generateResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrMalformed, err)
	}

	text := decoded.Response
	if strings.TrimSpace(text) == "" {
		text = decoded.Thinking
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty response", ErrMalformed)
	}
	return text, nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
