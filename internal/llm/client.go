// Package llm provides the generative text capability used by the
// obfuscation and scoring phases. Callers branch on ErrUnavailable and
// ErrMalformed with errors.Is, never on transport details.
package llm

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable reports that the service could not be reached, timed
	// out, or answered with a non-success status.
	ErrUnavailable = errors.New("generative service unavailable")
	// ErrMalformed reports that the service answered but the body held no
	// usable text.
	ErrMalformed = errors.New("generative service returned malformed response")
)

// Generator turns a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Options configure a network-backed generator.
type Options struct {
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
	APIKey      string
}

const (
	defaultTimeout     = 20 * time.Second
	defaultTemperature = 0.3
	defaultMaxTokens   = 2000
)

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Temperature < 0 {
		o.Temperature = defaultTemperature
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = defaultMaxTokens
	}
	return o
}
