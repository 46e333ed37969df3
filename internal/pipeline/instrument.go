package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/bgricker/specdrive/internal/llm"
)

// Generative phases.
const (
	PhaseObfuscation = "obfuscation"
	PhaseScoring     = "scoring"
)

// instrumented wraps a Generator to record the outcome of every call under
// one phase label.
type instrumented struct {
	next    llm.Generator
	phase   string
	metrics *Metrics
	logger  *zap.Logger
}

func instrument(next llm.Generator, phase string, metrics *Metrics, logger *zap.Logger) llm.Generator {
	if next == nil {
		return nil
	}
	return &instrumented{next: next, phase: phase, metrics: metrics, logger: logger}
}

func (g *instrumented) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "generate."+g.phase)
	defer span.End()

	start := time.Now()
	text, err := g.next.Generate(ctx, prompt)
	elapsed := time.Since(start)

	g.metrics.observeCall(g.phase, err)
	span.SetAttributes(attribute.String("phase", g.phase), attribute.String("outcome", outcome(err)))
	g.logger.Debug("generative call", zap.String("phase", g.phase), zap.Duration("elapsed", elapsed), zap.Error(err))
	return text, err
}
