// Package score derives a satisfaction score from a test report and the
// behavioral feedback written about it.
package score

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bgricker/specdrive/internal/llm"
	"github.com/bgricker/specdrive/internal/report"
)

// Fixed rationales for the paths that never reach the generative service.
const (
	AllPassedRationale = "All scenarios passed"
	NoDataRationale    = "no scenarios evaluated"
)

// Scorer asks a generative service to judge a report. Its zero-failure and
// zero-scenario paths never call the service.
type Scorer struct {
	gen    llm.Generator
	logger *zap.Logger
}

// New creates a Scorer. A nil generator always scores by pass rate.
func New(gen llm.Generator, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{gen: gen, logger: logger}
}

// Score returns the satisfaction score for rep. It never fails; generative
// errors and unparseable answers fall back to the pass rate.
func (s *Scorer) Score(ctx context.Context, rep report.EvaluationReport, feedback string) report.SatisfactionScore {
	sum := rep.Summary
	if sum.Total == 0 {
		return report.SatisfactionScore{Value: 0, Rationale: NoDataRationale, Source: report.SourceNoData}
	}
	if sum.Failed == 0 {
		return report.SatisfactionScore{Value: 1, Rationale: AllPassedRationale, Source: report.SourceFixed}
	}

	if s.gen == nil {
		return passRateFallback(sum)
	}

	s.logger.Info("evaluating satisfaction", zap.Int("passed", sum.Passed), zap.Int("failed", sum.Failed), zap.Int("skipped", sum.Skipped))
	text, err := s.gen.Generate(ctx, BuildPrompt(sum, feedback))
	if err != nil {
		s.logger.Warn("scoring failed, using pass rate", zap.Error(err))
		return passRateFallback(sum)
	}

	result, ok := Parse(text)
	if !ok {
		s.logger.Warn("could not parse score response, using pass rate", zap.String("response", clip(text, 200)))
		return passRateFallback(sum)
	}
	if result.Value < 0 || result.Value > 1 {
		s.logger.Warn("generative score outside [0,1] passed through unchanged", zap.Float64("score", result.Value))
	}
	return result
}

func passRateFallback(sum report.EvaluationSummary) report.SatisfactionScore {
	rate := sum.PassRate()
	return report.SatisfactionScore{
		Value:     rate,
		Rationale: fmt.Sprintf("Used pass rate (%.1f%%) as fallback score", rate*100),
		Source:    report.SourceFallback,
	}
}

// BuildPrompt renders the scoring prompt from the counts and the feedback.
func BuildPrompt(sum report.EvaluationSummary, feedback string) string {
	var b strings.Builder
	b.WriteString("You are evaluating the behavioral satisfaction of a software implementation.\n\n")
	b.WriteString("Context:\n")
	fmt.Fprintf(&b, "- Total scenarios: %d\n", sum.Total)
	fmt.Fprintf(&b, "- Passed: %d\n", sum.Passed)
	fmt.Fprintf(&b, "- Failed: %d\n", sum.Failed)
	fmt.Fprintf(&b, "- Skipped: %d\n", sum.Skipped)
	fmt.Fprintf(&b, "- Pass rate: %.1f%%\n\n", sum.PassRate()*100)
	b.WriteString("Behavioral feedback:\n")
	b.WriteString(strings.TrimSpace(feedback))
	b.WriteString("\n\n")
	b.WriteString(`Judge how well the implementation satisfies the specified behavior. Weigh the
severity of the failures, not only their number.

Return your response in this JSON format:
{
  "score": 0.XX,
  "reasoning": "Brief explanation of why this score was given"
}

Consider:
- 0.0-0.3: Major issues, needs significant rework (most tests failing)
- 0.3-0.7: Partially working, moderate improvements needed (mixed results)
- 0.7-0.9: Mostly correct, minor issues (most tests passing, edge cases failing)
- 0.9-1.0: Excellent, deployment-ready (minor or no issues)

The score must be between 0.0 and 1.0. Return ONLY the JSON, nothing else.
`)
	return b.String()
}

func clip(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
