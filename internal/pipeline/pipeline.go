// Package pipeline runs one evaluation: invoke the test runner, normalize its
// report, translate failures into behavioral feedback, score the result and
// gate deployment.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/bgricker/specdrive/internal/gate"
	"github.com/bgricker/specdrive/internal/llm"
	"github.com/bgricker/specdrive/internal/normalize"
	"github.com/bgricker/specdrive/internal/obfuscate"
	"github.com/bgricker/specdrive/internal/report"
	"github.com/bgricker/specdrive/internal/score"
)

var tracer = otel.Tracer("specdrive/pipeline")

// Runner produces the raw output of one behavior-test run.
type Runner interface {
	Name() string
	Run(ctx context.Context) (normalize.Raw, error)
}

// Options wire a pipeline together.
type Options struct {
	Runner     Runner
	Normalizer *normalize.Normalizer
	// Generator serves both generative phases; nil forces the fallbacks.
	Generator  llm.Generator
	Thresholds report.ThresholdSet
	// Scoring enables the satisfaction and deployment phases.
	Scoring bool
	Metrics *Metrics
	Logger  *zap.Logger
	// NewID overrides run ID generation.
	NewID func() string
}

// Result is everything one run produced.
type Result struct {
	RunID      string
	Runner     string
	Report     report.EvaluationReport
	Feedback   obfuscate.Feedback
	Evaluation report.Evaluation
}

// Pipeline evaluates a test run. Stages run strictly in sequence.
type Pipeline struct {
	opts       Options
	translator *obfuscate.Translator
	scorer     *score.Scorer
}

// New creates a pipeline from opts.
func New(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Pipeline{
		opts:       opts,
		translator: obfuscate.New(instrument(opts.Generator, PhaseObfuscation, opts.Metrics, opts.Logger), opts.Logger),
		scorer:     score.New(instrument(opts.Generator, PhaseScoring, opts.Metrics, opts.Logger), opts.Logger),
	}
}

// Run executes the pipeline once. Only runner setup problems return an
// error; test failures, timeouts and generative-service errors all end in
// a best-effort Result.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	res := Result{RunID: p.opts.NewID(), Runner: p.opts.Runner.Name()}
	logger := p.opts.Logger.With(zap.String("run_id", res.RunID))

	ctx, span := tracer.Start(ctx, "pipeline.Run")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", res.RunID), attribute.String("runner", res.Runner))

	var raw normalize.Raw
	err := p.stage(ctx, "run", func(ctx context.Context) error {
		var err error
		raw, err = p.opts.Runner.Run(ctx)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, fmt.Errorf("run tests: %w", err)
	}

	_ = p.stage(ctx, "normalize", func(context.Context) error {
		res.Report = p.opts.Normalizer.Normalize(raw)
		return nil
	})
	rep := res.Report
	ev := report.Evaluation{Status: rep.Status, Summary: rep.Summary}
	logger.Info("tests finished",
		zap.String("status", string(rep.Status)),
		zap.Int("passed", rep.Summary.Passed),
		zap.Int("failed", rep.Summary.Failed),
		zap.Int("skipped", rep.Summary.Skipped))

	if rep.HasData() && rep.Summary.Failed > 0 {
		_ = p.stage(ctx, "obfuscate", func(ctx context.Context) error {
			res.Feedback = p.translator.Translate(ctx, rep)
			return nil
		})
		if res.Feedback.Fallback {
			p.opts.Metrics.observeFallback(PhaseObfuscation)
		}
		ev.Feedback = res.Feedback.Text
	}

	if p.opts.Scoring {
		var s report.SatisfactionScore
		_ = p.stage(ctx, "score", func(ctx context.Context) error {
			s = p.scorer.Score(ctx, rep, res.Feedback.Text)
			return nil
		})
		if s.Source == report.SourceFallback {
			p.opts.Metrics.observeFallback(PhaseScoring)
		}
		verdict := gate.Verdict(s, p.opts.Thresholds)
		ev.Score = &s
		ev.Verdict = &verdict
		span.SetAttributes(
			attribute.Float64("score", s.Value),
			attribute.String("score_source", string(s.Source)),
			attribute.String("readiness", string(verdict.Readiness)))
		logger.Info("evaluation complete",
			zap.Float64("score", s.Value),
			zap.String("source", string(s.Source)),
			zap.String("readiness", string(verdict.Readiness)),
			zap.String("tier", string(verdict.Tier)))
	}

	res.Evaluation = ev
	p.opts.Metrics.observeRun(ev)
	return res, nil
}

func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, "stage."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	p.opts.Metrics.observeStage(name, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
