package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bgricker/specdrive/internal/config"
	"github.com/bgricker/specdrive/internal/discovery"
	"github.com/bgricker/specdrive/internal/llm"
	"github.com/bgricker/specdrive/internal/normalize"
	"github.com/bgricker/specdrive/internal/output"
	"github.com/bgricker/specdrive/internal/pipeline"
	"github.com/bgricker/specdrive/internal/provider"
	"github.com/bgricker/specdrive/internal/provider/behave"
	"github.com/bgricker/specdrive/internal/provider/cucumber"
	"github.com/bgricker/specdrive/internal/provider/filter"
	"github.com/bgricker/specdrive/internal/runner"
	"github.com/bgricker/specdrive/internal/version"
)

// codeDirEnv tells step definitions where the generated implementation lives.
const codeDirEnv = "SPEC_DRIVEN_CODE_DIR"

// loadConfig reads the config named by --config or discovered from the
// working directory, overlays flags and validates the result.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	explicit, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("parse --config: %w", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, fmt.Errorf("determine working directory: %w", err)
	}

	cfg, err := config.LoadFrom(explicit, wd)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return config.Config{}, fmt.Errorf("%w; run `specdrive init` to create %s", err, discovery.ConfigFileName)
		}
		return config.Config{}, err
	}

	flags, err := gatherFlags(cmd)
	if err != nil {
		return config.Config{}, err
	}
	config.ApplyFlags(&cfg, flags)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// session is one wired evaluation pipeline.
type session struct {
	cfg      config.Config
	runner   *runner.Runner
	pipeline *pipeline.Pipeline
	registry *prometheus.Registry
	logger   *zap.Logger
}

func newSession(cmd *cobra.Command, cfg config.Config, logger *zap.Logger) (*session, error) {
	decoder, err := decoderFor(cfg.Test.Runner)
	if err != nil {
		return nil, err
	}
	quarantine, err := filter.Compile(cfg.Test.Quarantine)
	if err != nil {
		return nil, fmt.Errorf("[test] quarantine: %w", err)
	}

	r := runner.New(runner.Options{
		Root:       cfg.Dir(),
		Kind:       cfg.Test.Runner,
		Python:     cfg.Test.Python,
		Godog:      cfg.Test.Godog,
		TestDir:    cfg.Paths.TestDir,
		OutputFile: cfg.Test.OutputFile,
		Format:     cfg.Test.OutputFormat,
		Timeout:    cfg.TestTimeout(),
		ExtraEnv:   runnerEnv(cfg),
		Stdout:     cmd.ErrOrStderr(),
		Stderr:     cmd.ErrOrStderr(),
		Verbose:    cfg.Verbose,
		Logger:     logger.Named("runner"),
	})

	reg := prometheus.NewRegistry()
	p := pipeline.New(pipeline.Options{
		Runner:     r,
		Normalizer: normalize.New(decoder, quarantine),
		Generator:  newGenerator(cfg, logger.Named("llm")),
		Thresholds: cfg.Thresholds(),
		Scoring:    cfg.Wrapper.UseSatisfactionScoring,
		Metrics:    pipeline.MustNewMetrics(reg),
		Logger:     logger,
	})

	return &session{cfg: cfg, runner: r, pipeline: p, registry: reg, logger: logger}, nil
}

func decoderFor(kind string) (provider.Decoder, error) {
	switch kind {
	case config.RunnerBehave:
		return behave.NewDecoder(), nil
	case config.RunnerGodog:
		return cucumber.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("%w: %q", runner.ErrUnknownRunner, kind)
	}
}

func newGenerator(cfg config.Config, logger *zap.Logger) llm.Generator {
	opts := llm.Options{
		BaseURL:     cfg.LLM.URL,
		Model:       cfg.LLM.Model,
		Timeout:     cfg.LLMTimeout(),
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		APIKey:      cfg.APIKey(),
	}
	if cfg.LLM.Provider == config.ProviderOpenAI {
		return llm.NewOpenAIClient(opts, logger)
	}
	return llm.NewOllamaClient(opts, logger)
}

func runnerEnv(cfg config.Config) map[string]string {
	env := map[string]string{codeDirEnv: cfg.Paths.GeneratedCodeDir}
	if cfg.Test.Runner == config.RunnerBehave {
		pythonPath := cfg.Paths.GeneratedCodeDir
		if existing := os.Getenv("PYTHONPATH"); existing != "" {
			pythonPath += string(os.PathListSeparator) + existing
		}
		env["PYTHONPATH"] = pythonPath
	}
	return env
}

// preflight checks the runner installation. A missing executable is a setup
// error; anything else only produces warnings.
func preflight(ctx context.Context, cfg config.Config) (version.Info, []string, error) {
	var (
		info version.Info
		err  error
	)
	switch cfg.Test.Runner {
	case config.RunnerGodog:
		info, err = version.DetectGodog(ctx, cfg.Test.Godog)
	default:
		info, err = version.DetectBehave(ctx, cfg.Test.Python)
	}
	if err == nil {
		return info, nil, nil
	}
	if version.Missing(err) {
		exe := cfg.Test.Python
		if cfg.Test.Runner == config.RunnerGodog {
			exe = cfg.Test.Godog
		}
		return info, nil, fmt.Errorf("%w: %s", runner.ErrRunnerNotFound, exe)
	}
	return info, []string{fmt.Sprintf("%s version could not be detected: %v", cfg.Test.Runner, err)}, nil
}

// evaluate runs the pipeline once and renders the outcome.
func (s *session) evaluate(ctx context.Context, renderer output.Renderer, warnings []string) error {
	res, err := s.pipeline.Run(ctx)
	if err != nil {
		return err
	}

	rep := output.Report{
		RunID:             res.RunID,
		Runner:            res.Runner,
		Project:           s.cfg.Project.Name,
		FeedbackGenerated: res.Evaluation.Feedback != "" && !res.Feedback.Fallback,
		Warnings:          warnings,
		Evaluation:        res.Evaluation,
	}
	if err := renderer.Render(rep); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if path := s.cfg.Output.MetricsFile; path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create metrics directory: %w", err)
		}
		if err := pipeline.WriteTextfile(path, s.registry); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		s.logger.Debug("metrics written", zap.String("path", path))
	}
	return nil
}
