package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bgricker/specdrive/internal/output"
	"github.com/bgricker/specdrive/internal/watch"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the behavior tests and evaluate the generated code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExecute(cmd)
		},
	}

	flags := cmd.Flags()
	flags.String("model", "", "generative model name")
	flags.String("url", "", "generative service base URL")
	flags.String("provider", "", "generative service provider (ollama|openai)")
	flags.String("runner", "", "behavior-test runner (behave|godog)")
	flags.Float64("threshold", 0, "production deployment threshold")
	flags.Bool("no-scoring", false, "skip satisfaction scoring and the deployment gate")
	flags.String("format", "", "output format (pretty|json|yaml)")
	flags.String("metrics-file", "", "write Prometheus metrics in textfile format")
	flags.String("trace-file", "", "write OpenTelemetry spans as JSON")
	flags.Bool("watch", false, "re-run whenever the generated code or tests change")
	flags.Duration("debounce", 500*time.Millisecond, "quiet period before a watch re-run")

	return cmd
}

func (a *app) runExecute(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	renderer, err := output.New(cfg.Output.Format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	s, err := newSession(cmd, cfg, a.logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	_, warnings, err := preflight(ctx, cfg)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		a.logger.Warn(w)
	}

	shutdown, err := startTracing(cfg.Output.TraceFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			a.logger.Warn("flush traces", zap.Error(err))
		}
	}()

	a.logger.Info("running tests",
		zap.String("config", cfg.Path),
		zap.String("test_dir", cfg.Paths.TestDir),
		zap.String("runner", cfg.Test.Runner))

	watchMode, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return err
	}
	if !watchMode {
		return s.evaluate(ctx, renderer, warnings)
	}

	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := watch.New(watch.Options{
		Dirs:     []string{cfg.Paths.GeneratedCodeDir, cfg.Paths.TestDir},
		Debounce: debounce,
		Ignore:   []string{cfg.Test.OutputFile, cfg.Output.MetricsFile, cfg.Output.TraceFile},
		Logger:   a.logger.Named("watch"),
	})
	return w.Run(ctx, func(ctx context.Context) error {
		return s.evaluate(ctx, renderer, warnings)
	})
}
