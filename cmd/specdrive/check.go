package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newCheckCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and the test runner installation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCheck(cmd)
		},
	}

	flags := cmd.Flags()
	flags.String("model", "", "generative model name")
	flags.String("url", "", "generative service base URL")
	flags.String("provider", "", "generative service provider (ollama|openai)")
	flags.String("runner", "", "behavior-test runner (behave|godog)")
	flags.Float64("threshold", 0, "production deployment threshold")
	flags.Bool("no-scoring", false, "skip satisfaction scoring and the deployment gate")

	return cmd
}

func (a *app) runCheck(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	info, warnings, err := preflight(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config: %s\n", cfg.Path)
	if info.Version != "" {
		fmt.Fprintf(out, "Runner: %s %s (%s)\n", info.Name, info.Version, info.Path)
	}
	for _, w := range warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("warning: %s", w))
	}
	fmt.Fprintln(out)

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	a.logger.Debug("configuration ok", zap.String("path", cfg.Path))
	return nil
}
