package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app carries state shared by every subcommand of one invocation.
type app struct {
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	cmd := &cobra.Command{
		Use:           "specdrive",
		Short:         "Specdrive evaluates generated code against behavior tests",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return fmt.Errorf("parse --verbose: %w", err)
			}
			a.logger = newLogger(cmd, verbose)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	persistent := cmd.PersistentFlags()
	persistent.StringP("config", "c", "", "path to .spec-driven.toml (default: search upwards)")
	persistent.BoolP("verbose", "v", false, "debug logging and live test runner output")

	cmd.AddCommand(newRunCmd(a))
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newCheckCmd(a))

	return cmd
}

// newLogger writes console-encoded entries to the command's error stream.
func newLogger(cmd *cobra.Command, verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(cmd.ErrOrStderr())),
		level,
	)
	return zap.New(core)
}
