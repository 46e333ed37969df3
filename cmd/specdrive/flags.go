package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bgricker/specdrive/internal/config"
)

func gatherFlags(cmd *cobra.Command) (config.FlagValues, error) {
	flags := cmd.Flags()
	var values config.FlagValues

	strs := []struct {
		name string
		dst  *config.StringFlag
	}{
		{"model", &values.Model},
		{"url", &values.URL},
		{"provider", &values.Provider},
		{"runner", &values.Runner},
		{"format", &values.Format},
		{"metrics-file", &values.MetricsFile},
		{"trace-file", &values.TraceFile},
	}
	for _, s := range strs {
		if !flags.Changed(s.name) {
			continue
		}
		v, err := flags.GetString(s.name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", s.name, err)
		}
		*s.dst = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("threshold") {
		v, err := flags.GetFloat64("threshold")
		if err != nil {
			return values, fmt.Errorf("parse --threshold: %w", err)
		}
		values.Threshold = config.FloatFlag{Value: v, Set: true}
	}

	if flags.Changed("no-scoring") {
		v, err := flags.GetBool("no-scoring")
		if err != nil {
			return values, fmt.Errorf("parse --no-scoring: %w", err)
		}
		values.NoScoring = config.BoolFlag{Value: v, Set: true}
	}

	if flags.Changed("verbose") {
		v, err := flags.GetBool("verbose")
		if err != nil {
			return values, fmt.Errorf("parse --verbose: %w", err)
		}
		values.Verbose = config.BoolFlag{Value: v, Set: true}
	}

	return values, nil
}
