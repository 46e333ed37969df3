package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bgricker/specdrive/internal/config"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a template .spec-driven.toml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInit,
	}
	cmd.Flags().Bool("force", false, "overwrite an existing config file")
	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("parse --force: %w", err)
	}

	var dir string
	if len(args) == 1 {
		dir = args[0]
	} else {
		if dir, err = os.Getwd(); err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
	}

	path, err := config.WriteTemplate(dir, force)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, color.GreenString("Created %s", path))
	fmt.Fprintln(out, "Edit [paths] and [llm] to match your project, then run `specdrive run`.")
	return nil
}
