// Package version checks that a behavior-test runner is installed and
// reports which version it is.
package version

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// Info captures a runner version installed on the system.
type Info struct {
	Name    string
	Path    string
	Version string
}

const probeTimeout = 10 * time.Second

var (
	behaveRegex = regexp.MustCompile(`(?i)behave\s+v?(\d+\.\d+(?:\.\d+)?\S*)`)
	godogRegex  = regexp.MustCompile(`(?i)v?(\d+\.\d+(?:\.\d+)?)`)
)

// DetectBehave returns the behave version importable by the given Python
// interpreter by calling `python -m behave --version`.
func DetectBehave(ctx context.Context, python string) (Info, error) {
	path, err := exec.LookPath(python)
	if err != nil {
		return Info{}, err
	}
	out, err := runCommand(ctx, path, "-m", "behave", "--version")
	if err != nil {
		return Info{Name: "behave", Path: path}, fmt.Errorf("behave is not importable by %s: %w", python, err)
	}
	match := behaveRegex.FindStringSubmatch(out)
	if len(match) < 2 {
		return Info{Name: "behave", Path: path}, fmt.Errorf("unable to parse behave version from %q", out)
	}
	return Info{Name: "behave", Path: path, Version: match[1]}, nil
}

// DetectGodog returns the godog version by calling `godog version`.
func DetectGodog(ctx context.Context, godog string) (Info, error) {
	path, err := exec.LookPath(godog)
	if err != nil {
		return Info{}, err
	}
	out, err := runCommand(ctx, path, "version")
	if err != nil {
		return Info{Name: "godog", Path: path}, err
	}
	match := godogRegex.FindStringSubmatch(out)
	if len(match) < 2 {
		return Info{Name: "godog", Path: path}, fmt.Errorf("unable to parse godog version from %q", out)
	}
	return Info{Name: "godog", Path: path, Version: match[1]}, nil
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = nil
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// Missing reports whether the executable could not be found, either on PATH
// or at an explicit path.
func Missing(cmdErr error) bool {
	return errors.Is(cmdErr, exec.ErrNotFound) || errors.Is(cmdErr, fs.ErrNotExist)
}
