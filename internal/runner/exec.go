// Package runner invokes a behavior-test runner as a subprocess and collects
// the structured report it writes.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bgricker/specdrive/internal/normalize"
)

// Supported runner kinds.
const (
	KindBehave = "behave"
	KindGodog  = "godog"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultTailLines = 40
	waitDelay        = 2 * time.Second
)

var (
	// ErrRunnerNotFound means the runner executable is not on PATH.
	ErrRunnerNotFound = errors.New("test runner not found")
	// ErrUnknownRunner means the configured runner kind is not supported.
	ErrUnknownRunner = errors.New("unknown test runner")
)

// Options configure a runner invocation.
type Options struct {
	// Root is the working directory of the subprocess.
	Root string
	Kind string
	// Python is the interpreter used to launch behave.
	Python string
	// Godog is the godog executable.
	Godog   string
	TestDir string
	// OutputFile is where the runner writes its structured report.
	OutputFile string
	// Format is the behave formatter, json or json.pretty.
	Format    string
	Timeout   time.Duration
	TailLines int
	Env       []string
	ExtraEnv  map[string]string
	// Stdout and Stderr receive a live copy of the runner output when Verbose is set.
	Stdout  io.Writer
	Stderr  io.Writer
	Verbose bool
	Logger  *zap.Logger
}

// Runner executes one test-runner invocation per Run call.
type Runner struct {
	opts Options
}

// New creates a runner with the supplied options.
func New(opts Options) *Runner {
	if opts.Kind == "" {
		opts.Kind = KindBehave
	}
	if opts.Python == "" {
		opts.Python = "python3"
	}
	if opts.Godog == "" {
		opts.Godog = "godog"
	}
	if opts.Format == "" {
		opts.Format = "json.pretty"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.TailLines <= 0 {
		opts.TailLines = defaultTailLines
	}
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Runner{opts: opts}
}

// Name returns the runner kind.
func (r *Runner) Name() string {
	return r.opts.Kind
}

// Command returns the argv used to invoke the runner.
func (r *Runner) Command() ([]string, error) {
	switch r.opts.Kind {
	case KindBehave:
		return []string{
			r.opts.Python, "-m", "behave", r.opts.TestDir,
			"--format=" + r.opts.Format,
			"--outfile=" + r.opts.OutputFile,
		}, nil
	case KindGodog:
		return []string{
			r.opts.Godog, "run",
			"--format=cucumber:" + r.opts.OutputFile,
			r.opts.TestDir,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRunner, r.opts.Kind)
	}
}

// Run deletes any stale report, invokes the runner and returns what it left
// behind. Test failures, crashes and timeouts are reported through the
// returned Raw; only setup problems (missing executable, unremovable stale
// report, start failure) return an error.
func (r *Runner) Run(ctx context.Context) (normalize.Raw, error) {
	argv, err := r.Command()
	if err != nil {
		return normalize.Raw{}, err
	}
	exe, err := exec.LookPath(argv[0])
	if err != nil {
		return normalize.Raw{}, fmt.Errorf("%w: %s: %w", ErrRunnerNotFound, argv[0], err)
	}

	if err := removeStale(r.opts.OutputFile); err != nil {
		return normalize.Raw{}, err
	}
	if dir := filepath.Dir(r.opts.OutputFile); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return normalize.Raw{}, fmt.Errorf("create report directory: %w", err)
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, exe, argv[1:]...)
	cmd.Dir = r.opts.Root
	cmd.Env = mergeEnv(r.opts.Env, r.opts.ExtraEnv)
	cmd.WaitDelay = waitDelay

	var stdoutBuf, stderrBuf strings.Builder
	if r.opts.Verbose {
		cmd.Stdout = io.MultiWriter(r.opts.Stdout, &stdoutBuf)
		cmd.Stderr = io.MultiWriter(r.opts.Stderr, &stderrBuf)
	} else {
		cmd.Stdout = &stdoutBuf
		cmd.Stderr = &stderrBuf
	}

	r.opts.Logger.Info("running tests",
		zap.String("runner", r.opts.Kind),
		zap.String("test_dir", r.opts.TestDir),
		zap.Duration("timeout", r.opts.Timeout))

	start := time.Now()
	runErr := cmd.Run()
	raw := normalize.Raw{
		Stdout:   tailLines(stdoutBuf.String(), r.opts.TailLines),
		Stderr:   tailLines(stderrBuf.String(), r.opts.TailLines),
		ExitCode: exitCode(runErr),
		Duration: time.Since(start),
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		r.opts.Logger.Warn("test runner timed out", zap.Duration("timeout", r.opts.Timeout))
		raw.TimedOut = true
		return raw, nil
	}
	if err := ctx.Err(); err != nil {
		return raw, err
	}
	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		return raw, fmt.Errorf("start %s: %w", r.opts.Kind, runErr)
	}

	data, err := os.ReadFile(r.opts.OutputFile)
	switch {
	case err == nil:
		raw.Data = data
	case errors.Is(err, os.ErrNotExist):
		r.opts.Logger.Warn("test runner wrote no report", zap.String("path", r.opts.OutputFile), zap.Int("exit_code", raw.ExitCode))
	default:
		raw.Stderr = strings.TrimRight(raw.Stderr+"\n"+err.Error(), "\n")
	}

	r.opts.Logger.Debug("test runner finished", zap.Int("exit_code", raw.ExitCode), zap.Duration("duration", raw.Duration))
	return raw, nil
}

func removeStale(path string) error {
	if path == "" {
		return errors.New("runner output file not set")
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale report %s: %w", path, err)
	}
	return nil
}

func mergeEnv(base []string, overlays ...map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(overlays)*4)
	for _, kv := range base {
		if idx := strings.Index(kv, "="); idx != -1 {
			envMap[kv[:idx]] = kv[idx+1:]
		}
	}
	for _, overlay := range overlays {
		for k, v := range overlay {
			envMap[k] = v
		}
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%s", k, envMap[k]))
	}
	return out
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

func tailLines(input string, maxLines int) string {
	if input == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(input, "\n"), "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}
