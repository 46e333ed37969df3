// Package watch re-runs an action whenever files under a set of directories
// change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// skippedDirs are never watched.
var skippedDirs = map[string]bool{
	"__pycache__":   true,
	".git":          true,
	".pytest_cache": true,
	"node_modules":  true,
}

var ignoredSuffixes = []string{".pyc", ".swp", ".swx", "~", ".tmp"}

// Options configure a Watcher.
type Options struct {
	Dirs     []string
	Debounce time.Duration
	// Ignore lists files whose changes never trigger a run, such as the
	// runner's own report file.
	Ignore []string
	Logger *zap.Logger
}

// Watcher triggers an action after a quiet period following file changes.
type Watcher struct {
	opts   Options
	ignore map[string]bool
}

// New creates a Watcher.
func New(opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ignore := make(map[string]bool, len(opts.Ignore))
	for _, p := range opts.Ignore {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		ignore[filepath.Clean(p)] = true
	}
	return &Watcher{opts: opts, ignore: ignore}
}

// Run calls fn once, then again after every debounced burst of changes,
// until ctx is done. An error from fn is logged and watching continues.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context) error) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	for _, dir := range w.opts.Dirs {
		if err := w.addTree(fsw, dir); err != nil {
			return err
		}
	}

	w.invoke(ctx, fn)

	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addTree(fsw, event.Name)
				}
			}
			w.opts.Logger.Debug("change detected", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(w.opts.Debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("watch error", zap.Error(err))
		case <-timer.C:
			w.invoke(ctx, fn)
		}
	}
}

func (w *Watcher) invoke(ctx context.Context, fn func(context.Context) error) {
	if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
		w.opts.Logger.Error("run failed", zap.Error(err))
	}
}

func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skippedDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Name == "" || event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(event.Name)
	if abs, err := filepath.Abs(name); err == nil {
		name = abs
	}
	if w.ignore[name] {
		return false
	}
	base := filepath.Base(name)
	for _, suffix := range ignoredSuffixes {
		if strings.HasSuffix(base, suffix) {
			return false
		}
	}
	for _, part := range strings.Split(name, string(filepath.Separator)) {
		if skippedDirs[part] {
			return false
		}
	}
	return true
}
