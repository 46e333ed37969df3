// Package discovery locates the project configuration file.
package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigFileName is the file searched for when no path is given.
const ConfigFileName = ".spec-driven.toml"

// DefaultMaxDepth bounds how many directories are searched, the start
// directory included.
const DefaultMaxDepth = 10

// ErrNotFound indicates that no configuration file was found.
var ErrNotFound = errors.New("config file not found")

// FindConfig looks for name in start and then in each parent directory,
// checking at most maxDepth directories in total. It returns the absolute
// path of the first match.
func FindConfig(start, name string, maxDepth int) (string, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", start, err)
	}

	for level := 0; level < maxDepth; level++ {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		switch {
		case err == nil && !info.IsDir():
			return candidate, nil
		case err != nil && !errors.Is(err, os.ErrNotExist):
			return "", fmt.Errorf("stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%w: no %s in %s or its %d parent directories", ErrNotFound, name, start, maxDepth-1)
}

// Resolve validates an explicitly given config path.
func Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("stat %q: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("config %q is a directory", path)
	}
	return abs, nil
}

// RelOrClean returns path relative to root when it lies inside root, and the
// cleaned path otherwise.
func RelOrClean(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Clean(path)
	}
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Clean(path)
	}
	return rel
}
