package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestFindConfigInStartDir(t *testing.T) {
	root := t.TempDir()
	want := filepath.Join(root, ConfigFileName)
	writeFile(t, want)

	got, err := FindConfig(root, ConfigFileName, 0)
	if err != nil {
		t.Fatalf("FindConfig returned error: %v", err)
	}
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestFindConfigInAncestor(t *testing.T) {
	root := t.TempDir()
	want := filepath.Join(root, ConfigFileName)
	writeFile(t, want)
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := FindConfig(nested, ConfigFileName, 10)
	if err != nil {
		t.Fatalf("FindConfig returned error: %v", err)
	}
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestFindConfigDepthLimit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ConfigFileName))
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	// c, b and a are searched; root is the fourth directory.
	if _, err := FindConfig(nested, ConfigFileName, 3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound beyond depth, got %v", err)
	}
	if _, err := FindConfig(nested, ConfigFileName, 4); err != nil {
		t.Fatalf("expected match in the fourth directory, got %v", err)
	}
}

func TestFindConfigDefaultDepthCountsStart(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ConfigFileName))
	parts := []string{root}
	for i := 1; i < DefaultMaxDepth; i++ {
		parts = append(parts, fmt.Sprintf("d%d", i))
	}
	within := filepath.Join(parts...)
	beyond := filepath.Join(within, "extra")
	if err := os.MkdirAll(beyond, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if _, err := FindConfig(within, ConfigFileName, 0); err != nil {
		t.Fatalf("expected match %d directories up, got %v", DefaultMaxDepth-1, err)
	}
	if _, err := FindConfig(beyond, ConfigFileName, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound %d directories up, got %v", DefaultMaxDepth, err)
	}
}

func TestFindConfigIgnoresDirectories(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ConfigFileName), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := FindConfig(root, ConfigFileName, 1); err == nil {
		t.Fatalf("directory should not match")
	}
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "custom.toml")
	writeFile(t, file)

	got, err := Resolve(file)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != file {
		t.Fatalf("want %q, got %q", file, got)
	}

	if _, err := Resolve(filepath.Join(root, "missing.toml")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := Resolve(root); err == nil {
		t.Fatalf("expected error for directory")
	}
}

func TestRelOrClean(t *testing.T) {
	if got := RelOrClean("/project", "/project/features"); got != "features" {
		t.Fatalf("got %q", got)
	}
	if got := RelOrClean("/project", "/elsewhere/x"); got != "/elsewhere/x" {
		t.Fatalf("got %q", got)
	}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("[paths]\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}
