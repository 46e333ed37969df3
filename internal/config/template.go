package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bgricker/specdrive/internal/discovery"
)

// ErrExists is returned by WriteTemplate when the target already exists.
var ErrExists = errors.New("config file already exists")

// Template is the starter configuration written by `specdrive init`.
const Template = `# Spec-Driven Development Configuration

[project]
name = "my-project"
version = "0.1.0"

[paths]
generated_code_dir = "generated_code"
test_dir = "features"

[test]
runner = "behave"                 # behave | godog
output_format = "json.pretty"
output_file = "test_results.json" # relative to test_dir
timeout = 30                      # seconds
python = "python3"
# Scenarios matching these patterns count as skipped. Use /regex/ for regular expressions.
quarantine = []

[llm]
provider = "ollama"               # ollama | openai
model = "llama3.1"
url = "http://localhost:11434"
timeout = 20                      # seconds
temperature = 0.3
max_tokens = 2000
# api_key_env = "OPENAI_API_KEY"  # used by the openai provider

[scoring]
production_threshold = 0.95
staging_threshold = 0.80
dev_threshold = 0.70

[wrapper]
use_satisfaction_scoring = true

[output]
format = "pretty"                 # pretty | json | yaml
`

// WriteTemplate writes Template into dir and returns the file path. An
// existing file is only replaced when force is set.
func WriteTemplate(dir string, force bool) (string, error) {
	path := filepath.Join(dir, discovery.ConfigFileName)
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return path, fmt.Errorf("%w: %s (use --force to overwrite)", ErrExists, path)
		}
		return path, fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := f.WriteString(Template); err != nil {
		f.Close()
		return path, fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return path, fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
