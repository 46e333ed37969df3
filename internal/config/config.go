// Package config loads and validates the .spec-driven.toml project
// configuration and overlays command-line flags on top of it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bgricker/specdrive/internal/discovery"
	"github.com/bgricker/specdrive/internal/report"
)

var (
	// ErrNotFound indicates that no configuration file could be located.
	ErrNotFound = discovery.ErrNotFound
	// ErrMissingKey indicates that a required key is absent from the file.
	ErrMissingKey = errors.New("missing required config")
	// ErrInvalid indicates that a value failed validation.
	ErrInvalid = errors.New("invalid config")
)

// Config is the resolved project configuration. It is built once at process
// start and passed by value to the pipeline.
type Config struct {
	// Path is the absolute path of the file the config was read from.
	Path string `mapstructure:"-" yaml:"path"`

	Project ProjectConfig `mapstructure:"project" yaml:"project"`
	Paths   PathsConfig   `mapstructure:"paths" yaml:"paths"`
	Test    TestConfig    `mapstructure:"test" yaml:"test"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Scoring ScoringConfig `mapstructure:"scoring" yaml:"scoring"`
	Wrapper WrapperConfig `mapstructure:"wrapper" yaml:"wrapper"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`

	Verbose bool `mapstructure:"-" yaml:"-"`
}

// ProjectConfig names the project under evaluation.
type ProjectConfig struct {
	Name    string `mapstructure:"name" yaml:"name,omitempty"`
	Version string `mapstructure:"version" yaml:"version,omitempty"`
}

// PathsConfig locates the generated implementation and the behavior tests.
type PathsConfig struct {
	GeneratedCodeDir string `mapstructure:"generated_code_dir" yaml:"generated_code_dir" validate:"required"`
	TestDir          string `mapstructure:"test_dir" yaml:"test_dir" validate:"required"`
}

// TestConfig selects and parameterizes the behavior-test runner.
type TestConfig struct {
	Runner       string   `mapstructure:"runner" yaml:"runner" validate:"oneof=behave godog"`
	OutputFormat string   `mapstructure:"output_format" yaml:"output_format" validate:"oneof=json json.pretty"`
	OutputFile   string   `mapstructure:"output_file" yaml:"output_file" validate:"required"`
	Timeout      int      `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	Python       string   `mapstructure:"python" yaml:"python" validate:"required"`
	Godog        string   `mapstructure:"godog" yaml:"godog" validate:"required"`
	Quarantine   []string `mapstructure:"quarantine" yaml:"quarantine,omitempty"`
}

// LLMConfig points at the generative-text service.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider" yaml:"provider" validate:"oneof=ollama openai"`
	Model       string  `mapstructure:"model" yaml:"model" validate:"required"`
	URL         string  `mapstructure:"url" yaml:"url" validate:"url"`
	Timeout     int     `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens" validate:"gt=0"`
	APIKeyEnv   string  `mapstructure:"api_key_env" yaml:"api_key_env"`
}

// ScoringConfig holds the deployment thresholds.
type ScoringConfig struct {
	ProductionThreshold float64 `mapstructure:"production_threshold" yaml:"production_threshold" validate:"gte=0,lte=1"`
	StagingThreshold    float64 `mapstructure:"staging_threshold" yaml:"staging_threshold" validate:"gte=0,lte=1"`
	DevThreshold        float64 `mapstructure:"dev_threshold" yaml:"dev_threshold" validate:"gte=0,lte=1"`
}

// WrapperConfig toggles pipeline phases.
type WrapperConfig struct {
	UseSatisfactionScoring bool `mapstructure:"use_satisfaction_scoring" yaml:"use_satisfaction_scoring"`
}

// OutputConfig controls how results are reported.
type OutputConfig struct {
	Format      string `mapstructure:"format" yaml:"format" validate:"oneof=pretty json yaml"`
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file,omitempty"`
	TraceFile   string `mapstructure:"trace_file" yaml:"trace_file,omitempty"`
}

const (
	// RunnerBehave runs Python behave suites.
	RunnerBehave = "behave"
	// RunnerGodog runs Go godog suites.
	RunnerGodog = "godog"

	// ProviderOllama talks to the Ollama /api/generate endpoint.
	ProviderOllama = "ollama"
	// ProviderOpenAI talks to an OpenAI-compatible chat completions endpoint.
	ProviderOpenAI = "openai"
)

// requiredKeys must be present in every config file.
var requiredKeys = []string{
	"paths.generated_code_dir",
	"paths.test_dir",
	"test.runner",
	"llm.model",
	"llm.url",
}

func setDefaults(v *viper.Viper) {
	th := report.DefaultThresholds()
	v.SetDefault("test.output_format", "json.pretty")
	v.SetDefault("test.output_file", "test_results.json")
	v.SetDefault("test.timeout", 30)
	v.SetDefault("test.python", "python3")
	v.SetDefault("test.godog", "godog")
	v.SetDefault("llm.provider", ProviderOllama)
	v.SetDefault("llm.timeout", 20)
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.api_key_env", "OPENAI_API_KEY")
	v.SetDefault("scoring.production_threshold", th.Production)
	v.SetDefault("scoring.staging_threshold", th.Staging)
	v.SetDefault("scoring.dev_threshold", th.Dev)
	v.SetDefault("wrapper.use_satisfaction_scoring", true)
	v.SetDefault("output.format", "pretty")
}

// Discover searches start and its ancestors for the config file and loads it.
func Discover(start string) (Config, error) {
	path, err := discovery.FindConfig(start, discovery.ConfigFileName, discovery.DefaultMaxDepth)
	if err != nil {
		return Config{}, err
	}
	return Load(path)
}

// LoadFrom loads the file at explicit when it is set, otherwise it
// discovers one from start.
func LoadFrom(explicit, start string) (Config, error) {
	if explicit == "" {
		return Discover(start)
	}
	path, err := discovery.Resolve(explicit)
	if err != nil {
		return Config{}, err
	}
	return Load(path)
}

// Load reads the TOML file at path, checks required keys, fills defaults and
// resolves relative paths against the file's directory.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}

	for _, key := range requiredKeys {
		if !v.IsSet(key) || strings.TrimSpace(v.GetString(key)) == "" {
			section, name, _ := strings.Cut(key, ".")
			return Config{}, fmt.Errorf("%w: [%s] %s", ErrMissingKey, section, name)
		}
	}
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %q: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("resolve %q: %w", path, err)
	}
	cfg.Path = abs
	cfg.resolvePaths()
	return cfg, nil
}

// Dir is the directory containing the config file.
func (c Config) Dir() string {
	return filepath.Dir(c.Path)
}

func (c *Config) resolvePaths() {
	base := c.Dir()
	c.Paths.GeneratedCodeDir = resolve(base, c.Paths.GeneratedCodeDir)
	c.Paths.TestDir = resolve(base, c.Paths.TestDir)
	c.Test.OutputFile = resolve(c.Paths.TestDir, c.Test.OutputFile)
	if c.Output.MetricsFile != "" {
		c.Output.MetricsFile = resolve(base, c.Output.MetricsFile)
	}
	if c.Output.TraceFile != "" {
		c.Output.TraceFile = resolve(base, c.Output.TraceFile)
	}
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Thresholds returns the deployment thresholds.
func (c Config) Thresholds() report.ThresholdSet {
	return report.ThresholdSet{
		Production: c.Scoring.ProductionThreshold,
		Staging:    c.Scoring.StagingThreshold,
		Dev:        c.Scoring.DevThreshold,
	}
}

// TestTimeout returns the runner timeout.
func (c Config) TestTimeout() time.Duration {
	return time.Duration(c.Test.Timeout) * time.Second
}

// LLMTimeout returns the generative-service timeout.
func (c Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.Timeout) * time.Second
}

// APIKey reads the generative-service key from the configured environment
// variable. Ollama needs none.
func (c Config) APIKey() string {
	if c.LLM.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.LLM.APIKeyEnv)
}

// ApplyFlags mutates cfg by applying values from CLI flags when they are present.
func ApplyFlags(cfg *Config, flags FlagValues) {
	if flags.Model.Set {
		cfg.LLM.Model = flags.Model.Value
	}
	if flags.URL.Set {
		cfg.LLM.URL = flags.URL.Value
	}
	if flags.Provider.Set {
		cfg.LLM.Provider = flags.Provider.Value
	}
	if flags.Runner.Set {
		cfg.Test.Runner = flags.Runner.Value
	}
	if flags.Threshold.Set {
		cfg.Scoring.ProductionThreshold = flags.Threshold.Value
	}
	if flags.NoScoring.Set {
		cfg.Wrapper.UseSatisfactionScoring = !flags.NoScoring.Value
	}
	if flags.Format.Set {
		cfg.Output.Format = flags.Format.Value
	}
	if flags.MetricsFile.Set {
		cfg.Output.MetricsFile = flags.MetricsFile.Value
	}
	if flags.TraceFile.Set {
		cfg.Output.TraceFile = flags.TraceFile.Value
	}
	if flags.Verbose.Set {
		cfg.Verbose = flags.Verbose.Value
	}
}

// FlagValues captures CLI flag state with knowledge of whether each flag was set explicitly.
type FlagValues struct {
	Model       StringFlag
	URL         StringFlag
	Provider    StringFlag
	Runner      StringFlag
	Threshold   FloatFlag
	NoScoring   BoolFlag
	Format      StringFlag
	MetricsFile StringFlag
	TraceFile   StringFlag
	Verbose     BoolFlag
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// FloatFlag represents a float flag and whether it was set.
type FloatFlag struct {
	Value float64
	Set   bool
}

// BoolFlag represents a bool flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}
