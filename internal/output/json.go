package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/bgricker/specdrive/internal/report"
)

// Supported output formats.
const (
	FormatPretty = "pretty"
	FormatJSON   = "json"
	FormatYAML   = "yaml"
)

// ErrUnknownFormat is returned by New for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown output format")

// Report captures the machine-readable output schema. It carries no failure
// traces, only the translated feedback.
type Report struct {
	RunID             string   `json:"run_id" yaml:"run_id"`
	Runner            string   `json:"runner" yaml:"runner"`
	Project           string   `json:"project,omitempty" yaml:"project,omitempty"`
	FeedbackGenerated bool     `json:"feedback_generated" yaml:"feedback_generated"`
	Warnings          []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	report.Evaluation `yaml:",inline"`
}

// Renderer writes a report in one output format.
type Renderer interface {
	Render(Report) error
}

// New returns the renderer for format.
func New(format string, out io.Writer) (Renderer, error) {
	switch format {
	case "", FormatPretty:
		return NewPretty(out), nil
	case FormatJSON:
		return NewJSON(out), nil
	case FormatYAML:
		return NewYAML(out), nil
	default:
		return nil, fmt.Errorf("%w: %q (want %s, %s or %s)", ErrUnknownFormat, format, FormatPretty, FormatJSON, FormatYAML)
	}
}

// JSONRenderer emits structured evaluation data.
type JSONRenderer struct {
	out io.Writer
}

// NewJSON creates a JSON renderer writing to out.
func NewJSON(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out}
}

// Render encodes the report as JSON.
func (j *JSONRenderer) Render(r Report) error {
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
