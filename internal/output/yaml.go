package output

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLRenderer emits the same fields as JSONRenderer in YAML.
type YAMLRenderer struct {
	out io.Writer
}

// NewYAML creates a YAML renderer writing to out.
func NewYAML(out io.Writer) *YAMLRenderer {
	return &YAMLRenderer{out: out}
}

// Render encodes the report as YAML.
func (y *YAMLRenderer) Render(r Report) error {
	enc := yaml.NewEncoder(y.out)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
