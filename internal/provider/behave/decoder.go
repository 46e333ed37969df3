package behave

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bgricker/specdrive/internal/provider"
)

const ProviderName = "behave"

// Decoder reads behave's json and json.pretty formatter output.
type Decoder struct{}

// NewDecoder constructs a behave report decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Name returns the runner identifier.
func (d *Decoder) Name() string {
	return ProviderName
}

// Decode parses a behave report. Both the flat step shape (status plus
// match.message) and behave's native result block are understood.
func (d *Decoder) Decode(r io.Reader) ([]provider.Feature, error) {
	var docs []featureDocument
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse behave report: %w", err)
	}

	features := make([]provider.Feature, 0, len(docs))
	for _, doc := range docs {
		feature := provider.Feature{
			Name: doc.Name,
			URI:  doc.Location,
		}
		if feature.Name == "" {
			feature.Name = "Unknown Feature"
		}
		for _, el := range doc.Elements {
			if strings.EqualFold(el.Type, "background") {
				continue
			}
			scenario := provider.Scenario{
				Name:   el.Name,
				Status: strings.ToLower(strings.TrimSpace(el.Status)),
			}
			if scenario.Name == "" {
				scenario.Name = "Unknown Scenario"
			}
			for _, sd := range el.Steps {
				scenario.Steps = append(scenario.Steps, convertStep(sd))
			}
			if scenario.Status == "" {
				scenario.Status = provider.DeriveStatus(scenario.Steps)
			}
			feature.Scenarios = append(feature.Scenarios, scenario)
		}
		features = append(features, feature)
	}
	return features, nil
}

func convertStep(sd stepDocument) provider.Step {
	step := provider.Step{
		Keyword: strings.TrimSpace(sd.Keyword),
		Name:    sd.Name,
		Status:  strings.ToLower(strings.TrimSpace(sd.Status)),
	}
	if step.Status == "" && sd.Result != nil {
		step.Status = strings.ToLower(strings.TrimSpace(sd.Result.Status))
	}

	switch {
	case sd.Match != nil && sd.Match.Message != "":
		step.Message = sd.Match.Message
	case sd.Result != nil && len(sd.Result.ErrorMessage) > 0:
		step.Message = sd.Result.ErrorMessage.String()
	case sd.ErrorMessage != "":
		step.Message = sd.ErrorMessage
	}
	if sd.Match != nil {
		step.Location = sd.Match.Location
	}
	if step.Location == "" {
		step.Location = sd.Location
	}
	return step
}

type featureDocument struct {
	Name     string            `json:"name"`
	Location string            `json:"location"`
	Elements []elementDocument `json:"elements"`
}

type elementDocument struct {
	Type   string         `json:"type"`
	Name   string         `json:"name"`
	Status string         `json:"status"`
	Steps  []stepDocument `json:"steps"`
}

type stepDocument struct {
	Keyword      string          `json:"keyword"`
	Name         string          `json:"name"`
	Status       string          `json:"status"`
	Location     string          `json:"location"`
	ErrorMessage string          `json:"error_message"`
	Match        *matchDocument  `json:"match"`
	Result       *resultDocument `json:"result"`
}

type matchDocument struct {
	Message  string `json:"message"`
	Location string `json:"location"`
}

type resultDocument struct {
	Status       string       `json:"status"`
	ErrorMessage errorMessage `json:"error_message"`
}

// errorMessage accepts behave's error_message as a string or a list of lines.
type errorMessage []string

func (e *errorMessage) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*e = errorMessage{single}
		}
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("decode error_message: %w", err)
	}
	*e = lines
	return nil
}

func (e errorMessage) String() string {
	return strings.Join(e, "\n")
}
