package cucumber

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bgricker/specdrive/internal/provider"
)

const ProviderName = "cucumber"

// Decoder reads cucumber JSON as written by godog's cucumber formatter.
// Scenario status is not part of the format and is derived from the steps.
type Decoder struct{}

// NewDecoder constructs a cucumber report decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Name returns the report format identifier.
func (d *Decoder) Name() string {
	return ProviderName
}

// Decode parses a cucumber JSON report.
func (d *Decoder) Decode(r io.Reader) ([]provider.Feature, error) {
	var docs []featureDocument
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse cucumber report: %w", err)
	}

	features := make([]provider.Feature, 0, len(docs))
	for _, doc := range docs {
		feature := provider.Feature{Name: doc.Name, URI: doc.URI}
		if feature.Name == "" {
			feature.Name = doc.URI
		}
		for _, el := range doc.Elements {
			if strings.EqualFold(el.Type, "background") {
				continue
			}
			scenario := provider.Scenario{Name: el.Name}
			for _, sd := range el.Steps {
				scenario.Steps = append(scenario.Steps, provider.Step{
					Keyword:  strings.TrimSpace(sd.Keyword),
					Name:     sd.Name,
					Status:   normalizeStatus(sd.Result.Status),
					Message:  sd.Result.ErrorMessage,
					Location: sd.Match.Location,
				})
			}
			scenario.Status = provider.DeriveStatus(scenario.Steps)
			feature.Scenarios = append(feature.Scenarios, scenario)
		}
		features = append(features, feature)
	}
	return features, nil
}

// normalizeStatus maps cucumber's pending/ambiguous results onto skipped so
// they never count as passes.
func normalizeStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case "pending", "ambiguous":
		return "skipped"
	default:
		return status
	}
}

type featureDocument struct {
	URI      string            `json:"uri"`
	Name     string            `json:"name"`
	Elements []elementDocument `json:"elements"`
}

type elementDocument struct {
	Type  string         `json:"type"`
	Name  string         `json:"name"`
	Steps []stepDocument `json:"steps"`
}

type stepDocument struct {
	Keyword string         `json:"keyword"`
	Name    string         `json:"name"`
	Match   matchDocument  `json:"match"`
	Result  resultDocument `json:"result"`
}

type matchDocument struct {
	Location string `json:"location"`
}

type resultDocument struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}
