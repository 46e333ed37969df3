package provider

import "io"

// Feature mirrors one feature record of a runner's structured report.
type Feature struct {
	Name      string     `json:"name"`
	URI       string     `json:"uri,omitempty"`
	Scenarios []Scenario `json:"elements"`
}

// Scenario is a single behavior-test case and its final status.
type Scenario struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Steps  []Step `json:"steps"`
}

// Step is a runner step record with its optional failure detail.
type Step struct {
	Keyword  string `json:"keyword"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Location string `json:"location,omitempty"`
}

// Decoder turns a runner's report file into typed features.
type Decoder interface {
	Name() string
	Decode(r io.Reader) ([]Feature, error)
}
