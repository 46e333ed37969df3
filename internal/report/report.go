package report

import "time"

// Step and scenario statuses as emitted by behavior-test runners.
const (
	StatusPassed    = "passed"
	StatusFailed    = "failed"
	StatusError     = "error"
	StatusSkipped   = "skipped"
	StatusUndefined = "undefined"
)

// StepOutcome captures the result of a single scenario step.
type StepOutcome struct {
	Keyword  string `json:"keyword" yaml:"keyword"`
	Name     string `json:"name" yaml:"name"`
	Status   string `json:"status" yaml:"status"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
}

// Failed reports whether the step failed or errored.
func (s StepOutcome) Failed() bool {
	return s.Status == StatusFailed || s.Status == StatusError
}

// ErrorCategory classifies the error text of a failing step.
type ErrorCategory string

const (
	CategoryAssertion ErrorCategory = "assertion"
	CategoryRuntime   ErrorCategory = "runtime"
	CategoryUnknown   ErrorCategory = "unknown"
)

// FailureTrace is the normalized record of one failed scenario.
type FailureTrace struct {
	Feature        string        `json:"feature" yaml:"feature"`
	Scenario       string        `json:"scenario" yaml:"scenario"`
	Steps          []StepOutcome `json:"steps" yaml:"steps"`
	FailedStep     string        `json:"failed_step,omitempty" yaml:"failed_step,omitempty"`
	Category       ErrorCategory `json:"error_category" yaml:"error_category"`
	ErrorMessage   string        `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	SourceLocation string        `json:"source_location,omitempty" yaml:"source_location,omitempty"`
}

// EvaluationSummary aggregates scenario counts. Total is always Passed+Failed+Skipped.
type EvaluationSummary struct {
	Passed  int `json:"passed" yaml:"passed"`
	Failed  int `json:"failed" yaml:"failed"`
	Skipped int `json:"skipped" yaml:"skipped"`
	Total   int `json:"total" yaml:"total"`
}

// NewSummary builds a summary whose total is derived from the counts.
func NewSummary(passed, failed, skipped int) EvaluationSummary {
	return EvaluationSummary{
		Passed:  passed,
		Failed:  failed,
		Skipped: skipped,
		Total:   passed + failed + skipped,
	}
}

// PassRate returns passed/total, or 0 when nothing was evaluated.
func (s EvaluationSummary) PassRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Total)
}

// DataStatus tells "no data" apart from a real run.
type DataStatus string

const (
	// DataComplete means the runner wrote a report containing scenarios.
	DataComplete DataStatus = "complete"
	// DataMissing means the runner exited without writing its report.
	DataMissing DataStatus = "missing"
	// DataTimedOut means the runner was killed at the timeout ceiling.
	DataTimedOut DataStatus = "timed_out"
	// DataUnreadable means the report existed but could not be decoded.
	DataUnreadable DataStatus = "unreadable"
	// DataEmpty means the report decoded but held no scenarios.
	DataEmpty DataStatus = "empty"
)

// EvaluationReport is the canonical result of one runner invocation.
type EvaluationReport struct {
	Status   DataStatus        `json:"status" yaml:"status"`
	Summary  EvaluationSummary `json:"summary" yaml:"summary"`
	Failures []FailureTrace    `json:"failures" yaml:"failures"`
	Stdout   string            `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	Stderr   string            `json:"stderr,omitempty" yaml:"stderr,omitempty"`
	ExitCode int               `json:"exit_code" yaml:"exit_code"`
	Duration time.Duration     `json:"-" yaml:"-"`
}

// HasData reports whether the runner produced any evaluated scenarios.
func (r EvaluationReport) HasData() bool {
	return r.Status == DataComplete && r.Summary.Total > 0
}

// ScoreSource records how a satisfaction score was obtained.
type ScoreSource string

const (
	// SourceFixed is the perfect score assigned without a generative call.
	SourceFixed ScoreSource = "fixed"
	// SourceNoData is the zero score assigned when nothing was evaluated.
	SourceNoData ScoreSource = "no_data"
	// SourceGenerative is a score parsed from a strict or repaired JSON response.
	SourceGenerative ScoreSource = "generative"
	// SourceExtracted is a score pulled out of free text by pattern match.
	SourceExtracted ScoreSource = "extracted"
	// SourceFallback is the pass rate used when the generative phase failed.
	SourceFallback ScoreSource = "fallback"
)

// SatisfactionScore is a judgement of behavioral fit. Value is normally in
// [0,1]; generative responses are passed through unclamped.
type SatisfactionScore struct {
	Value     float64     `json:"score" yaml:"score"`
	Rationale string      `json:"reasoning" yaml:"reasoning"`
	Source    ScoreSource `json:"source" yaml:"source"`
}

// ThresholdSet holds the deployment thresholds, production >= staging >= dev.
type ThresholdSet struct {
	Production float64 `json:"production" yaml:"production"`
	Staging    float64 `json:"staging" yaml:"staging"`
	Dev        float64 `json:"dev" yaml:"dev"`
}

// DefaultThresholds returns the stock deployment thresholds.
func DefaultThresholds() ThresholdSet {
	return ThresholdSet{Production: 0.95, Staging: 0.80, Dev: 0.70}
}

// Readiness is the outcome of the deployment gate.
type Readiness string

const (
	Ready    Readiness = "ready"
	NotReady Readiness = "not_ready"
)

// Tier names the highest deployment environment a score qualifies for.
type Tier string

const (
	TierProduction Tier = "production"
	TierStaging    Tier = "staging"
	TierDev        Tier = "dev"
	TierNone       Tier = "none"
)

// DeploymentVerdict is the gate classification and the threshold it used.
type DeploymentVerdict struct {
	Readiness Readiness `json:"readiness" yaml:"readiness"`
	Threshold float64   `json:"threshold" yaml:"threshold"`
	Tier      Tier      `json:"tier" yaml:"tier"`
}

// Ready reports whether the verdict allows deployment.
func (v DeploymentVerdict) Ready() bool {
	return v.Readiness == Ready
}

// Evaluation bundles everything the feedback formatter renders. Score and
// Verdict are nil when satisfaction scoring is disabled.
type Evaluation struct {
	Status   DataStatus         `json:"status" yaml:"status"`
	Summary  EvaluationSummary  `json:"summary" yaml:"summary"`
	Score    *SatisfactionScore `json:"satisfaction,omitempty" yaml:"satisfaction,omitempty"`
	Verdict  *DeploymentVerdict `json:"deployment,omitempty" yaml:"deployment,omitempty"`
	Feedback string             `json:"feedback,omitempty" yaml:"feedback,omitempty"`
}
