// Package normalize converts a behavior-test runner's raw output into the
// canonical EvaluationReport. It never fails: missing, truncated or
// undecodable runner output yields an all-zero report flagged as "no data".
package normalize

import (
	"bytes"
	"strings"
	"time"

	"github.com/bgricker/specdrive/internal/provider"
	"github.com/bgricker/specdrive/internal/provider/filter"
	"github.com/bgricker/specdrive/internal/report"
)

// Raw is what a runner invocation left behind.
type Raw struct {
	// Data holds the structured report file contents; nil when the file was absent.
	Data     []byte
	TimedOut bool
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Normalizer maps decoded runner reports onto the canonical model.
type Normalizer struct {
	decoder    provider.Decoder
	quarantine filter.Set
}

// New creates a Normalizer for the given report format. Scenarios matching
// a quarantine pattern are counted as skipped and produce no failure trace.
func New(decoder provider.Decoder, quarantine filter.Set) *Normalizer {
	return &Normalizer{decoder: decoder, quarantine: quarantine}
}

// Normalize produces an EvaluationReport from raw runner output.
func (n *Normalizer) Normalize(raw Raw) report.EvaluationReport {
	out := report.EvaluationReport{
		Failures: []report.FailureTrace{},
		Stdout:   raw.Stdout,
		Stderr:   raw.Stderr,
		ExitCode: raw.ExitCode,
		Duration: raw.Duration,
	}

	switch {
	case raw.TimedOut:
		out.Status = report.DataTimedOut
		return out
	case raw.Data == nil:
		out.Status = report.DataMissing
		return out
	}

	features, err := n.decoder.Decode(bytes.NewReader(raw.Data))
	if err != nil {
		out.Status = report.DataUnreadable
		if out.Stderr == "" {
			out.Stderr = err.Error()
		} else {
			out.Stderr = strings.TrimRight(out.Stderr, "\n") + "\n" + err.Error()
		}
		return out
	}

	summary, failures := n.Features(features)
	out.Summary = summary
	out.Failures = failures
	out.Status = report.DataComplete
	if summary.Total == 0 {
		out.Status = report.DataEmpty
	}
	return out
}

// Features tallies scenario outcomes in runner emission order.
func (n *Normalizer) Features(features []provider.Feature) (report.EvaluationSummary, []report.FailureTrace) {
	var passed, failed, skipped int
	failures := []report.FailureTrace{}

	for _, feature := range features {
		for _, scenario := range feature.Scenarios {
			if n.quarantine.Contains(feature, scenario) {
				skipped++
				continue
			}
			switch strings.ToLower(scenario.Status) {
			case report.StatusPassed:
				passed++
			case report.StatusFailed, report.StatusError:
				failed++
				failures = append(failures, Trace(feature.Name, scenario))
			default:
				skipped++
			}
		}
	}

	return report.NewSummary(passed, failed, skipped), failures
}

// Trace builds the failure trace for a failed scenario. The first failing
// step supplies the failure detail.
func Trace(featureName string, scenario provider.Scenario) report.FailureTrace {
	trace := report.FailureTrace{
		Feature:  featureName,
		Scenario: scenario.Name,
		Steps:    make([]report.StepOutcome, 0, len(scenario.Steps)),
		Category: report.CategoryUnknown,
	}

	found := false
	for _, step := range scenario.Steps {
		outcome := report.StepOutcome{
			Keyword:  step.Keyword,
			Name:     step.Name,
			Status:   stepStatus(step.Status),
			Error:    step.Message,
			Location: step.Location,
		}
		trace.Steps = append(trace.Steps, outcome)

		if found || !outcome.Failed() {
			continue
		}
		found = true
		trace.FailedStep = step.Name
		trace.ErrorMessage = step.Message
		trace.SourceLocation = step.Location
		trace.Category = Categorize(step.Message)
	}
	return trace
}

var assertionMarkers = []string{"assert", "expected"}

// Categorize classifies error text as an assertion failure, a runtime error,
// or unknown when there is no text.
func Categorize(message string) report.ErrorCategory {
	if strings.TrimSpace(message) == "" {
		return report.CategoryUnknown
	}
	lower := strings.ToLower(message)
	for _, marker := range assertionMarkers {
		if strings.Contains(lower, marker) {
			return report.CategoryAssertion
		}
	}
	return report.CategoryRuntime
}

func stepStatus(status string) string {
	switch status = strings.ToLower(strings.TrimSpace(status)); status {
	case report.StatusPassed, report.StatusFailed, report.StatusError, report.StatusSkipped, report.StatusUndefined:
		return status
	case "":
		return report.StatusSkipped
	default:
		return report.StatusUndefined
	}
}
