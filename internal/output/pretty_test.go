package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bgricker/specdrive/internal/report"
)

func scoredEvaluation() report.Evaluation {
	return report.Evaluation{
		Status:  report.DataComplete,
		Summary: report.NewSummary(2, 3, 0),
		Score: &report.SatisfactionScore{
			Value:     0.4,
			Rationale: "Used pass rate (40.0%) as fallback score",
			Source:    report.SourceFallback,
		},
		Verdict: &report.DeploymentVerdict{
			Readiness: report.NotReady,
			Threshold: 0.95,
			Tier:      report.TierNone,
		},
		Feedback: "Implementation issues detected (3 test(s) failed)\n\n1. Authentication: passwords are stored as plain text.",
	}
}

func TestFormatScored(t *testing.T) {
	want := strings.Join([]string{
		"",
		separator,
		"🟠 TEST RESULTS - Satisfaction: 0.40/1.00 (Moderate)",
		separator,
		"",
		"Summary: 2 passed, 3 failed, 0 skipped (5 total)",
		"",
		"Reasoning: Used pass rate (40.0%) as fallback score",
		"",
		"Deployment status: ❌ Not ready (need 95% to deploy)",
		"Deployment tier: none",
		"",
		separator,
		"",
		"BEHAVIORAL FEEDBACK:",
		"Implementation issues detected (3 test(s) failed)",
		"",
		"1. Authentication: passwords are stored as plain text.",
		"",
		separator,
		"",
	}, "\n")

	if got := Format(scoredEvaluation()); got != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatIsByteStable(t *testing.T) {
	ev := scoredEvaluation()
	first := Format(ev)
	for i := 0; i < 10; i++ {
		if got := Format(scoredEvaluation()); got != first {
			t.Fatalf("render %d differs:\n%s\nvs\n%s", i, got, first)
		}
	}
}

func TestFormatAllPassed(t *testing.T) {
	ev := report.Evaluation{
		Status:  report.DataComplete,
		Summary: report.NewSummary(5, 0, 0),
		Score:   &report.SatisfactionScore{Value: 1, Rationale: "All scenarios passed", Source: report.SourceFixed},
		Verdict: &report.DeploymentVerdict{Readiness: report.Ready, Threshold: 0.95, Tier: report.TierProduction},
	}
	out := Format(ev)

	for _, want := range []string{
		"🟢 ALL TESTS PASSED - Satisfaction: 1.00/1.00",
		"Summary: 5 passed, 0 failed, 0 skipped (5 total)",
		"Deployment status: ✅ Ready for production",
		"Deployment tier: production",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "BEHAVIORAL FEEDBACK") {
		t.Fatalf("did not expect a feedback section:\n%s", out)
	}
}

func TestFormatAllSkippedIsNotAllPassed(t *testing.T) {
	ev := report.Evaluation{
		Status:  report.DataComplete,
		Summary: report.NewSummary(0, 0, 3),
		Score:   &report.SatisfactionScore{Value: 1, Rationale: "All scenarios passed", Source: report.SourceFixed},
		Verdict: &report.DeploymentVerdict{Readiness: report.Ready, Threshold: 0.95, Tier: report.TierProduction},
	}
	out := Format(ev)

	if strings.Contains(out, "ALL TESTS PASSED") {
		t.Fatalf("skipped-only run rendered as passing:\n%s", out)
	}
	for _, want := range []string{
		"⚪ NO FAILURES - all 3 scenarios skipped - Satisfaction: 1.00/1.00",
		"Summary: 0 passed, 0 failed, 3 skipped (3 total)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	ev.Score, ev.Verdict = nil, nil
	if got := headline(ev); got != "⚪ NO FAILURES - all 3 scenarios skipped" {
		t.Fatalf("unexpected headline without scoring: %q", got)
	}
}

func TestFormatNoDataIsNotAllPassed(t *testing.T) {
	ev := report.Evaluation{
		Status:  report.DataTimedOut,
		Score:   &report.SatisfactionScore{Value: 0, Rationale: "no scenarios evaluated", Source: report.SourceNoData},
		Verdict: &report.DeploymentVerdict{Readiness: report.NotReady, Threshold: 0.95, Tier: report.TierNone},
	}
	out := Format(ev)

	if strings.Contains(out, "ALL TESTS PASSED") {
		t.Fatalf("no-data run rendered as passing:\n%s", out)
	}
	for _, want := range []string{
		"NO DATA",
		"No data: the test runner timed out",
		"Summary: 0 passed, 0 failed, 0 skipped (0 total)",
		"Reasoning: no scenarios evaluated",
		"❌ Not ready",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestFormatWithoutScoring(t *testing.T) {
	ev := report.Evaluation{
		Status:   report.DataComplete,
		Summary:  report.NewSummary(1, 2, 1),
		Feedback: "1. Users cannot be deleted.",
	}
	out := Format(ev)

	if !strings.Contains(out, "Test Results: 2 failed") {
		t.Fatalf("expected plain header, got:\n%s", out)
	}
	if strings.Contains(out, "Satisfaction") || strings.Contains(out, "Deployment") {
		t.Fatalf("unexpected scoring lines:\n%s", out)
	}
	if !strings.Contains(out, "BEHAVIORAL FEEDBACK:\n1. Users cannot be deleted.") {
		t.Fatalf("expected feedback body, got:\n%s", out)
	}
}

func TestBucket(t *testing.T) {
	cases := []struct {
		score float64
		label string
	}{
		{1.4, "Excellent"},
		{0.9, "Excellent"},
		{0.89, "Good"},
		{0.7, "Good"},
		{0.69, "Moderate"},
		{0.4, "Moderate"},
		{0.39, "Poor"},
		{-1, "Poor"},
	}
	for _, tc := range cases {
		if _, label := Bucket(tc.score); label != tc.label {
			t.Fatalf("Bucket(%v) = %s, want %s", tc.score, label, tc.label)
		}
	}
}

func TestPercent(t *testing.T) {
	cases := map[float64]string{0.95: "95", 0.8: "80", 0.875: "87.5", 1: "100"}
	for in, want := range cases {
		if got := percent(in); got != want {
			t.Fatalf("percent(%v) = %s, want %s", in, got, want)
		}
	}
}

func TestPrettyRendererIgnoresRunMetadata(t *testing.T) {
	var a, b bytes.Buffer
	if err := NewPretty(&a).Render(Report{RunID: "one", Evaluation: scoredEvaluation()}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if err := NewPretty(&b).Render(Report{RunID: "two", Evaluation: scoredEvaluation()}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if a.String() != b.String() {
		t.Fatalf("run id leaked into pretty output")
	}
}
