package normalize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bgricker/specdrive/internal/provider"
	"github.com/bgricker/specdrive/internal/provider/behave"
	"github.com/bgricker/specdrive/internal/provider/filter"
	"github.com/bgricker/specdrive/internal/report"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "provider", "behave", "testdata", name))
	if err != nil {
		t.Fatalf("read fixture %q: %v", name, err)
	}
	return data
}

func TestNormalizeBehaveReport(t *testing.T) {
	n := New(behave.NewDecoder(), nil)
	got := n.Normalize(Raw{Data: readFixture(t, "mixed.json"), Stdout: "out", ExitCode: 1})

	if got.Status != report.DataComplete {
		t.Fatalf("expected complete status, got %q", got.Status)
	}
	want := report.EvaluationSummary{Passed: 1, Failed: 2, Skipped: 1, Total: 4}
	if diff := cmp.Diff(want, got.Summary); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
	if got.Stdout != "out" || got.ExitCode != 1 {
		t.Fatalf("diagnostics not carried over: %+v", got)
	}
	if len(got.Failures) != 2 {
		t.Fatalf("expected 2 failure traces, got %d", len(got.Failures))
	}

	first := got.Failures[0]
	if first.Scenario != "Password is hashed on creation" {
		t.Fatalf("failures must keep emission order, got %q first", first.Scenario)
	}
	if first.Feature != "User management" {
		t.Fatalf("unexpected feature %q", first.Feature)
	}
	if first.FailedStep != "the stored password should be hashed" {
		t.Fatalf("unexpected failed step %q", first.FailedStep)
	}
	if first.Category != report.CategoryAssertion {
		t.Fatalf("expected assertion category, got %q", first.Category)
	}
	if first.SourceLocation != "features/steps/user_steps.py:88" {
		t.Fatalf("unexpected location %q", first.SourceLocation)
	}
	if len(first.Steps) != 3 {
		t.Fatalf("expected all steps recorded, got %d", len(first.Steps))
	}

	second := got.Failures[1]
	if second.Category != report.CategoryRuntime {
		t.Fatalf("expected runtime category for KeyError, got %q", second.Category)
	}
}

func TestNormalizeStatusMapping(t *testing.T) {
	features := []provider.Feature{{
		Name: "F",
		Scenarios: []provider.Scenario{
			{Name: "a", Status: "passed"},
			{Name: "b", Status: "error"},
			{Name: "c", Status: "skipped"},
			{Name: "d", Status: "untested"},
			{Name: "e", Status: "FAILED"},
			{Name: "f", Status: ""},
		},
	}}

	summary, failures := New(behave.NewDecoder(), nil).Features(features)
	want := report.EvaluationSummary{Passed: 1, Failed: 2, Skipped: 3, Total: 6}
	if diff := cmp.Diff(want, summary); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
	if len(failures) != 2 || failures[0].Scenario != "b" || failures[1].Scenario != "e" {
		t.Fatalf("unexpected failures %+v", failures)
	}
	if failures[0].Category != report.CategoryUnknown {
		t.Fatalf("scenario without steps should have unknown category, got %q", failures[0].Category)
	}
}

func TestNormalizeDegenerateInputs(t *testing.T) {
	n := New(behave.NewDecoder(), nil)

	cases := []struct {
		name string
		raw  Raw
		want report.DataStatus
	}{
		{name: "timeout", raw: Raw{TimedOut: true, Data: []byte(`[]`)}, want: report.DataTimedOut},
		{name: "missing", raw: Raw{Stderr: "crash"}, want: report.DataMissing},
		{name: "unreadable", raw: Raw{Data: []byte(`{"oops"`)}, want: report.DataUnreadable},
		{name: "empty", raw: Raw{Data: []byte(`[]`)}, want: report.DataEmpty},
		{name: "zero bytes", raw: Raw{Data: []byte{}}, want: report.DataEmpty},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := n.Normalize(tc.raw)
			if got.Status != tc.want {
				t.Fatalf("expected status %q, got %q", tc.want, got.Status)
			}
			if got.Summary != (report.EvaluationSummary{}) {
				t.Fatalf("expected all-zero summary, got %+v", got.Summary)
			}
			if got.Failures == nil || len(got.Failures) != 0 {
				t.Fatalf("expected empty, non-nil failure list")
			}
			if got.HasData() {
				t.Fatalf("degenerate report must not claim data")
			}
		})
	}
}

func TestNormalizeQuarantine(t *testing.T) {
	patterns, err := filter.Compile([]string{"hashed"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got := New(behave.NewDecoder(), patterns).Normalize(Raw{Data: readFixture(t, "mixed.json")})

	want := report.EvaluationSummary{Passed: 1, Failed: 1, Skipped: 2, Total: 4}
	if diff := cmp.Diff(want, got.Summary); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
	if len(got.Failures) != 1 || got.Failures[0].Scenario != "Fetch user by ID" {
		t.Fatalf("quarantined scenario should not produce a trace: %+v", got.Failures)
	}
}

func TestCategorize(t *testing.T) {
	cases := map[string]report.ErrorCategory{
		"":                                   report.CategoryUnknown,
		"   ":                                report.CategoryUnknown,
		"AssertionError: expected 1":         report.CategoryAssertion,
		"expected status 201, got 500":       report.CategoryAssertion,
		"NotImplementedError":                report.CategoryRuntime,
		"KeyError: 'email'":                  report.CategoryRuntime,
		"assert response['success'] is True": report.CategoryAssertion,
	}
	for msg, want := range cases {
		if got := Categorize(msg); got != want {
			t.Fatalf("Categorize(%q) = %q, want %q", msg, got, want)
		}
	}
}

func TestTraceUsesFirstFailingStep(t *testing.T) {
	scenario := provider.Scenario{
		Name:   "S",
		Status: "failed",
		Steps: []provider.Step{
			{Keyword: "Given", Name: "one", Status: "passed"},
			{Keyword: "When", Name: "two", Status: "error", Message: "boom", Location: "a:1"},
			{Keyword: "Then", Name: "three", Status: "failed", Message: "assert later", Location: "a:2"},
			{Keyword: "And", Name: "four", Status: "weird"},
		},
	}
	trace := Trace("F", scenario)
	if trace.FailedStep != "two" || trace.ErrorMessage != "boom" || trace.SourceLocation != "a:1" {
		t.Fatalf("expected first failing step detail, got %+v", trace)
	}
	if trace.Category != report.CategoryRuntime {
		t.Fatalf("expected runtime category, got %q", trace.Category)
	}
	if trace.Steps[3].Status != report.StatusUndefined {
		t.Fatalf("unknown step status should map to undefined, got %q", trace.Steps[3].Status)
	}
}
