package score

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/bgricker/specdrive/internal/llm"
	"github.com/bgricker/specdrive/internal/report"
)

func reportWith(passed, failed, skipped int) report.EvaluationReport {
	return report.EvaluationReport{
		Status:  report.DataComplete,
		Summary: report.NewSummary(passed, failed, skipped),
	}
}

func TestScoreAllPassedSkipsGenerator(t *testing.T) {
	stub := llm.NewStub(llm.Reply{Text: `{"score": 0.1}`})
	got := New(stub, zaptest.NewLogger(t)).Score(context.Background(), reportWith(5, 0, 0), "")

	assert.Equal(t, 1.0, got.Value)
	assert.Equal(t, report.SourceFixed, got.Source)
	assert.Zero(t, stub.Calls())
}

func TestScoreNoScenarios(t *testing.T) {
	stub := llm.NewStub(llm.Reply{Text: `{"score": 0.9}`})
	got := New(stub, nil).Score(context.Background(), report.EvaluationReport{Status: report.DataTimedOut}, "")

	assert.Equal(t, 0.0, got.Value)
	assert.Equal(t, NoDataRationale, got.Rationale)
	assert.Equal(t, report.SourceNoData, got.Source)
	assert.Zero(t, stub.Calls())
}

func TestScoreUnreachableUsesPassRate(t *testing.T) {
	got := New(llm.Unreachable(), nil).Score(context.Background(), reportWith(2, 3, 0), "feedback")

	assert.Equal(t, 0.4, got.Value)
	assert.Equal(t, "Used pass rate (40.0%) as fallback score", got.Rationale)
	assert.Equal(t, report.SourceFallback, got.Source)
}

func TestScoreSkippedScenariosLowerPassRate(t *testing.T) {
	got := New(nil, nil).Score(context.Background(), reportWith(2, 1, 1), "")
	assert.Equal(t, 0.5, got.Value)
}

func TestScoreOutOfRangePassedThrough(t *testing.T) {
	stub := llm.NewStub(llm.Reply{Text: `{"score": 1.4, "reasoning": "better than expected"}`})
	got := New(stub, nil).Score(context.Background(), reportWith(4, 1, 0), "feedback")

	assert.Equal(t, 1.4, got.Value)
	assert.Equal(t, "better than expected", got.Rationale)
	assert.Equal(t, report.SourceGenerative, got.Source)
}

func TestScoreUnparseableUsesPassRate(t *testing.T) {
	stub := llm.NewStub(llm.Reply{Text: "I cannot judge this implementation."})
	got := New(stub, nil).Score(context.Background(), reportWith(3, 1, 0), "feedback")

	assert.Equal(t, 0.75, got.Value)
	assert.Equal(t, report.SourceFallback, got.Source)
}

func TestScoreNonFiniteUsesPassRate(t *testing.T) {
	for _, reply := range []string{
		`{"score": "NaN", "reasoning": "undefined"}`,
		`{"score": "Inf", "reasoning": "flawless"}`,
		`{"score": "-Infinity", "reasoning": "hopeless"}`,
	} {
		stub := llm.NewStub(llm.Reply{Text: reply})
		got := New(stub, nil).Score(context.Background(), reportWith(3, 1, 0), "feedback")

		assert.Equal(t, 0.75, got.Value, "reply %s", reply)
		assert.Equal(t, report.SourceFallback, got.Source, "reply %s", reply)
	}
}

func TestScorePromptContents(t *testing.T) {
	stub := llm.NewStub(llm.Reply{Text: `{"score": 0.5, "reasoning": "ok"}`})
	New(stub, nil).Score(context.Background(), reportWith(2, 3, 1), "1. Passwords are stored in plain text.")

	require.Equal(t, 1, stub.Calls())
	prompt := stub.Prompts()[0]
	for _, want := range []string{
		"- Total scenarios: 6",
		"- Passed: 2",
		"- Failed: 3",
		"- Skipped: 1",
		"- Pass rate: 33.3%",
		"1. Passwords are stored in plain text.",
		`"score"`,
		`"reasoning"`,
		"0.0-0.3",
		"0.3-0.7",
		"0.7-0.9",
		"0.9-1.0",
	} {
		assert.Contains(t, prompt, want)
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		value  float64
		source report.ScoreSource
		reason string
	}{
		{"strict", `{"score": 0.72, "reasoning": "mostly right"}`, 0.72, report.SourceGenerative, "mostly right"},
		{"string score", `{"score": "0.6", "reasoning": "half"}`, 0.6, report.SourceGenerative, "half"},
		{"no reasoning", `{"score": 0.3}`, 0.3, report.SourceGenerative, noReasoning},
		{"fenced", "```json\n{\"score\": 0.8, \"reasoning\": \"fine\"}\n```", 0.8, report.SourceGenerative, "fine"},
		{"surrounded", "Here is my verdict:\n{\"score\": 0.55, \"reasoning\": \"mixed\"}\nThanks.", 0.55, report.SourceGenerative, "mixed"},
		{"trailing comma", `{"score": 0.65, "reasoning": "ok",}`, 0.65, report.SourceGenerative, "ok"},
		{"negative", `{"score": -0.2, "reasoning": "bad"}`, -0.2, report.SourceGenerative, "bad"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Parse(tc.input)
			require.True(t, ok)
			assert.InDelta(t, tc.value, got.Value, 1e-9)
			assert.Equal(t, tc.source, got.Source)
			assert.Equal(t, tc.reason, got.Rationale)
		})
	}
}

func TestParseExtractsFromText(t *testing.T) {
	text := `The "score": 0.45 seems right because half of the behaviour is missing ` + strings.Repeat("and more ", 40)
	got, ok := Parse(text)

	require.True(t, ok)
	assert.Equal(t, 0.45, got.Value)
	assert.Equal(t, report.SourceExtracted, got.Source)
	assert.Len(t, []rune(got.Rationale), 200)
	assert.True(t, strings.HasPrefix(got.Rationale, `The "score": 0.45`))
}

func TestParseRejects(t *testing.T) {
	for _, input := range []string{
		"",
		"no number anywhere",
		`{"reasoning": "forgot the score"}`,
		`{"score": null}`,
		`{"score": "high"}`,
		`{"score": "NaN", "reasoning": "undefined"}`,
		`{"score": "Inf", "reasoning": "flawless"}`,
		`{"score": "-Infinity", "reasoning": "hopeless"}`,
		`{"score": NaN}`,
		"My score: -1 because nothing works",
	} {
		_, ok := Parse(input)
		assert.False(t, ok, "input %q", input)
	}
}
