package obfuscate

import (
	"fmt"
	"strings"

	"github.com/bgricker/specdrive/internal/report"
)

// maxErrorRunes bounds how much of each error message reaches the prompt.
const maxErrorRunes = 600

const promptHeader = `You are translating test failures into behavioral feedback for an AI developer.

Your job: convert code-level failures into business/specification-level problems.
- HIDE: file names, line numbers, function names, step names, stack traces
- SHOW: what behavior failed, what was expected and what actually happened
- BE CONCISE: describe each failure in 1-3 sentences
- FOCUS on what the specification expects, not on how it is implemented

Example translations:
  Failure: "AssertionError at user_steps.py:42: expected password_hash != None
     Actual: stored_password == 'secure123'"
  Feedback: "The password should be hashed before storage, but it appears to be stored in plaintext."

  Failure: "KeyError: 'email' in api.py line 15"
  Feedback: "The user email field is missing from the user response."

Here are the test failures to translate:
`

const promptFooter = `Translate each failure into behavioral feedback. Format the answer as a numbered list:
1. [Behavior problem description]
2. [Behavior problem description]

Return ONLY the translated feedback, nothing else.
`

// BuildPrompt renders the translation prompt for the given failures. Only the
// feature, scenario and error text of each failure are included.
func BuildPrompt(failures []report.FailureTrace) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	for i, f := range failures {
		fmt.Fprintf(&b, "\nFailure %d\n", i+1)
		fmt.Fprintf(&b, "   Feature: %s\n", f.Feature)
		fmt.Fprintf(&b, "   Scenario: %s\n", f.Scenario)
		if msg := strings.TrimSpace(f.ErrorMessage); msg != "" {
			fmt.Fprintf(&b, "   Error: %s\n", clip(msg, maxErrorRunes))
		}
	}
	b.WriteString("\n")
	b.WriteString(promptFooter)
	return b.String()
}

func clip(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
