package obfuscate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/bgricker/specdrive/internal/report"
)

// family groups failures that share a behavioral theme. Keywords ending in
// '*' match as word prefixes, the rest must match a whole word.
type family struct {
	name     string
	keywords []string
	sentence string
}

// families are checked in order; the first match claims the failure.
var families = []family{
	{
		name:     "Authentication",
		keywords: []string{"password*", "hash*", "plaintext", "auth*", "unauthori*", "login*", "logout", "credential*", "token*", "permission*", "forbidden"},
		sentence: "Credential handling does not behave as specified: secrets such as passwords must be protected (for example hashed) and never stored or returned as plain text.",
	},
	{
		name:     "Creation",
		keywords: []string{"creat*", "register*", "registration", "signup", "add", "adds", "added", "duplicate*", "insert*"},
		sentence: "Creating new records does not behave as specified: check that required fields are accepted and that duplicates are rejected.",
	},
	{
		name:     "Retrieval",
		keywords: []string{"fetch*", "get", "gets", "retriev*", "read", "reads", "list", "lists", "listing", "find*", "lookup", "search*"},
		sentence: "Retrieving existing records does not return the expected data or fields.",
	},
	{
		name:     "Update",
		keywords: []string{"updat*", "modif*", "edit*", "chang*", "patch*", "renam*"},
		sentence: "Updating existing records does not apply the expected changes.",
	},
	{
		name:     "Deletion",
		keywords: []string{"delet*", "remov*", "destroy*"},
		sentence: "Deleting records does not behave as specified.",
	},
}

var otherFamily = family{
	name:     "General",
	sentence: "Some specified behavior does not match expectations.",
}

// Fallback produces rule-based feedback without a generative service. Each
// failure is assigned to one family and every family present contributes a
// single sentence, so the output depends only on the set of failures.
func Fallback(rep report.EvaluationReport) string {
	failed := rep.Summary.Failed
	if failed == 0 {
		failed = len(rep.Failures)
	}

	hit := make(map[string]bool, len(families)+1)
	for _, f := range rep.Failures {
		hit[Classify(f)] = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Implementation issues detected (%d test(s) failed)\n", failed)
	n := 0
	ordered := make([]family, 0, len(families)+1)
	ordered = append(ordered, families...)
	ordered = append(ordered, otherFamily)
	for _, fam := range ordered {
		if !hit[fam.name] {
			continue
		}
		n++
		if n == 1 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s: %s\n", n, fam.name, fam.sentence)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Classify returns the family name for a failure based on the words of its
// scenario name and error text. Families earlier in the list win, so a
// plaintext password during creation is reported as an authentication issue.
func Classify(f report.FailureTrace) string {
	words := tokenize(f.Scenario + " " + f.ErrorMessage)
	for _, fam := range families {
		if matchesAny(words, fam.keywords) {
			return fam.name
		}
	}
	return otherFamily.name
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func matchesAny(words, keywords []string) bool {
	for _, kw := range keywords {
		prefix, isPrefix := strings.CutSuffix(kw, "*")
		for _, w := range words {
			if isPrefix && strings.HasPrefix(w, prefix) {
				return true
			}
			if !isPrefix && w == kw {
				return true
			}
		}
	}
	return false
}
