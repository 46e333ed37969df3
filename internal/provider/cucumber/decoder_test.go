package cucumber

import (
	"strings"
	"testing"
)

const godogReport = `[
  {
    "uri": "features/users.feature",
    "id": "user-management",
    "keyword": "Feature",
    "name": "User management",
    "elements": [
      {
        "id": "user-management;update-email",
        "keyword": "Scenario",
        "name": "Update email",
        "type": "scenario",
        "steps": [
          {"keyword": "Given ", "name": "a user exists", "match": {"location": "users_test.go:21"}, "result": {"status": "passed", "duration": 1200}},
          {"keyword": "When ", "name": "I change the email", "match": {"location": "users_test.go:40"}, "result": {"status": "failed", "error_message": "expected email to change, got old value"}},
          {"keyword": "Then ", "name": "the new email is stored", "match": {"location": "users_test.go:55"}, "result": {"status": "skipped"}}
        ]
      },
      {
        "keyword": "Scenario",
        "name": "List users",
        "type": "scenario",
        "steps": [
          {"keyword": "When ", "name": "I list users", "result": {"status": "passed"}}
        ]
      },
      {
        "keyword": "Scenario",
        "name": "Pending work",
        "type": "scenario",
        "steps": [
          {"keyword": "When ", "name": "something pending", "result": {"status": "pending"}}
        ]
      }
    ]
  }
]`

func TestDecodeGodogReport(t *testing.T) {
	features, err := NewDecoder().Decode(strings.NewReader(godogReport))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(features) != 1 || len(features[0].Scenarios) != 3 {
		t.Fatalf("unexpected shape: %+v", features)
	}

	update := features[0].Scenarios[0]
	if update.Status != "failed" {
		t.Fatalf("expected failed status derived from steps, got %q", update.Status)
	}
	failing := update.Steps[1]
	if failing.Keyword != "When" || failing.Location != "users_test.go:40" {
		t.Fatalf("unexpected step conversion: %+v", failing)
	}
	if failing.Message != "expected email to change, got old value" {
		t.Fatalf("unexpected message %q", failing.Message)
	}

	if got := features[0].Scenarios[1].Status; got != "passed" {
		t.Fatalf("expected passed, got %q", got)
	}
	if got := features[0].Scenarios[2].Status; got != "skipped" {
		t.Fatalf("pending steps should make the scenario skipped, got %q", got)
	}
}

func TestDecodeFeatureNameFallsBackToURI(t *testing.T) {
	features, err := NewDecoder().Decode(strings.NewReader(`[{"uri":"features/a.feature","elements":[]}]`))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if features[0].Name != "features/a.feature" {
		t.Fatalf("expected uri fallback, got %q", features[0].Name)
	}
}
