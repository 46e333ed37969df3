package provider

import "github.com/bgricker/specdrive/internal/report"

// DeriveStatus computes a scenario status from its steps for report formats
// that only record step results: any failure wins, then all-passed, else skipped.
func DeriveStatus(steps []Step) string {
	if len(steps) == 0 {
		return report.StatusSkipped
	}
	allPassed := true
	for _, step := range steps {
		switch step.Status {
		case report.StatusFailed, report.StatusError:
			return report.StatusFailed
		case report.StatusPassed:
		default:
			allPassed = false
		}
	}
	if allPassed {
		return report.StatusPassed
	}
	return report.StatusSkipped
}
