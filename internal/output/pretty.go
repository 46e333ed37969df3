package output

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/bgricker/specdrive/internal/report"
)

var separator = strings.Repeat("=", 80)

// PrettyRenderer renders an evaluation as the human-readable report shown
// to the code-generation agent.
type PrettyRenderer struct {
	out io.Writer
}

// NewPretty creates a PrettyRenderer writing to the provided writer.
func NewPretty(out io.Writer) *PrettyRenderer {
	return &PrettyRenderer{out: out}
}

// Render writes the formatted evaluation. Run metadata is not part of the
// text so identical evaluations render identically.
func (p *PrettyRenderer) Render(r Report) error {
	_, err := io.WriteString(p.out, Format(r.Evaluation))
	return err
}

// Format renders ev as text. The result depends only on ev.
func Format(ev report.Evaluation) string {
	var b strings.Builder

	b.WriteString("\n" + separator + "\n")
	b.WriteString(headline(ev))
	b.WriteString("\n" + separator + "\n\n")

	if !hasData(ev) {
		fmt.Fprintf(&b, "No data: %s\n", describeStatus(ev.Status))
	}
	fmt.Fprintf(&b, "Summary: %d passed, %d failed, %d skipped (%d total)\n",
		ev.Summary.Passed, ev.Summary.Failed, ev.Summary.Skipped, ev.Summary.Total)

	if ev.Score != nil {
		fmt.Fprintf(&b, "\nReasoning: %s\n", strings.TrimSpace(ev.Score.Rationale))
	}
	if ev.Verdict != nil {
		b.WriteString("\n")
		b.WriteString(readinessLine(*ev.Verdict))
		fmt.Fprintf(&b, "Deployment tier: %s\n", ev.Verdict.Tier)
	}

	if feedback := strings.TrimSpace(ev.Feedback); feedback != "" {
		b.WriteString("\n" + separator + "\n\n")
		b.WriteString("BEHAVIORAL FEEDBACK:\n")
		b.WriteString(feedback)
		b.WriteString("\n")
	}

	b.WriteString("\n" + separator + "\n")
	return b.String()
}

func headline(ev report.Evaluation) string {
	switch {
	case !hasData(ev):
		return "⚪ NO DATA - no scenarios were evaluated"
	case ev.Summary.Failed == 0 && ev.Summary.Passed == 0:
		line := fmt.Sprintf("⚪ NO FAILURES - all %d scenarios skipped", ev.Summary.Skipped)
		if ev.Score != nil {
			line += fmt.Sprintf(" - Satisfaction: %.2f/1.00", ev.Score.Value)
		}
		return line
	case ev.Summary.Failed == 0 && ev.Score != nil:
		return fmt.Sprintf("🟢 ALL TESTS PASSED - Satisfaction: %.2f/1.00", ev.Score.Value)
	case ev.Summary.Failed == 0:
		return "🟢 ALL TESTS PASSED"
	case ev.Score == nil:
		return fmt.Sprintf("Test Results: %d failed", ev.Summary.Failed)
	default:
		glyph, label := Bucket(ev.Score.Value)
		return fmt.Sprintf("%s TEST RESULTS - Satisfaction: %.2f/1.00 (%s)", glyph, ev.Score.Value, label)
	}
}

// Bucket returns the cosmetic glyph and label for a score. The boundaries
// are independent of the deployment thresholds.
func Bucket(score float64) (glyph, label string) {
	switch {
	case score >= 0.9:
		return "🟢", "Excellent"
	case score >= 0.7:
		return "🟡", "Good"
	case score >= 0.4:
		return "🟠", "Moderate"
	default:
		return "🔴", "Poor"
	}
}

func readinessLine(v report.DeploymentVerdict) string {
	if v.Ready() {
		return "Deployment status: ✅ Ready for production\n"
	}
	return fmt.Sprintf("Deployment status: ❌ Not ready (need %s%% to deploy)\n", percent(v.Threshold))
}

func percent(f float64) string {
	return fmt.Sprintf("%g", math.Round(f*1000)/10)
}

func hasData(ev report.Evaluation) bool {
	return ev.Status == report.DataComplete && ev.Summary.Total > 0
}

func describeStatus(status report.DataStatus) string {
	switch status {
	case report.DataMissing:
		return "the test runner exited without writing a report"
	case report.DataTimedOut:
		return "the test runner timed out"
	case report.DataUnreadable:
		return "the test report could not be read"
	default:
		return "the test report contained no scenarios"
	}
}
