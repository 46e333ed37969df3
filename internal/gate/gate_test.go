package gate

import (
	"testing"

	"github.com/bgricker/specdrive/internal/report"
)

func TestEvaluate(t *testing.T) {
	cases := []struct {
		score     float64
		threshold float64
		want      report.Readiness
	}{
		{1.0, 0.95, report.Ready},
		{0.95, 0.95, report.Ready},
		{0.949, 0.95, report.NotReady},
		{0.4, 0.95, report.NotReady},
		{1.4, 0.95, report.Ready},
		{1.4, 1.0, report.Ready},
		{-0.1, 0, report.NotReady},
		{0, 0, report.Ready},
	}
	for _, tc := range cases {
		if got := Evaluate(tc.score, tc.threshold); got != tc.want {
			t.Fatalf("Evaluate(%v, %v) = %s, want %s", tc.score, tc.threshold, got, tc.want)
		}
	}
}

func TestEvaluateIsMonotonic(t *testing.T) {
	for _, threshold := range []float64{0, 0.5, 0.7, 0.8, 0.95, 1} {
		prev := report.NotReady
		for i := -20; i <= 150; i++ {
			score := float64(i) / 100
			got := Evaluate(score, threshold)
			if prev == report.Ready && got == report.NotReady {
				t.Fatalf("threshold %v: score %v flipped ready to not_ready", threshold, score)
			}
			prev = got
		}
	}
}

func TestPerfectScoreReadyAtAnyThreshold(t *testing.T) {
	for i := 0; i <= 100; i++ {
		threshold := float64(i) / 100
		if Evaluate(1.0, threshold) != report.Ready {
			t.Fatalf("score 1.0 not ready at threshold %v", threshold)
		}
	}
}

func TestTier(t *testing.T) {
	th := report.DefaultThresholds()
	cases := map[float64]report.Tier{
		1.0:  report.TierProduction,
		0.95: report.TierProduction,
		0.9:  report.TierStaging,
		0.8:  report.TierStaging,
		0.75: report.TierDev,
		0.7:  report.TierDev,
		0.4:  report.TierNone,
	}
	for score, want := range cases {
		if got := Tier(score, th); got != want {
			t.Fatalf("Tier(%v) = %s, want %s", score, got, want)
		}
	}
}

func TestVerdict(t *testing.T) {
	v := Verdict(report.SatisfactionScore{Value: 0.4}, report.DefaultThresholds())
	if v.Ready() {
		t.Fatalf("expected not ready, got %+v", v)
	}
	if v.Threshold != 0.95 || v.Tier != report.TierNone {
		t.Fatalf("unexpected verdict %+v", v)
	}
}
