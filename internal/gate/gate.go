// Package gate classifies satisfaction scores against deployment thresholds.
package gate

import "github.com/bgricker/specdrive/internal/report"

// Evaluate returns Ready when score >= threshold. The score is compared as
// given, so values above 1.0 still pass any threshold up to 1.0.
func Evaluate(score, threshold float64) report.Readiness {
	if score >= threshold {
		return report.Ready
	}
	return report.NotReady
}

// Tier returns the highest environment whose threshold the score meets.
func Tier(score float64, thresholds report.ThresholdSet) report.Tier {
	switch {
	case score >= thresholds.Production:
		return report.TierProduction
	case score >= thresholds.Staging:
		return report.TierStaging
	case score >= thresholds.Dev:
		return report.TierDev
	default:
		return report.TierNone
	}
}

// Verdict gates a score against the production threshold and records the
// tier it reached.
func Verdict(score report.SatisfactionScore, thresholds report.ThresholdSet) report.DeploymentVerdict {
	return report.DeploymentVerdict{
		Readiness: Evaluate(score.Value, thresholds.Production),
		Threshold: thresholds.Production,
		Tier:      Tier(score.Value, thresholds),
	}
}
