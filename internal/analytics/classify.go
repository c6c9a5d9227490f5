package analytics

import "math"

// Department risk thresholds on the 0-5 friction scale.
const (
	RiskAtRiskFrom         = 2.0
	RiskNeedsAttentionFrom = 3.6
)

// FrictionClassification is the canonical department risk tier. Lower bounds
// are inclusive. NaN is treated like the zero score ClampScore maps it to.
func FrictionClassification(avgFriction float64) RiskLevel {
	switch {
	case math.IsNaN(avgFriction), avgFriction < RiskAtRiskFrom:
		return Healthy
	case avgFriction < RiskNeedsAttentionFrom:
		return AtRisk
	default:
		return NeedsAttention
	}
}

// EngagementCohesionHealth drives the team-health indicator. Engagement is on
// the 0-10 personal scale, friction on 0-5.
func EngagementCohesionHealth(friction, engagement float64) RiskLevel {
	switch {
	case friction < 2.0 && engagement > 7.5:
		return Healthy
	case (friction >= 2.0 && friction <= 3.0) || (engagement >= 6.0 && engagement <= 7.5):
		return AtRisk
	default:
		return NeedsAttention
	}
}

// PersonalScale maps a 0-5 score onto the 0-10 personal scale.
func PersonalScale(v float64) float64 {
	return v * 2
}

// HeatmapColor is the bubble chart fill; its thresholds are independent of
// FrictionClassification.
func HeatmapColor(friction, engagement float64) HeatColor {
	switch {
	case friction <= 2.5 && engagement >= 3.5:
		return HeatGreen
	case friction >= 3.6 || engagement <= 2.5:
		return HeatRed
	default:
		return HeatYellow
	}
}
