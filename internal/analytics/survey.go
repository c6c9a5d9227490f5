package analytics

import "math"

// ComputeMetrics derives engagement, cohesion and friction from one response set.
// Cohesion mirrors engagement; the survey has no separate cohesion items yet.
// Values are not range-checked here.
func ComputeMetrics(responses SurveyResponseSet) Scores {
	if len(responses) == 0 {
		return Scores{}
	}
	sum := 0
	for _, v := range responses {
		sum += v
	}
	engagement := float64(sum) / float64(len(responses))
	return Scores{
		EngagementScore: engagement,
		CohesionScore:   engagement,
		FrictionLevel:   MaxScore - engagement,
	}
}

// ClampScore bounds v to [0,5] and rounds it to one decimal place.
// The second result is true when v was above the upper bound.
func ClampScore(v float64) (float64, bool) {
	over := v > MaxScore
	switch {
	case math.IsNaN(v):
		v = 0
	case over:
		v = MaxScore
	case v < 0:
		v = 0
	}
	return Round1(v), over
}

// Clamp bounds engagement with ClampScore and derives cohesion and friction
// from the stored value, so friction is always 5 minus stored engagement.
// It reports whether engagement was above the upper bound.
func (s Scores) Clamp() (Scores, bool) {
	e, over := ClampScore(s.EngagementScore)
	return Scores{EngagementScore: e, CohesionScore: e, FrictionLevel: Round1(MaxScore - e)}, over
}

// Round1 rounds half up to one decimal place.
func Round1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

func clampEngagement(v float64) float64 {
	c, _ := ClampScore(v)
	return c
}
