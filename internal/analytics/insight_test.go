package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildInsightPayload(t *testing.T) {
	a := FeedbackRecord{Department: "Eng", EngagementScore: 4, CohesionScore: 4, FrictionLevel: 1, TeamGoal: GoalImprove}
	a.Comments[0] = "pairing helps"
	b := FeedbackRecord{Department: "Eng", EngagementScore: 3, CohesionScore: 3, FrictionLevel: 2, TeamGoal: GoalImprove}
	b.Comments[3] = "too many meetings"

	p := BuildInsightPayload("Eng", []FeedbackRecord{a, b})
	assert.Equal(t, "Eng", p.DepartmentName)
	assert.Equal(t, 3.5, p.AvgEngagement)
	assert.Equal(t, 1.5, p.AvgFriction)
	assert.Equal(t, map[TeamGoal]int{GoalMaintain: 0, GoalImprove: 2, GoalResolve: 0}, p.TeamGoalDistribution)
	assert.Equal(t, []string{"pairing helps", "too many meetings"}, p.VerbalComments)
}

func TestBuildInsightPayloadEmpty(t *testing.T) {
	p := BuildInsightPayload("Ops", nil)
	assert.Zero(t, p.AvgEngagement)
	assert.Empty(t, p.VerbalComments)
	assert.Len(t, p.TeamGoalDistribution, 3)
}

func TestFirstComments(t *testing.T) {
	p := InsightPayload{VerbalComments: []string{"1", "2", "3", "4", "5", "6"}}
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, p.FirstComments(InsightCommentLimit))
	assert.Len(t, p.FirstComments(10), 6)
}
