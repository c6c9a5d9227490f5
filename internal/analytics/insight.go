package analytics

// InsightPayload is the request body handed to the AI insight collaborator.
type InsightPayload struct {
	DepartmentName       string           `json:"departmentName"`
	AvgEngagement        float64          `json:"avgEngagement"`
	AvgCohesion          float64          `json:"avgCohesion"`
	AvgFriction          float64          `json:"avgFriction"`
	TeamGoalDistribution map[TeamGoal]int `json:"teamGoalDistribution"`
	VerbalComments       []string         `json:"verbalComments"`
}

// InsightCommentLimit is how many comments the collaborator reads.
const InsightCommentLimit = 5

// BuildInsightPayload summarises records for one department. Averages are
// rounded to one decimal; all comments are included and the collaborator
// truncates.
func BuildInsightPayload(department string, records []FeedbackRecord) InsightPayload {
	p := InsightPayload{
		DepartmentName:       department,
		TeamGoalDistribution: GoalCountMap(TeamGoalDistribution(records)),
		VerbalComments:       VerbalComments(records),
	}
	if o := Overall(records); o != nil {
		p.AvgEngagement = Round1(o.AvgEngagement)
		p.AvgCohesion = Round1(o.AvgCohesion)
		p.AvgFriction = Round1(o.AvgFriction)
	}
	return p
}

// FirstComments returns at most n leading comments.
func (p InsightPayload) FirstComments(n int) []string {
	if n < 0 || len(p.VerbalComments) <= n {
		return p.VerbalComments
	}
	return p.VerbalComments[:n]
}
