// Package analytics turns raw survey answers and feedback rows into the scores,
// rollups, trends and classifications rendered by the dashboards.
//
// Everything in this package is pure: no I/O, no shared state, and every function
// is total over empty input.
package analytics

import "time"

// QuestionCount is the size of the fixed sociometric survey.
const QuestionCount = 7

// MaxScore is the upper bound of every stored score.
const MaxScore = 5.0

// SurveyResponseSet maps a question index (0..6) to a Likert answer (1..5).
type SurveyResponseSet map[int]int

// Scores are the three values derived from one response set.
type Scores struct {
	EngagementScore float64 `json:"engagementScore"`
	CohesionScore   float64 `json:"cohesionScore"`
	FrictionLevel   float64 `json:"frictionLevel"`
}

type TeamGoal string

const (
	GoalMaintain TeamGoal = "Maintain"
	GoalImprove  TeamGoal = "Improve"
	GoalResolve  TeamGoal = "Resolve"
)

// TeamGoals is the closed set of goals, in display order.
var TeamGoals = []TeamGoal{GoalMaintain, GoalImprove, GoalResolve}

// Valid reports whether g belongs to the closed goal set.
func (g TeamGoal) Valid() bool {
	switch g {
	case GoalMaintain, GoalImprove, GoalResolve:
		return true
	}
	return false
}

// FeedbackRecord is one persisted anonymous survey submission.
type FeedbackRecord struct {
	ID              string    `json:"id"`
	Department      string    `json:"department"`
	EmployeeID      *int      `json:"employeeId,omitempty"`
	EngagementScore float64   `json:"engagementScore"`
	CohesionScore   float64   `json:"cohesionScore"`
	FrictionLevel   float64   `json:"frictionLevel"`
	TeamGoal        TeamGoal  `json:"teamGoal,omitempty"`
	ResponseDate    time.Time `json:"responseDate"`
	// Comments holds the optional free-text answer for Q1..Q7.
	Comments [QuestionCount]string `json:"comments"`
}

type OverallMetrics struct {
	AvgEngagement float64 `json:"avgEngagement"`
	AvgCohesion   float64 `json:"avgCohesion"`
	AvgFriction   float64 `json:"avgFriction"`
}

type DepartmentMetric struct {
	Department        string    `json:"department"`
	AvgEngagement     float64   `json:"avgEngagement"`
	AvgCohesion       float64   `json:"avgCohesion"`
	AvgFriction       float64   `json:"avgFriction"`
	ResponseCount     int       `json:"responseCount"`
	EmployeeCount     int       `json:"employeeCount"`
	EngagementSamples []float64 `json:"engagementSamples"`
	EngagementStdDev  float64   `json:"engagementStdDev"`
}

type TrendPoint struct {
	Key        string  `json:"key"`
	Label      string  `json:"label"`
	Engagement float64 `json:"engagement"`
	Cohesion   float64 `json:"cohesion"`
	Friction   float64 `json:"friction"`
	Responses  int     `json:"responses"`
}

type ParticipationEntry struct {
	Name    string `json:"name"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// ParticipationBreakdown always holds Responded first, Not Responded second.
type ParticipationBreakdown [2]ParticipationEntry

func (p ParticipationBreakdown) Responded() ParticipationEntry    { return p[0] }
func (p ParticipationBreakdown) NotResponded() ParticipationEntry { return p[1] }

type GoalCount struct {
	Goal  TeamGoal `json:"goal"`
	Count int      `json:"count"`
}

type HeatColor string

const (
	HeatGreen  HeatColor = "green"
	HeatYellow HeatColor = "yellow"
	HeatRed    HeatColor = "red"
)

type BubblePoint struct {
	Department    string    `json:"department"`
	Engagement    float64   `json:"engagement"`
	Friction      float64   `json:"friction"`
	ResponseCount int       `json:"responseCount"`
	Color         HeatColor `json:"color"`
}

// RiskLevel is shared by the department risk classifier and the team-health
// indicator; the two use different threshold tables.
type RiskLevel string

const (
	Healthy        RiskLevel = "Healthy"
	AtRisk         RiskLevel = "At Risk"
	NeedsAttention RiskLevel = "Needs Attention"
)

type Bucket int

const (
	BucketWeek Bucket = iota
	BucketMonth
)
