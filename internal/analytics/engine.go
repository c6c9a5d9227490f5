package analytics

import (
	"math"
	"sort"
	"strings"
)

// Overall averages the three scores across records. It returns nil for
// an empty collection so callers can render "no data" instead of zeros.
func Overall(records []FeedbackRecord) *OverallMetrics {
	if len(records) == 0 {
		return nil
	}
	var e, c, f float64
	for _, r := range records {
		e += clampEngagement(r.EngagementScore)
		c += r.CohesionScore
		f += r.FrictionLevel
	}
	n := float64(len(records))
	return &OverallMetrics{AvgEngagement: e / n, AvgCohesion: c / n, AvgFriction: f / n}
}

type departmentAcc struct {
	name      string
	samples   []float64
	cohesion  []float64
	friction  []float64
	employees map[int]struct{}
}

// DepartmentMetrics groups records by department in order of first appearance.
func DepartmentMetrics(records []FeedbackRecord) []DepartmentMetric {
	index := map[string]int{}
	var groups []*departmentAcc
	for _, r := range records {
		i, ok := index[r.Department]
		if !ok {
			i = len(groups)
			index[r.Department] = i
			groups = append(groups, &departmentAcc{name: r.Department, employees: map[int]struct{}{}})
		}
		g := groups[i]
		g.samples = append(g.samples, clampEngagement(r.EngagementScore))
		g.cohesion = append(g.cohesion, r.CohesionScore)
		g.friction = append(g.friction, r.FrictionLevel)
		if r.EmployeeID != nil {
			g.employees[*r.EmployeeID] = struct{}{}
		}
	}

	out := make([]DepartmentMetric, 0, len(groups))
	for _, g := range groups {
		employees := len(g.employees)
		if employees == 0 {
			employees = len(g.samples)
		}
		out = append(out, DepartmentMetric{
			Department:        g.name,
			AvgEngagement:     Round1(Mean(g.samples)),
			AvgCohesion:       Round1(Mean(g.cohesion)),
			AvgFriction:       Round1(Mean(g.friction)),
			ResponseCount:     len(g.samples),
			EmployeeCount:     employees,
			EngagementSamples: g.samples,
			EngagementStdDev:  StandardDeviation(g.samples),
		})
	}
	return out
}

type trendAcc struct {
	label      string
	engagement []float64
	cohesion   []float64
	friction   []float64
}

// EngagementTrend buckets records by week or month and returns points sorted
// by bucket key.
func EngagementTrend(records []FeedbackRecord, bucket Bucket) []TrendPoint {
	buckets := map[string]*trendAcc{}
	for _, r := range records {
		var key, label string
		if bucket == BucketMonth {
			key, label = MonthBucketKey(r.ResponseDate), MonthLabel(r.ResponseDate)
		} else {
			start := WeekStart(r.ResponseDate)
			key, label = WeekBucketKey(start), WeekLabel(start)
		}
		acc := buckets[key]
		if acc == nil {
			acc = &trendAcc{label: label}
			buckets[key] = acc
		}
		acc.engagement = append(acc.engagement, clampEngagement(r.EngagementScore))
		acc.cohesion = append(acc.cohesion, r.CohesionScore)
		acc.friction = append(acc.friction, r.FrictionLevel)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]TrendPoint, 0, len(keys))
	for _, k := range keys {
		acc := buckets[k]
		out = append(out, TrendPoint{
			Key:        k,
			Label:      acc.label,
			Engagement: Round1(Mean(acc.engagement)),
			Cohesion:   Round1(Mean(acc.cohesion)),
			Friction:   Round1(Mean(acc.friction)),
			Responses:  len(acc.engagement),
		})
	}
	return out
}

// RespondedCount is the number of distinct employee ids among records.
func RespondedCount(records []FeedbackRecord) int {
	seen := map[int]struct{}{}
	for _, r := range records {
		if r.EmployeeID != nil {
			seen[*r.EmployeeID] = struct{}{}
		}
	}
	return len(seen)
}

// Participation compares distinct responding employees with the roster size.
// Percentages are 0 when the roster is empty.
func Participation(records []FeedbackRecord, rosterSize int) ParticipationBreakdown {
	responded := RespondedCount(records)
	notResponded := rosterSize - responded
	if notResponded < 0 {
		notResponded = 0
	}
	return ParticipationBreakdown{
		{Name: "Responded", Count: responded, Percent: percentOf(responded, rosterSize)},
		{Name: "Not Responded", Count: notResponded, Percent: percentOf(notResponded, rosterSize)},
	}
}

func percentOf(count, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(count)/float64(total)*100 + 0.5))
}

// TeamGoalDistribution counts records per goal. Goals outside the closed set
// are skipped. Every known goal is present in the result, in display order.
func TeamGoalDistribution(records []FeedbackRecord) []GoalCount {
	counts := map[TeamGoal]int{}
	for _, r := range records {
		if r.TeamGoal.Valid() {
			counts[r.TeamGoal]++
		}
	}
	out := make([]GoalCount, 0, len(TeamGoals))
	for _, g := range TeamGoals {
		out = append(out, GoalCount{Goal: g, Count: counts[g]})
	}
	return out
}

// GoalCountMap is the mapping form used by the insight payload.
func GoalCountMap(goals []GoalCount) map[TeamGoal]int {
	out := make(map[TeamGoal]int, len(goals))
	for _, g := range goals {
		out[g.Goal] = g.Count
	}
	return out
}

// HighRiskDepartmentCount counts departments classified Needs Attention.
func HighRiskDepartmentCount(metrics []DepartmentMetric) int {
	n := 0
	for _, m := range metrics {
		if FrictionClassification(m.AvgFriction) == NeedsAttention {
			n++
		}
	}
	return n
}

// BubbleHeatmapData colors each department for the engagement/friction bubble chart.
func BubbleHeatmapData(metrics []DepartmentMetric) []BubblePoint {
	out := make([]BubblePoint, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, BubblePoint{
			Department:    m.Department,
			Engagement:    m.AvgEngagement,
			Friction:      m.AvgFriction,
			ResponseCount: m.ResponseCount,
			Color:         HeatmapColor(m.AvgFriction, m.AvgEngagement),
		})
	}
	return out
}

// VerbalComments flattens non-blank comments in record order, then Q1..Q7.
func VerbalComments(records []FeedbackRecord) []string {
	out := []string{}
	for _, r := range records {
		for _, c := range r.Comments {
			if c = strings.TrimSpace(c); c != "" {
				out = append(out, c)
			}
		}
	}
	return out
}
