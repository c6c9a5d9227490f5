package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/soaringjerry/growpoint/internal/analytics"
)

// Dashboard views, also used as superseding keys.
const (
	ViewEmployee = "employee"
	ViewManager  = "manager"
	ViewHR       = "hr"
	ViewAdmin    = "admin"
)

type EmployeeDashboard struct {
	Department     string                    `json:"department"`
	HasData        bool                      `json:"hasData"`
	ResponseCount  int                       `json:"responseCount"`
	Overall        *analytics.OverallMetrics `json:"overall"`
	Classification analytics.RiskLevel       `json:"classification,omitempty"`
	// TeamHealth uses engagement on the 0-10 personal scale.
	TeamHealth analytics.RiskLevel `json:"teamHealth,omitempty"`
}

type ManagerDashboard struct {
	Department     string                           `json:"department"`
	HasData        bool                             `json:"hasData"`
	Overall        *analytics.OverallMetrics        `json:"overall"`
	Metric         *analytics.DepartmentMetric      `json:"metric"`
	Trend          []analytics.TrendPoint           `json:"trend"`
	RosterSize     int                              `json:"rosterSize"`
	Participation  analytics.ParticipationBreakdown `json:"participation"`
	TeamGoals      []analytics.GoalCount            `json:"teamGoals"`
	Classification analytics.RiskLevel              `json:"classification,omitempty"`
	TeamHealth     analytics.RiskLevel              `json:"teamHealth,omitempty"`
	CommentCount   int                              `json:"commentCount"`
}

type Reliability struct {
	Alpha float64 `json:"alpha"`
	N     int     `json:"n"`
}

type HRDashboard struct {
	HasData       bool                         `json:"hasData"`
	ResponseCount int                          `json:"responseCount"`
	Overall       *analytics.OverallMetrics    `json:"overall"`
	Departments   []analytics.DepartmentMetric `json:"departments"`
	Trend         []analytics.TrendPoint       `json:"trend"`
	HighRiskCount int                          `json:"highRiskCount"`
	Heatmap       []analytics.BubblePoint      `json:"heatmap"`
	TeamGoals     []analytics.GoalCount        `json:"teamGoals"`
	Reliability   Reliability                  `json:"reliability"`
}

type DepartmentParticipation struct {
	Department    string                           `json:"department"`
	RosterSize    int                              `json:"rosterSize"`
	Participation analytics.ParticipationBreakdown `json:"participation"`
}

type AdminDashboard struct {
	HRDashboard
	RosterTotal   int                       `json:"rosterTotal"`
	Participation []DepartmentParticipation `json:"participation"`
}

type DashboardService struct {
	roster     RosterStore
	feedback   FeedbackStore
	supersede  *Superseder
	log        *logrus.Entry
	onClamp    ClampRecorder
	onSupersed func(view string)
}

func NewDashboardService(roster RosterStore, feedback FeedbackStore, log *logrus.Entry) *DashboardService {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &DashboardService{
		roster:    roster,
		feedback:  feedback,
		supersede: NewSuperseder(),
		log:       log,
	}
}

// Observe wires counters for clamp events and superseded requests.
func (s *DashboardService) Observe(onClamp ClampRecorder, onSuperseded func(view string)) {
	s.onClamp = onClamp
	s.onSupersed = onSuperseded
}

// begin starts a superseding-aware request keyed by caller, target department
// and view. The returned end func must be called with the request's error; it
// turns stale requests into ErrSuperseded.
func (s *DashboardService) begin(ctx context.Context, caller Principal, view, department string) (context.Context, func(error) error) {
	key := strconv.Itoa(caller.EmployeeID) + ":" + strings.ToLower(department) + ":" + view
	ctx, finish := s.supersede.Begin(ctx, key)
	return ctx, func(err error) error {
		if !finish() {
			if s.onSupersed != nil {
				s.onSupersed(view)
			}
			return ErrSuperseded
		}
		return err
	}
}

// fetch loads feedback rows and the roster size for department concurrently.
func (s *DashboardService) fetch(ctx context.Context, department string) ([]analytics.FeedbackRecord, int, error) {
	var records []analytics.FeedbackRecord
	var roster int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.feedback.ListFeedback(gctx, department)
		if err != nil {
			return fmt.Errorf("list feedback: %w", err)
		}
		records = rows
		return nil
	})
	g.Go(func() error {
		n, err := s.roster.CountEmployees(gctx, department)
		if err != nil {
			return fmt.Errorf("count employees: %w", err)
		}
		roster = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	s.reportOutOfRange(records)
	return records, roster, nil
}

func (s *DashboardService) reportOutOfRange(records []analytics.FeedbackRecord) {
	for _, r := range records {
		if r.EngagementScore > analytics.MaxScore {
			s.log.WithFields(logrus.Fields{
				"record_id":  r.ID,
				"department": r.Department,
				"engagement": r.EngagementScore,
			}).Warn("stored engagement above range, clamping for aggregation")
			if s.onClamp != nil {
				s.onClamp("engagement_read")
			}
		}
	}
}

func teamHealth(o *analytics.OverallMetrics) analytics.RiskLevel {
	return analytics.EngagementCohesionHealth(o.AvgFriction, analytics.PersonalScale(o.AvgEngagement))
}

// Employee summarises the caller's own department.
func (s *DashboardService) Employee(ctx context.Context, caller Principal) (_ *EmployeeDashboard, err error) {
	if strings.TrimSpace(caller.Department) == "" {
		return nil, NewInvalidError("department required")
	}
	ctx, end := s.begin(ctx, caller, ViewEmployee, caller.Department)
	defer func() { err = end(err) }()

	records, _, err := s.fetch(ctx, caller.Department)
	if err != nil {
		return nil, err
	}
	out := &EmployeeDashboard{Department: caller.Department, ResponseCount: len(records)}
	if o := analytics.Overall(records); o != nil {
		out.HasData = true
		out.Overall = o
		out.Classification = analytics.FrictionClassification(o.AvgFriction)
		out.TeamHealth = teamHealth(o)
	}
	return out, nil
}

// Manager builds the department dashboard. Managers see only their own
// department; HR and Admin may pick any. A newer request for the same
// department by the same caller supersedes an older one; requests for
// different departments run independently.
func (s *DashboardService) Manager(ctx context.Context, caller Principal, department string) (_ *ManagerDashboard, err error) {
	department, err = s.resolveDepartment(caller, department)
	if err != nil {
		return nil, err
	}
	ctx, end := s.begin(ctx, caller, ViewManager, department)
	defer func() { err = end(err) }()

	records, roster, err := s.fetch(ctx, department)
	if err != nil {
		return nil, err
	}
	out := &ManagerDashboard{
		Department:    department,
		Trend:         analytics.EngagementTrend(records, analytics.BucketWeek),
		RosterSize:    roster,
		Participation: analytics.Participation(records, roster),
		TeamGoals:     analytics.TeamGoalDistribution(records),
		CommentCount:  len(analytics.VerbalComments(records)),
	}
	if o := analytics.Overall(records); o != nil {
		out.HasData = true
		out.Overall = o
		out.Classification = analytics.FrictionClassification(o.AvgFriction)
		out.TeamHealth = teamHealth(o)
	}
	if metrics := analytics.DepartmentMetrics(records); len(metrics) > 0 {
		m := mergeDepartmentMetrics(department, records, metrics)
		out.Metric = &m
	}
	return out, nil
}

// mergeDepartmentMetrics collapses rows whose department differs only in case
// into the requested department's single metric.
func mergeDepartmentMetrics(department string, records []analytics.FeedbackRecord, metrics []analytics.DepartmentMetric) analytics.DepartmentMetric {
	if len(metrics) == 1 {
		return metrics[0]
	}
	normalized := make([]analytics.FeedbackRecord, len(records))
	for i, r := range records {
		r.Department = department
		normalized[i] = r
	}
	return analytics.DepartmentMetrics(normalized)[0]
}

func (s *DashboardService) resolveDepartment(caller Principal, department string) (string, error) {
	department = strings.TrimSpace(department)
	switch caller.Role {
	case RoleHR, RoleAdmin:
		if department == "" {
			department = caller.Department
		}
	case RoleManager:
		if department != "" && !strings.EqualFold(department, caller.Department) {
			return "", NewForbiddenError("managers can only view their own department")
		}
		department = caller.Department
	default:
		return "", NewForbiddenError("department dashboard requires a manager role")
	}
	if department == "" {
		return "", NewInvalidError("department required")
	}
	return department, nil
}

// HR builds the organisation-wide dashboard.
func (s *DashboardService) HR(ctx context.Context, caller Principal) (_ *HRDashboard, err error) {
	if !caller.Role.Privileged() {
		return nil, NewForbiddenError("organisation dashboard requires HR or Admin")
	}
	ctx, end := s.begin(ctx, caller, ViewHR, "")
	defer func() { err = end(err) }()
	out, _, err := s.organisation(ctx)
	return out, err
}

func (s *DashboardService) organisation(ctx context.Context) (*HRDashboard, []analytics.FeedbackRecord, error) {
	var records []analytics.FeedbackRecord
	var sets []analytics.SurveyResponseSet
	var rosterDepts []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		depts, err := s.roster.ListDepartments(gctx)
		if err != nil {
			return fmt.Errorf("list departments: %w", err)
		}
		rosterDepts = depts
		return nil
	})
	g.Go(func() error {
		rows, err := s.feedback.ListFeedback(gctx, "")
		if err != nil {
			return fmt.Errorf("list feedback: %w", err)
		}
		records = rows
		return nil
	})
	g.Go(func() error {
		rs, err := s.feedback.ListResponseSets(gctx, "")
		if err != nil {
			return fmt.Errorf("list response sets: %w", err)
		}
		sets = rs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	s.reportOutOfRange(records)
	records = foldDepartments(records, rosterDepts)
	return buildHRDashboard(records, sets), records, nil
}

// foldDepartments rewrites department names that differ only in case to one
// spelling: the roster's when it has one, else the first seen in records.
func foldDepartments(records []analytics.FeedbackRecord, roster []string) []analytics.FeedbackRecord {
	canonical := map[string]string{}
	for _, d := range roster {
		d = strings.TrimSpace(d)
		if key := strings.ToLower(d); d != "" && canonical[key] == "" {
			canonical[key] = d
		}
	}
	out := make([]analytics.FeedbackRecord, len(records))
	for i, r := range records {
		name := strings.TrimSpace(r.Department)
		key := strings.ToLower(name)
		if c, ok := canonical[key]; ok {
			name = c
		} else {
			canonical[key] = name
		}
		r.Department = name
		out[i] = r
	}
	return out
}

// buildHRDashboard expects department names already folded by foldDepartments.
func buildHRDashboard(records []analytics.FeedbackRecord, sets []analytics.SurveyResponseSet) *HRDashboard {
	departments := analytics.DepartmentMetrics(records)
	matrix := analytics.ReliabilityMatrix(sets)
	out := &HRDashboard{
		ResponseCount: len(records),
		Overall:       analytics.Overall(records),
		Departments:   departments,
		Trend:         analytics.EngagementTrend(records, analytics.BucketMonth),
		HighRiskCount: analytics.HighRiskDepartmentCount(departments),
		Heatmap:       analytics.BubbleHeatmapData(departments),
		TeamGoals:     analytics.TeamGoalDistribution(records),
		Reliability:   Reliability{Alpha: analytics.CronbachAlpha(matrix), N: len(matrix)},
	}
	out.HasData = out.Overall != nil
	return out
}

// Admin extends the HR view with roster coverage per department.
func (s *DashboardService) Admin(ctx context.Context, caller Principal) (_ *AdminDashboard, err error) {
	if caller.Role != RoleAdmin {
		return nil, NewForbiddenError("admin dashboard requires Admin")
	}
	ctx, end := s.begin(ctx, caller, ViewAdmin, "")
	defer func() { err = end(err) }()

	hr, records, err := s.organisation(ctx)
	if err != nil {
		return nil, err
	}
	participation, total, err := s.participationByDepartment(ctx, records, hr.Departments)
	if err != nil {
		return nil, err
	}
	return &AdminDashboard{HRDashboard: *hr, RosterTotal: total, Participation: participation}, nil
}

// participationByDepartment measures every roster or feedback department
// against its roster size. It also returns the roster total.
func (s *DashboardService) participationByDepartment(ctx context.Context, records []analytics.FeedbackRecord, metrics []analytics.DepartmentMetric) ([]DepartmentParticipation, int, error) {
	rosterDepts, err := s.roster.ListDepartments(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list departments: %w", err)
	}
	names := mergeDepartmentNames(rosterDepts, metrics)

	byDept := map[string][]analytics.FeedbackRecord{}
	for _, r := range records {
		key := strings.ToLower(r.Department)
		byDept[key] = append(byDept[key], r)
	}

	sizes := make([]int, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, name := range names {
		g.Go(func() error {
			n, err := s.roster.CountEmployees(gctx, name)
			if err != nil {
				return fmt.Errorf("count employees %s: %w", name, err)
			}
			sizes[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	total := 0
	out := make([]DepartmentParticipation, 0, len(names))
	for i, name := range names {
		total += sizes[i]
		out = append(out, DepartmentParticipation{
			Department:    name,
			RosterSize:    sizes[i],
			Participation: analytics.Participation(byDept[strings.ToLower(name)], sizes[i]),
		})
	}
	return out, total, nil
}

// mergeDepartmentNames unions roster and feedback departments, case-insensitively,
// sorted by name.
func mergeDepartmentNames(roster []string, metrics []analytics.DepartmentMetric) []string {
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[strings.ToLower(name)] {
			return
		}
		seen[strings.ToLower(name)] = true
		out = append(out, name)
	}
	for _, d := range roster {
		add(d)
	}
	for _, m := range metrics {
		add(m.Department)
	}
	sort.Strings(out)
	return out
}
