package services

import (
	"context"
	"strings"
	"time"

	"github.com/soaringjerry/growpoint/internal/analytics"
)

type Role string

const (
	RoleEmployee Role = "Employee"
	RoleManager  Role = "Manager"
	RoleHR       Role = "HR"
	RoleAdmin    Role = "Admin"
)

// ParseRole accepts any casing and defaults to Employee.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "manager":
		return RoleManager
	case "hr":
		return RoleHR
	case "admin":
		return RoleAdmin
	default:
		return RoleEmployee
	}
}

// Privileged roles see organisation-wide data and need an access code.
func (r Role) Privileged() bool { return r == RoleHR || r == RoleAdmin }

// CanTargetDepartment reports whether the role may attribute work to a
// department other than its own.
func (r Role) CanTargetDepartment() bool { return r != RoleEmployee }

// Employee is a roster row.
type Employee struct {
	EmployeeID   int    `json:"employeeId"`
	Department   string `json:"department"`
	EmployeeName string `json:"employeeName"`
	Role         Role   `json:"role"`
}

// Principal is the authenticated caller, as carried in the session token.
type Principal struct {
	EmployeeID int    `json:"employeeId"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Role       Role   `json:"role"`
}

// Submission is the write payload for one completed survey.
type Submission struct {
	ID             string
	Department     string
	UserDepartment string
	EmployeeID     *int
	Responses      analytics.SurveyResponseSet
	Scores         analytics.Scores
	TeamGoal       analytics.TeamGoal
	ResponseDate   time.Time
	SessionID      string
	Comments       [analytics.QuestionCount]string
}

// Record projects the submission onto the row shape the engine aggregates.
func (s *Submission) Record() analytics.FeedbackRecord {
	return analytics.FeedbackRecord{
		ID:              s.ID,
		Department:      s.Department,
		EmployeeID:      s.EmployeeID,
		EngagementScore: s.Scores.EngagementScore,
		CohesionScore:   s.Scores.CohesionScore,
		FrictionLevel:   s.Scores.FrictionLevel,
		TeamGoal:        s.TeamGoal,
		ResponseDate:    s.ResponseDate,
		Comments:        s.Comments,
	}
}

// RosterStore reads the employee roster.
type RosterStore interface {
	// FindEmployee returns nil, nil when no row matches.
	FindEmployee(ctx context.Context, employeeID int) (*Employee, error)
	// CountEmployees counts roster rows in department, or all rows when department is empty.
	CountEmployees(ctx context.Context, department string) (int, error)
	ListDepartments(ctx context.Context) ([]string, error)
}

// RosterWriter is implemented by stores that accept roster imports.
type RosterWriter interface {
	UpsertEmployee(ctx context.Context, e *Employee) error
}

// FeedbackStore persists submissions and returns them as aggregation rows.
// An empty department means every department.
type FeedbackStore interface {
	InsertFeedback(ctx context.Context, sub *Submission) error
	ListFeedback(ctx context.Context, department string) ([]analytics.FeedbackRecord, error)
	ListResponseSets(ctx context.Context, department string) ([]analytics.SurveyResponseSet, error)
}
