package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/soaringjerry/growpoint/internal/analytics"
)

// SubmissionRequest is the validated survey payload.
type SubmissionRequest struct {
	// Department is honoured only for roles that may target other departments.
	Department string      `json:"department" validate:"omitempty,max=120"`
	Responses  map[int]int `json:"responses" validate:"required,min=1,max=7,dive,keys,min=0,max=6,endkeys,min=1,max=5"`
	TeamGoal   string      `json:"teamGoal" validate:"omitempty,oneof=Maintain Improve Resolve"`
	Comments   []string    `json:"comments" validate:"max=7,dive,max=2000"`
}

type SubmissionResult struct {
	ID         string           `json:"id"`
	SessionID  string           `json:"sessionId"`
	Department string           `json:"department"`
	Scores     analytics.Scores `json:"scores"`
}

// ClampRecorder is told which field was clamped before persistence.
type ClampRecorder func(field string)

type SubmissionService struct {
	store       FeedbackStore
	validate    *validator.Validate
	log         *logrus.Entry
	onClamp     ClampRecorder
	now         func() time.Time
	idGenerator func() string
}

func NewSubmissionService(store FeedbackStore, log *logrus.Entry, onClamp ClampRecorder) *SubmissionService {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &SubmissionService{
		store:       store,
		validate:    validator.New(),
		log:         log,
		onClamp:     onClamp,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: uuid.NewString,
	}
}

// Submit scores one completed survey for the caller and persists it.
func (s *SubmissionService) Submit(ctx context.Context, caller Principal, req SubmissionRequest) (*SubmissionResult, error) {
	if s.store == nil {
		return nil, errors.New("submission service store is nil")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, NewInvalidError(describeValidation(err))
	}

	department, err := attributeDepartment(caller, req.Department)
	if err != nil {
		return nil, err
	}

	responses := analytics.SurveyResponseSet(req.Responses)
	scores, over := analytics.ComputeMetrics(responses).Clamp()
	if over {
		s.log.WithFields(logrus.Fields{
			"department": department,
			"field":      "engagement",
		}).Warn("engagement score above range clamped before persistence")
		if s.onClamp != nil {
			s.onClamp("engagement")
		}
	}

	sub := &Submission{
		ID:             s.idGenerator(),
		Department:     department,
		UserDepartment: caller.Department,
		Responses:      responses,
		Scores:         scores,
		TeamGoal:       analytics.TeamGoal(req.TeamGoal),
		ResponseDate:   s.now(),
		SessionID:      s.idGenerator(),
	}
	if caller.EmployeeID > 0 {
		id := caller.EmployeeID
		sub.EmployeeID = &id
	}
	for i, c := range req.Comments {
		sub.Comments[i] = strings.TrimSpace(c)
	}

	if err := s.store.InsertFeedback(ctx, sub); err != nil {
		return nil, fmt.Errorf("insert feedback: %w", err)
	}
	return &SubmissionResult{ID: sub.ID, SessionID: sub.SessionID, Department: department, Scores: scores}, nil
}

// attributeDepartment picks the department a submission counts toward.
// Employees always report for their own department.
func attributeDepartment(caller Principal, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" || strings.EqualFold(requested, caller.Department) {
		if caller.Department == "" {
			return "", NewInvalidError("department required")
		}
		return caller.Department, nil
	}
	if !caller.Role.CanTargetDepartment() {
		return "", NewForbiddenError("employees can only submit for their own department")
	}
	return requested, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid submission"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
