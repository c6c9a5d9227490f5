package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/soaringjerry/growpoint/internal/analytics"
)

// InsightGenerator produces narrative insight text for a department summary.
type InsightGenerator interface {
	GenerateInsight(ctx context.Context, payload analytics.InsightPayload) (string, error)
}

// statusCoder is implemented by upstream errors that carry an HTTP status.
type statusCoder interface {
	HTTPStatus() int
}

// OrganisationLabel names the organisation-wide insight subject.
const OrganisationLabel = "All Departments"

type InsightResult struct {
	Department string                   `json:"department"`
	Insight    string                   `json:"insight"`
	Payload    analytics.InsightPayload `json:"payload"`
}

type InsightService struct {
	feedback  FeedbackStore
	generator InsightGenerator
}

func NewInsightService(feedback FeedbackStore, generator InsightGenerator) *InsightService {
	return &InsightService{feedback: feedback, generator: generator}
}

// Generate summarises a department and asks the generator for insight text.
// HR and Admin may pass an empty department for the whole organisation.
func (s *InsightService) Generate(ctx context.Context, caller Principal, department string) (*InsightResult, error) {
	if s.generator == nil {
		return nil, NewBadGatewayError("insight generation is not configured")
	}
	department = strings.TrimSpace(department)
	switch caller.Role {
	case RoleHR, RoleAdmin:
	case RoleManager:
		if department == "" {
			department = caller.Department
		}
		if !strings.EqualFold(department, caller.Department) {
			return nil, NewForbiddenError("managers can only request insights for their own department")
		}
	default:
		return nil, NewForbiddenError("insights require a manager role")
	}

	records, err := s.feedback.ListFeedback(ctx, department)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	if len(records) == 0 {
		return nil, NewNotFoundError("no feedback to summarise")
	}

	label := department
	if label == "" {
		label = OrganisationLabel
	}
	payload := analytics.BuildInsightPayload(label, records)
	text, err := s.generator.GenerateInsight(ctx, payload)
	if err != nil {
		return nil, upstreamError("insight", err)
	}
	return &InsightResult{Department: label, Insight: text, Payload: payload}, nil
}

// upstreamError maps a hosted-function failure onto the service taxonomy.
func upstreamError(what string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var sc statusCoder
	if errors.As(err, &sc) && sc.HTTPStatus() == http.StatusTooManyRequests {
		return NewTooManyRequestsError(what + " service is rate limited")
	}
	return NewBadGatewayError(what + " service failed: " + err.Error())
}
