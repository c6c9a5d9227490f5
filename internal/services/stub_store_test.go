package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/soaringjerry/growpoint/internal/analytics"
)

type stubStore struct {
	mu        sync.Mutex
	employees map[int]*Employee
	feedback  []*Submission

	rosterErr   error
	feedbackErr error
	// block, when set, is waited on by ListFeedback before returning;
	// entered is signalled as each call starts waiting.
	block   chan struct{}
	entered chan struct{}
}

func newStubStore() *stubStore {
	return &stubStore{employees: map[int]*Employee{}}
}

func (s *stubStore) FindEmployee(_ context.Context, id int) (*Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rosterErr != nil {
		return nil, s.rosterErr
	}
	if e, ok := s.employees[id]; ok {
		copy := *e
		return &copy, nil
	}
	return nil, nil
}

func (s *stubStore) CountEmployees(_ context.Context, department string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rosterErr != nil {
		return 0, s.rosterErr
	}
	n := 0
	for _, e := range s.employees {
		if department == "" || strings.EqualFold(e.Department, department) {
			n++
		}
	}
	return n, nil
}

func (s *stubStore) ListDepartments(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, e := range s.employees {
		if e.Department != "" && !seen[e.Department] {
			seen[e.Department] = true
			out = append(out, e.Department)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *stubStore) UpsertEmployee(_ context.Context, e *Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *e
	s.employees[e.EmployeeID] = &copy
	return nil
}

func (s *stubStore) InsertFeedback(_ context.Context, sub *Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.feedbackErr != nil {
		return s.feedbackErr
	}
	copy := *sub
	s.feedback = append(s.feedback, &copy)
	return nil
}

func (s *stubStore) ListFeedback(ctx context.Context, department string) ([]analytics.FeedbackRecord, error) {
	if s.block != nil {
		if s.entered != nil {
			s.entered <- struct{}{}
		}
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.feedbackErr != nil {
		return nil, s.feedbackErr
	}
	var out []analytics.FeedbackRecord
	for _, sub := range s.feedback {
		if department == "" || strings.EqualFold(sub.Department, department) {
			out = append(out, sub.Record())
		}
	}
	return out, nil
}

func (s *stubStore) ListResponseSets(_ context.Context, department string) ([]analytics.SurveyResponseSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []analytics.SurveyResponseSet
	for _, sub := range s.feedback {
		if department == "" || strings.EqualFold(sub.Department, department) {
			out = append(out, sub.Responses)
		}
	}
	return out, nil
}

func (s *stubStore) addFeedback(recs ...analytics.FeedbackRecord) {
	for _, r := range recs {
		r := r
		s.feedback = append(s.feedback, &Submission{
			ID:           r.ID,
			Department:   r.Department,
			EmployeeID:   r.EmployeeID,
			Scores:       analytics.Scores{EngagementScore: r.EngagementScore, CohesionScore: r.CohesionScore, FrictionLevel: r.FrictionLevel},
			TeamGoal:     r.TeamGoal,
			ResponseDate: r.ResponseDate,
			Comments:     r.Comments,
		})
	}
}

func intPtr(v int) *int { return &v }
