package db

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/soaringjerry/growpoint/internal/analytics"
	"github.com/soaringjerry/growpoint/internal/services"
)

// MemoryStore keeps the roster and feedback in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	employees map[int]*services.Employee
	feedback  []*services.Submission
	ids       map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		employees: map[int]*services.Employee{},
		ids:       map[string]struct{}{},
	}
}

func sameDepartment(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func (s *MemoryStore) FindEmployee(_ context.Context, employeeID int) (*services.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[employeeID]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (s *MemoryStore) CountEmployees(_ context.Context, department string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if department == "" {
		return len(s.employees), nil
	}
	n := 0
	for _, e := range s.employees {
		if sameDepartment(e.Department, department) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) ListDepartments(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]struct{}{}
	for _, e := range s.employees {
		if d := strings.TrimSpace(e.Department); d != "" {
			seen[d] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) UpsertEmployee(_ context.Context, e *services.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	if cp.Role == "" {
		cp.Role = services.RoleEmployee
	}
	s.employees[e.EmployeeID] = &cp
	return nil
}

func (s *MemoryStore) InsertFeedback(_ context.Context, sub *services.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.ids[sub.ID]; dup {
		return fmt.Errorf("feedback %s already exists", sub.ID)
	}
	cp := *sub
	cp.Responses = maps.Clone(sub.Responses)
	cp.ResponseDate = sub.ResponseDate.UTC()
	s.feedback = append(s.feedback, &cp)
	s.ids[sub.ID] = struct{}{}
	return nil
}

func (s *MemoryStore) ListFeedback(ctx context.Context, department string) ([]analytics.FeedbackRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []analytics.FeedbackRecord
	for _, sub := range s.feedback {
		if department == "" || sameDepartment(sub.Department, department) {
			out = append(out, sub.Record())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ResponseDate.Before(out[j].ResponseDate) })
	return out, nil
}

func (s *MemoryStore) ListResponseSets(ctx context.Context, department string) ([]analytics.SurveyResponseSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []analytics.SurveyResponseSet
	for _, sub := range s.feedback {
		if len(sub.Responses) == 0 {
			continue
		}
		if department == "" || sameDepartment(sub.Department, department) {
			out = append(out, maps.Clone(sub.Responses))
		}
	}
	return out, nil
}
