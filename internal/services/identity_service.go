package services

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// TokenSigner issues a session token for an identified employee.
type TokenSigner func(p Principal, ttl time.Duration) (string, error)

type IdentityService struct {
	store     RosterStore
	now       func() time.Time
	signToken TokenSigner
	codeHash  []byte
	tokenTTL  time.Duration
}

type LookupRequest struct {
	Department   string
	EmployeeName string
	EmployeeID   int
	AccessCode   string
}

type LookupResult struct {
	Token     string
	Principal Principal
	ExpiresAt time.Time
}

// NewIdentityService binds the roster lookup to a token signer. privilegedCodeHash
// is the bcrypt hash HR and Admin access codes must match; when empty those
// roles cannot sign in.
func NewIdentityService(store RosterStore, signer TokenSigner, privilegedCodeHash string, ttl time.Duration) *IdentityService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &IdentityService{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		signToken: signer,
		codeHash:  []byte(privilegedCodeHash),
		tokenTTL:  ttl,
	}
}

func (s *IdentityService) Lookup(ctx context.Context, req LookupRequest) (*LookupResult, error) {
	department := strings.TrimSpace(req.Department)
	name := strings.TrimSpace(req.EmployeeName)
	if department == "" || name == "" || req.EmployeeID <= 0 {
		return nil, NewInvalidError("department, employee name and employee id required")
	}
	emp, err := s.store.FindEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if emp == nil ||
		!strings.EqualFold(strings.TrimSpace(emp.Department), department) ||
		!strings.EqualFold(strings.TrimSpace(emp.EmployeeName), name) {
		return nil, NewUnauthorizedError("no matching employee record")
	}

	role := emp.Role
	if role == "" {
		role = RoleEmployee
	}
	if role.Privileged() {
		if len(s.codeHash) == 0 {
			return nil, NewForbiddenError("privileged access is not configured")
		}
		if bcrypt.CompareHashAndPassword(s.codeHash, []byte(req.AccessCode)) != nil {
			return nil, NewUnauthorizedError("invalid access code")
		}
	}

	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	p := Principal{
		EmployeeID: emp.EmployeeID,
		Name:       strings.TrimSpace(emp.EmployeeName),
		Department: strings.TrimSpace(emp.Department),
		Role:       role,
	}
	token, err := s.signToken(p, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &LookupResult{Token: token, Principal: p, ExpiresAt: s.now().Add(s.tokenTTL)}, nil
}

func (s *IdentityService) TokenTTL() time.Duration {
	return s.tokenTTL
}
