package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func testSigner(p Principal, ttl time.Duration) (string, error) {
	return "token:" + string(p.Role) + ":" + p.Department, nil
}

func newIdentityFixture(t *testing.T) (*IdentityService, *stubStore) {
	t.Helper()
	store := newStubStore()
	store.employees[7] = &Employee{EmployeeID: 7, Department: "Engineering", EmployeeName: "Ada Lovelace", Role: RoleEmployee}
	store.employees[8] = &Employee{EmployeeID: 8, Department: "People", EmployeeName: "Grace Hopper", Role: RoleHR}
	store.employees[9] = &Employee{EmployeeID: 9, Department: "Sales", EmployeeName: "Linus", Role: ""}
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	svc := NewIdentityService(store, testSigner, string(hash), time.Hour)
	svc.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestIdentityLookupEmployee(t *testing.T) {
	svc, _ := newIdentityFixture(t)

	res, err := svc.Lookup(context.Background(), LookupRequest{Department: " engineering ", EmployeeName: "ADA LOVELACE", EmployeeID: 7})
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if res.Token != "token:Employee:Engineering" {
		t.Fatalf("unexpected token %q", res.Token)
	}
	if res.Principal.Name != "Ada Lovelace" || res.Principal.EmployeeID != 7 {
		t.Fatalf("unexpected principal %+v", res.Principal)
	}
	if !res.ExpiresAt.Equal(time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected expiry %v", res.ExpiresAt)
	}
}

func TestIdentityLookupDefaultsRole(t *testing.T) {
	svc, _ := newIdentityFixture(t)
	res, err := svc.Lookup(context.Background(), LookupRequest{Department: "Sales", EmployeeName: "Linus", EmployeeID: 9})
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if res.Principal.Role != RoleEmployee {
		t.Fatalf("expected Employee role, got %q", res.Principal.Role)
	}
}

func TestIdentityLookupMismatch(t *testing.T) {
	svc, _ := newIdentityFixture(t)
	cases := []LookupRequest{
		{Department: "Sales", EmployeeName: "Ada Lovelace", EmployeeID: 7},
		{Department: "Engineering", EmployeeName: "Ada", EmployeeID: 7},
		{Department: "Engineering", EmployeeName: "Ada Lovelace", EmployeeID: 70},
	}
	for _, req := range cases {
		_, err := svc.Lookup(context.Background(), req)
		se, ok := AsServiceError(err)
		if !ok || se.Code != ErrorUnauthorized {
			t.Fatalf("expected unauthorized for %+v, got %v", req, err)
		}
	}
}

func TestIdentityLookupRequiresFields(t *testing.T) {
	svc, _ := newIdentityFixture(t)
	_, err := svc.Lookup(context.Background(), LookupRequest{Department: "Engineering", EmployeeID: 7})
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorInvalid {
		t.Fatalf("expected invalid error, got %v", err)
	}
}

func TestIdentityLookupPrivilegedNeedsCode(t *testing.T) {
	svc, _ := newIdentityFixture(t)
	req := LookupRequest{Department: "People", EmployeeName: "Grace Hopper", EmployeeID: 8}

	if _, err := svc.Lookup(context.Background(), req); err == nil {
		t.Fatalf("expected missing code to fail")
	}
	req.AccessCode = "wrong"
	if _, err := svc.Lookup(context.Background(), req); err == nil {
		t.Fatalf("expected wrong code to fail")
	}
	req.AccessCode = "letmein"
	res, err := svc.Lookup(context.Background(), req)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if res.Principal.Role != RoleHR {
		t.Fatalf("expected HR role, got %q", res.Principal.Role)
	}
}

func TestIdentityLookupPrivilegedWithoutHash(t *testing.T) {
	store := newStubStore()
	store.employees[1] = &Employee{EmployeeID: 1, Department: "Ops", EmployeeName: "Root", Role: RoleAdmin}
	svc := NewIdentityService(store, testSigner, "", 0)
	_, err := svc.Lookup(context.Background(), LookupRequest{Department: "Ops", EmployeeName: "Root", EmployeeID: 1, AccessCode: "x"})
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if svc.TokenTTL() != 12*time.Hour {
		t.Fatalf("expected default ttl, got %v", svc.TokenTTL())
	}
}

func TestIdentityLookupStoreError(t *testing.T) {
	svc, store := newIdentityFixture(t)
	store.rosterErr = errors.New("db down")
	if _, err := svc.Lookup(context.Background(), LookupRequest{Department: "Engineering", EmployeeName: "Ada Lovelace", EmployeeID: 7}); err == nil || err.Error() != "db down" {
		t.Fatalf("expected store error, got %v", err)
	}
}
