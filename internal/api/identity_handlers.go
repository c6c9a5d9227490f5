package api

import (
	"net/http"
	"time"

	"github.com/soaringjerry/growpoint/internal/services"
)

type lookupRequest struct {
	Department   string `json:"department"`
	EmployeeName string `json:"employeeName"`
	EmployeeID   int    `json:"employeeId"`
	AccessCode   string `json:"accessCode,omitempty"`
}

type lookupResponse struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	Employee  services.Principal `json:"employee"`
}

// POST /api/auth/lookup
func (rt *Router) handleLookup(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.svc.Identity.Lookup(r.Context(), services.LookupRequest{
		Department:   req.Department,
		EmployeeName: req.EmployeeName,
		EmployeeID:   req.EmployeeID,
		AccessCode:   req.AccessCode,
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lookupResponse{Token: res.Token, ExpiresAt: res.ExpiresAt, Employee: res.Principal})
}
