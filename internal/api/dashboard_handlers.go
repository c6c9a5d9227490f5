package api

import "net/http"

// GET /api/dashboard/employee
func (rt *Router) handleEmployeeDashboard(w http.ResponseWriter, r *http.Request) {
	out, err := rt.svc.Dashboards.Employee(r.Context(), caller(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/dashboard/manager?department=
func (rt *Router) handleManagerDashboard(w http.ResponseWriter, r *http.Request) {
	out, err := rt.svc.Dashboards.Manager(r.Context(), caller(r), r.URL.Query().Get("department"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/dashboard/hr
func (rt *Router) handleHRDashboard(w http.ResponseWriter, r *http.Request) {
	out, err := rt.svc.Dashboards.HR(r.Context(), caller(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/dashboard/admin
func (rt *Router) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	out, err := rt.svc.Dashboards.Admin(r.Context(), caller(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
