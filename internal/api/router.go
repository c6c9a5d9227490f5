package api

import (
	"net/http"

	"github.com/soaringjerry/growpoint/internal/logger"
	"github.com/soaringjerry/growpoint/internal/middleware"
	"github.com/soaringjerry/growpoint/internal/services"
	"github.com/soaringjerry/growpoint/internal/telemetry"
)

// Services bundles what the HTTP layer calls into. Insights and Speech may be
// nil when no hosted function is configured.
type Services struct {
	Identity    *services.IdentityService
	Submissions *services.SubmissionService
	Dashboards  *services.DashboardService
	Insights    *services.InsightService
	Speech      *services.SpeechService
	Exports     *services.ExportService
}

type Router struct {
	svc     Services
	auth    *middleware.Auth
	metrics *telemetry.Metrics
	log     *logger.Logger
}

func NewRouter(svc Services, auth *middleware.Auth, metrics *telemetry.Metrics, log *logger.Logger) *Router {
	if log == nil {
		log = logger.Discard()
	}
	return &Router{svc: svc, auth: auth, metrics: metrics, log: log}
}

func (rt *Router) Register(mux *http.ServeMux) {
	anyRole := func(h http.HandlerFunc) http.Handler {
		return rt.auth.WithAuth(middleware.RequireAuth(h))
	}
	roles := func(h http.HandlerFunc, allowed ...services.Role) http.Handler {
		return rt.auth.WithAuth(middleware.RequireRole(allowed...)(h))
	}

	mux.HandleFunc("POST /api/auth/lookup", rt.handleLookup)
	mux.Handle("POST /api/surveys", anyRole(rt.handleSubmit))
	mux.Handle("GET /api/dashboard/employee", anyRole(rt.handleEmployeeDashboard))
	mux.Handle("GET /api/dashboard/manager", roles(rt.handleManagerDashboard, services.RoleManager, services.RoleHR, services.RoleAdmin))
	mux.Handle("GET /api/dashboard/hr", roles(rt.handleHRDashboard, services.RoleHR, services.RoleAdmin))
	mux.Handle("GET /api/dashboard/admin", roles(rt.handleAdminDashboard, services.RoleAdmin))
	mux.Handle("POST /api/insights", roles(rt.handleInsight, services.RoleManager, services.RoleHR, services.RoleAdmin))
	mux.Handle("POST /api/speech", anyRole(rt.handleSpeech))
	mux.Handle("GET /api/export", roles(rt.handleExport, services.RoleHR, services.RoleAdmin))
}

// caller is only called behind RequireAuth.
func caller(r *http.Request) services.Principal {
	p, _ := middleware.PrincipalFromContext(r.Context())
	return p
}
