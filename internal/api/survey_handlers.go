package api

import (
	"net/http"

	"github.com/soaringjerry/growpoint/internal/services"
)

// POST /api/surveys
func (rt *Router) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req services.SubmissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	who := caller(r)
	res, err := rt.svc.Submissions.Submit(r.Context(), who, req)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.Submissions.WithLabelValues(string(who.Role)).Inc()
	}
	writeJSON(w, http.StatusCreated, res)
}
