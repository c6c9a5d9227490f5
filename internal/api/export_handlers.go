package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/soaringjerry/growpoint/internal/analytics"
	"github.com/soaringjerry/growpoint/internal/services"
)

// GET /api/export?scope=departments|trend|workbook&department=&bucket=week|month
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := services.ExportParams{
		Scope:      services.ExportScope(strings.ToLower(q.Get("scope"))),
		Department: q.Get("department"),
		Bucket:     analytics.BucketMonth,
	}
	switch strings.ToLower(q.Get("bucket")) {
	case "", "month":
	case "week":
		params.Bucket = analytics.BucketWeek
	default:
		rt.writeError(w, r, services.NewInvalidError("bucket must be week or month"))
		return
	}
	res, err := rt.svc.Exports.Export(r.Context(), caller(r), params)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}
