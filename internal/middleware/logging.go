package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/soaringjerry/growpoint/internal/logger"
	"github.com/soaringjerry/growpoint/internal/telemetry"
)

type logCtxKey int

const entryKey logCtxKey = 3

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.written {
		w.status = http.StatusOK
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusRecorder) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// RequestLogger assigns a request id, puts a request-scoped entry in the
// context and records one access log line plus HTTP metrics per request.
// It must wrap the ServeMux directly so the matched pattern is visible.
func RequestLogger(log *logger.Logger, m *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := logger.RequestID(r)
			r.Header.Set(logger.RequestIDHeader, id)
			w.Header().Set(logger.RequestIDHeader, id)

			entry := log.WithRequest(r)
			req := r.WithContext(context.WithValue(r.Context(), entryKey, entry))
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, req)

			route := req.Pattern
			if route == "" {
				route = "unmatched"
			}
			elapsed := time.Since(start)
			if m != nil {
				m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status/100)+"xx").Inc()
				m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
			}
			fields := entry.WithFields(logrus.Fields{"status": rec.status, "route": route, "duration_ms": elapsed.Milliseconds()})
			switch {
			case rec.status >= 500:
				fields.Error("request failed")
			case rec.status >= 400:
				fields.Warn("request rejected")
			default:
				fields.Debug("request served")
			}
		})
	}
}

// LoggerFromContext returns the request-scoped entry, or fallback outside a request.
func LoggerFromContext(ctx context.Context, fallback *logrus.Entry) *logrus.Entry {
	if e, ok := ctx.Value(entryKey).(*logrus.Entry); ok {
		return e
	}
	return fallback
}
