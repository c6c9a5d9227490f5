package telemetry

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsolatedRegistries(t *testing.T) {
	a := New()
	b := New()
	a.ClampEvents.WithLabelValues("engagement").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.ClampEvents.WithLabelValues("engagement")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ClampEvents.WithLabelValues("engagement")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.Submissions.WithLabelValues("Employee").Add(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `growpoint_submissions_total{role="Employee"} 2`)
}
