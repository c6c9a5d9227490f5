package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONOutputCarriesRequestFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("production", "debug", &buf)

	r := httptest.NewRequest("GET", "/api/dashboard/hr", nil)
	r.Header.Set(RequestIDHeader, "req-1")
	log.WithRequest(r).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line["req_id"])
	assert.Equal(t, "/api/dashboard/hr", line["path"])
	assert.Equal(t, "growpoint", line["service"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, parseLevel("warning"))
	assert.Equal(t, logrus.InfoLevel, parseLevel(""))
}

func TestWithErrorNil(t *testing.T) {
	log := Discard()
	assert.Same(t, log.Entry, log.WithError(nil))
	assert.Equal(t, "boom", log.WithError(errors.New("boom")).Data["error"])
}

func TestRequestIDMintsWhenMissing(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	assert.Len(t, RequestID(r), 36)
}
