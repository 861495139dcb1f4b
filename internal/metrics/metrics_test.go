package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.GateDecision("allow")
		m.SessionEvent("login")
		m.APIRequest("documents", "ok")
		m.CacheLookup(true)
	})
}

func TestMetrics_Counts(t *testing.T) {
	m := New()

	m.GateDecision("login_required")
	m.GateDecision("login_required")
	m.SessionEvent("forced_logout")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.gateDecisions.WithLabelValues("login_required")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authEvents.WithLabelValues("forced_logout")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.APIRequest("auth", "authz_failure")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `docsafe_api_requests_total{family="auth",outcome="authz_failure"} 1`)
}
