package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObservePermissionDecision("READ", true)
		m.IncCycleDetected()
		m.IncShareConsumed()
		m.IncShareDenied("EXPIRED")
		m.IncAuditWriteFailure()
		m.IncAuditRetried("ok")
		m.IncAuditMirrorFailure()
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCountersAndExposition(t *testing.T) {
	m := NewMetrics()
	m.IncShareDenied("EXPIRED")
	m.IncShareDenied("EXPIRED")
	m.IncShareDenied("REVOKED")
	m.ObservePermissionDecision("WRITE", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ShareDenied("EXPIRED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ShareDenied("REVOKED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PermissionDecisions("WRITE", "deny")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `docvault_share_denied_total{reason="EXPIRED"} 2`))
}

func TestMiddlewareRecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/ping", "200")))
}
