package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsIsolatedRegistries(t *testing.T) {
	// Two collectors in one process must not panic on duplicate registration
	m1 := NewMetrics()
	m2 := NewMetrics()

	m1.RecordTokenRun(OutcomeToken, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m1.TokenRuns.WithLabelValues(OutcomeToken)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m2.TokenRuns.WithLabelValues(OutcomeToken)))
}

func TestRecordTokenRunSnapshot(t *testing.T) {
	m := NewMetrics()

	m.RecordTokenRun(OutcomeToken, 3*time.Second)
	m.RecordTokenRun(OutcomeError, 2*time.Second)
	m.RecordTokenRun(OutcomeFatal, time.Second)

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.TokensIssued)
	assert.Equal(t, int64(2), snap.TokenFailures)
}

func TestRecordBrowserStep(t *testing.T) {
	m := NewMetrics()

	NewTimer(m, "launch").Stop(nil)
	NewTimer(m, "navigate_home").Stop(errors.New("timeout"))

	assert.Equal(t, 0.0, testutil.ToFloat64(m.BrowserStepErrors.WithLabelValues("launch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BrowserStepErrors.WithLabelValues("navigate_home")))
}

func TestNilTimer(t *testing.T) {
	var timer *Timer
	assert.Equal(t, time.Duration(0), timer.Stop(nil))

	assert.NotPanics(t, func() {
		NewTimer(nil, "evaluate").Stop(nil)
	})
}

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.POST("/get-token", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing cookies or url"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/get-token", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "/get-token", "400")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.TotalRequests)
	assert.Equal(t, int64(2), snap.TotalErrors)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.RecordTokenRun(OutcomeNoToken, time.Second)
	m.SetBreakerState(2)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `awardtoken_token_runs_total{outcome="no_token"} 1`)
	assert.Contains(t, body, "awardtoken_launch_breaker_state 2")
	assert.Contains(t, body, "awardtoken_uptime_seconds")
}
