package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GriffinCanCode/awardtoken/internal/infrastructure/config"
	"github.com/GriffinCanCode/awardtoken/internal/infrastructure/logging"
	"github.com/GriffinCanCode/awardtoken/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/awardtoken/internal/infrastructure/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Logging.Development = true
	cfg.Logging.Level = "error"

	srv, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"root", http.MethodGet, "/", "", http.StatusOK, `"status":"online"`},
		{"health", http.MethodGet, "/health", "", http.StatusOK, `"breaker":"closed"`},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK, "awardtoken_uptime_seconds"},
		{"bad token request", http.MethodPost, "/get-token", `{"url":"https://www.bytick.com"}`, http.StatusBadRequest, "Missing cookies or url"},
		{"unknown route", http.MethodGet, "/nowhere", "", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestPreflight(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/get-token", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestLaunchBreaker(t *testing.T) {
	metrics := monitoring.NewMetrics()
	breaker := newLaunchBreaker(config.BreakerConfig{
		Enabled:     true,
		MaxFailures: 2,
		OpenTimeout: time.Minute,
	}, metrics, logging.NewNop())

	fail := func() (struct{}, error) { return struct{}{}, errors.New("chrome not found") }

	_, _ = resilience.Do(breaker, fail)
	assert.Equal(t, resilience.StateClosed, breaker.State())

	_, _ = resilience.Do(breaker, fail)
	assert.Equal(t, resilience.StateOpen, breaker.State())

	_, err := resilience.Do(breaker, fail)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestLaunchBreakerIgnoresCancellation(t *testing.T) {
	breaker := newLaunchBreaker(config.BreakerConfig{
		MaxFailures: 1,
		OpenTimeout: time.Minute,
	}, monitoring.NewMetrics(), logging.NewNop())

	_, _ = resilience.Do(breaker, func() (struct{}, error) {
		return struct{}{}, context.Canceled
	})
	assert.Equal(t, resilience.StateClosed, breaker.State())
}
