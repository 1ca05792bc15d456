package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Token run metrics
	TokenRuns        *prometheus.CounterVec
	TokenRunDuration prometheus.Histogram

	// Browser metrics
	BrowserStepDuration *prometheus.HistogramVec
	BrowserStepErrors   *prometheus.CounterVec
	BrowsersActive      prometheus.Gauge
	BreakerState        prometheus.Gauge

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current counter values for the health endpoint
type Snapshot struct {
	TotalRequests int64 `json:"total_requests"`
	TotalErrors   int64 `json:"total_errors"`
	TokensIssued  int64 `json:"tokens_issued"`
	TokenFailures int64 `json:"token_failures"`
}

// NewMetrics creates a new metrics collector with its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "awardtoken_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "awardtoken_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "awardtoken_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "awardtoken_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		TokenRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "awardtoken_token_runs_total",
				Help: "Token acquisition runs by outcome",
			},
			[]string{"outcome"},
		),
		TokenRunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "awardtoken_token_run_duration_seconds",
				Help:    "Duration of a full browser run from launch to close",
				Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
			},
		),

		BrowserStepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "awardtoken_browser_step_duration_seconds",
				Help:    "Duration of individual browser steps",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"step"},
		),
		BrowserStepErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "awardtoken_browser_step_errors_total",
				Help: "Browser steps that returned an error",
			},
			[]string{"step"},
		),
		BrowsersActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "awardtoken_browsers_active",
				Help: "Number of browser processes currently running",
			},
		),
		BreakerState: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "awardtoken_launch_breaker_state",
				Help: "Browser launch circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "awardtoken_uptime_seconds",
			Help: "Service uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Handler returns the Prometheus exposition handler for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordTokenRun records the outcome of one browser run
func (m *Metrics) RecordTokenRun(outcome string, duration time.Duration) {
	m.TokenRuns.WithLabelValues(outcome).Inc()
	m.TokenRunDuration.Observe(duration.Seconds())

	m.mu.Lock()
	if outcome == OutcomeToken {
		m.snapshot.TokensIssued++
	} else {
		m.snapshot.TokenFailures++
	}
	m.mu.Unlock()
}

// RecordBrowserStep records the duration of a browser step
func (m *Metrics) RecordBrowserStep(step string, duration time.Duration, err error) {
	m.BrowserStepDuration.WithLabelValues(step).Observe(duration.Seconds())
	if err != nil {
		m.BrowserStepErrors.WithLabelValues(step).Inc()
	}
}

// IncBrowsersActive increments the running browser gauge
func (m *Metrics) IncBrowsersActive() {
	m.BrowsersActive.Inc()
}

// DecBrowsersActive decrements the running browser gauge
func (m *Metrics) DecBrowsersActive() {
	m.BrowsersActive.Dec()
}

// SetBreakerState publishes the launch breaker state
func (m *Metrics) SetBreakerState(state int) {
	m.BreakerState.Set(float64(state))
}

// Snapshot returns a copy of the running counters
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// StartTime returns when the collector was created
func (m *Metrics) StartTime() time.Time {
	return m.startTime
}

// Token run outcomes
const (
	OutcomeToken    = "token"
	OutcomeError    = "error"
	OutcomeNoToken  = "no_token"
	OutcomeFatal    = "fatal"
	OutcomeRejected = "rejected"
)
