// Package metrics exposes Prometheus instrumentation for analysis runs.
// All methods are safe on a nil *Metrics so callers can leave it unset.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for one process
type Metrics struct {
	registry *prometheus.Registry

	runs             *prometheus.CounterVec
	runDuration      prometheus.Histogram
	verdicts         *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	modelCalls       *prometheus.CounterVec
	modelTokens      *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
}

// New creates collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slopscore",
			Name:      "runs_total",
			Help:      "Analysis runs by final stage.",
		}, []string{"stage"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "slopscore",
			Name:      "run_duration_seconds",
			Help:      "Wall time of analysis runs.",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600},
		}),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slopscore",
			Name:      "verdicts_total",
			Help:      "Feature verdicts applied to reports.",
		}, []string{"verdict"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slopscore",
			Name:      "github_requests_total",
			Help:      "Requests to the hosting API by endpoint and status code.",
		}, []string{"endpoint", "code"}),
		modelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slopscore",
			Name:      "model_calls_total",
			Help:      "Generative model calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		modelTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slopscore",
			Name:      "model_tokens_total",
			Help:      "Tokens reported by the generative backend.",
		}, []string{"operation"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slopscore",
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.runs,
		m.runDuration,
		m.verdicts,
		m.upstreamRequests,
		m.modelCalls,
		m.modelTokens,
		m.cacheLookups,
		prometheus.NewGoCollector(),
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RunFinished records a run that reached a terminal stage
func (m *Metrics) RunFinished(stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(stage).Inc()
	m.runDuration.Observe(elapsed.Seconds())
}

// VerdictApplied records one terminal verdict
func (m *Metrics) VerdictApplied(verdict string) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(verdict).Inc()
}

// UpstreamRequest records one hosting API call. code 0 means no response.
func (m *Metrics) UpstreamRequest(endpoint string, code int) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
}

// ModelCall records one generative model call
func (m *Metrics) ModelCall(operation string, err error, tokens int) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.modelCalls.WithLabelValues(operation, outcome).Inc()
	if tokens > 0 {
		m.modelTokens.WithLabelValues(operation).Add(float64(tokens))
	}
}

// CacheLookup records a cache hit or miss
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
