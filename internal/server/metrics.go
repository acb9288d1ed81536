package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/romuloroldao/precivox/internal/suggest"
)

// Metrics holds the server's prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	analyses    *prometheus.CounterVec
	suggestions *prometheus.CounterVec
	applied     *prometheus.CounterVec
	reverted    prometheus.Counter
	savings     prometheus.Counter
	sessions    prometheus.Gauge
	requests    *prometheus.HistogramVec
}

// NewMetrics registers the precivox collectors plus the Go and process
// collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "precivox_analyses_total",
			Help: "Shopping lists analyzed, by result source.",
		}, []string{"source"}),
		suggestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "precivox_suggestions_total",
			Help: "Suggestions returned to clients, by kind.",
		}, []string{"kind"}),
		applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "precivox_suggestions_applied_total",
			Help: "Suggestions marked applied, by kind.",
		}, []string{"kind"}),
		reverted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "precivox_suggestions_reverted_total",
			Help: "Suggestions moved from applied back to open.",
		}),
		savings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "precivox_applied_savings_reais_total",
			Help: "Savings of suggestions at the time they were applied.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "precivox_open_sessions",
			Help: "Analysis sessions currently open.",
		}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "precivox_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.analyses, m.suggestions, m.applied, m.reverted, m.savings, m.sessions, m.requests,
	)
	return m
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeAnalysis(res suggest.Result) {
	m.analyses.WithLabelValues(res.Source).Inc()
	for _, s := range res.Suggestions {
		m.suggestions.WithLabelValues(string(s.Kind)).Inc()
	}
}

func (m *Metrics) observeApplied(s suggest.Suggestion) {
	m.applied.WithLabelValues(string(s.Kind)).Inc()
	m.savings.Add(s.Savings)
}

func (m *Metrics) observeReverted(n int) {
	m.reverted.Add(float64(n))
}

// Middleware records request latency by route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
