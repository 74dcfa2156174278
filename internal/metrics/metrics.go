// Package metrics exposes Prometheus instruments for scans and the HTTP API.
package metrics

import (
	"context"
	"strconv"
	"time"

	"YieldSentinel/internal/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "yieldsentinel"

// Metrics groups every instrument. Create it once per registry.
type Metrics struct {
	Cycles           prometheus.Counter
	CycleDuration    prometheus.Histogram
	StrategyFailures *prometheus.CounterVec
	Earnings         *prometheus.CounterVec
	Earned           *prometheus.CounterVec
	DecisionsQueued  prometheus.Counter
	AutoApproved     prometheus.Counter
	LastCycle        prometheus.Gauge

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New registers the instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Cycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "scan_cycles_total",
			Help: "Total number of scan cycles run.",
		}),
		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "scan_cycle_duration_seconds",
			Help:    "Scan cycle latency distribution.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		}),
		StrategyFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "strategy_failures_total",
			Help: "Strategy scans that returned an error.",
		}, []string{"strategy"}),
		Earnings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "earnings_recorded_total",
			Help: "Earning records written by strategies.",
		}, []string{"strategy"}),
		Earned: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "earned_amount_total",
			Help: "Sum of earnings booked by strategies, in token units.",
		}, []string{"strategy"}),
		DecisionsQueued: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "decisions_queued_total",
			Help: "Proposals queued for human review.",
		}),
		AutoApproved: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "proposals_auto_approved_total",
			Help: "Proposals approved by the auto-approve policy.",
		}),
		LastCycle: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_cycle_timestamp_seconds",
			Help: "Unix time the last scan cycle started.",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.3, 1.0, 3.0},
		}, []string{"method", "path"}),
	}
}

// ObserveCycle records a finished scan cycle.
func (m *Metrics) ObserveCycle(_ context.Context, r scheduler.CycleReport) {
	m.Cycles.Inc()
	m.CycleDuration.Observe(r.Duration.Seconds())
	m.LastCycle.Set(float64(r.Started.Unix()))
	for _, res := range r.Results {
		if res.Error != "" {
			m.StrategyFailures.WithLabelValues(res.Strategy).Inc()
		}
		if res.Earnings > 0 {
			m.Earnings.WithLabelValues(res.Strategy).Add(float64(res.Earnings))
			m.Earned.WithLabelValues(res.Strategy).Add(res.Earned.InexactFloat64())
		}
		m.DecisionsQueued.Add(float64(len(res.Queued)))
		m.AutoApproved.Add(float64(res.AutoApproved))
	}
}

// Middleware records request counts and latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		// Unmatched routes have no template.
		if path == "" {
			return
		}
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequests.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
