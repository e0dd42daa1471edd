// Package observability exposes Prometheus metrics for the ledger and the
// HTTP surface.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so that constructing it more than once (tests)
// never collides on the global default registerer.  A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	approvals         *prometheus.CounterVec
	rejections        prometheus.Counter
	pointsAwarded     *prometheus.CounterVec
	conversions       prometheus.Counter
	reconcileRepairs  prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		approvals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pathik_contributions_approved_total",
			Help: "Contributions moved from pending to approved, by category.",
		}, []string{"category"}),
		rejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pathik_contributions_rejected_total",
			Help: "Contributions moved from pending to rejected.",
		}),
		pointsAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pathik_points_awarded_total",
			Help: "Points added to user ledgers, by category.",
		}, []string{"category"}),
		conversions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pathik_tours_converted_total",
			Help: "Tours converted into travel guides.",
		}),
		reconcileRepairs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pathik_ledger_reconcile_repairs_total",
			Help: "Ledger projections rewritten by the reconciler.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.approvals,
		m.rejections,
		m.pointsAwarded,
		m.conversions,
		m.reconcileRepairs,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency by Echo route pattern.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func (m *Metrics) Approved(category string, points int) {
	if m == nil {
		return
	}
	m.approvals.WithLabelValues(category).Inc()
	m.pointsAwarded.WithLabelValues(category).Add(float64(points))
}

func (m *Metrics) Rejected() {
	if m == nil {
		return
	}
	m.rejections.Inc()
}

func (m *Metrics) GuideCreated(category string, points int) {
	if m == nil {
		return
	}
	m.pointsAwarded.WithLabelValues(category).Add(float64(points))
}

func (m *Metrics) TourConverted() {
	if m == nil {
		return
	}
	m.conversions.Inc()
}

func (m *Metrics) Repaired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reconcileRepairs.Add(float64(n))
}
