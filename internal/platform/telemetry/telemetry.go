// Package telemetry exposes Prometheus metrics for the HTTP layer and the
// nutrition pipeline.
package telemetry

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nutrilab"

// Metrics owns a private registry so tests can build as many as they like.
// All recording methods are safe on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	intakes             prometheus.Counter
	requestTransitions  *prometheus.CounterVec
	reportsApproved     prometheus.Counter
	reportsCreated      prometheus.Counter
	roleChanges         *prometheus.CounterVec
	notificationsFailed *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		intakes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intakes_submitted_total",
			Help:      "Nutrition intake forms persisted.",
		}),
		requestTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_transitions_total",
			Help:      "Nutrition request status transitions by target status.",
		}, []string{"status"}),
		reportsApproved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_approved_total",
			Help:      "Reports moved from unreviewed to approved.",
		}),
		reportsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_created_total",
			Help:      "Reports deposited by doctors.",
		}),
		roleChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "role_changes_total",
			Help:      "User role assignments by new role.",
		}, []string{"role"}),
		notificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Notification publishes that did not reach Redis.",
		}, []string{"event"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration,
		m.intakes, m.requestTransitions, m.reportsApproved, m.reportsCreated,
		m.roleChanges, m.notificationsFailed,
	)
	return m
}

// Registry is exposed for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Middleware records request count and latency. The route label is the
// registered path pattern, so ids do not explode cardinality.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if !c.Response().Committed {
					status = 500
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func (m *Metrics) IntakeSubmitted() {
	if m != nil {
		m.intakes.Inc()
	}
}

func (m *Metrics) RequestTransition(status string) {
	if m != nil {
		m.requestTransitions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) ReportApproved() {
	if m != nil {
		m.reportsApproved.Inc()
	}
}

func (m *Metrics) ReportCreated() {
	if m != nil {
		m.reportsCreated.Inc()
	}
}

func (m *Metrics) RoleChanged(role string) {
	if m != nil {
		m.roleChanges.WithLabelValues(role).Inc()
	}
}

// NotificationFailed satisfies notification.FailureCounter.
func (m *Metrics) NotificationFailed(eventType string) {
	if m != nil {
		m.notificationsFailed.WithLabelValues(eventType).Inc()
	}
}
