// Package metrics holds the Prometheus collectors of the API. Every
// recording method is safe on a nil *Metrics so components can run without
// metrics in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         prometheus.Gauge

	ResetRequests    *prometheus.CounterVec
	ResetRedemptions *prometheus.CounterVec
	MailSends        *prometheus.CounterVec
	RateLimited      *prometheus.CounterVec
	TokensPurged     prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg.
func New(namespace string, reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
		),
		ResetRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "password_reset",
				Name:      "requests_total",
				Help:      "Password reset requests by outcome.",
			},
			[]string{"outcome"}, // issued|cooldown|unknown|error
		),
		ResetRedemptions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "password_reset",
				Name:      "redemptions_total",
				Help:      "Password reset redemptions by outcome.",
			},
			[]string{"outcome"},
		),
		MailSends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mail",
				Name:      "sends_total",
				Help:      "Mail send attempts by transport and outcome.",
			},
			[]string{"transport", "outcome"},
		),
		RateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_total",
				Help:      "Requests rejected by a rate limiter.",
			},
			[]string{"scope"},
		),
		TokensPurged: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "password_reset",
				Name:      "tokens_purged_total",
				Help:      "Expired reset tokens removed by maintenance.",
			},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.RequestsTotal, m.RequestsDuration, m.InFlight,
		m.ResetRequests, m.ResetRedemptions, m.MailSends, m.RateLimited, m.TokensPurged,
	)

	return m
}

// ResetRequested counts one forgot or resend call.
func (m *Metrics) ResetRequested(outcome string) {
	if m == nil {
		return
	}
	m.ResetRequests.WithLabelValues(outcome).Inc()
}

// ResetRedeemed counts one redemption attempt.
func (m *Metrics) ResetRedeemed(outcome string) {
	if m == nil {
		return
	}
	m.ResetRedemptions.WithLabelValues(outcome).Inc()
}

// MailSent counts one transport attempt. Its signature matches mail.Gateway.Observe.
func (m *Metrics) MailSent(transport, outcome string) {
	if m == nil {
		return
	}
	m.MailSends.WithLabelValues(transport, outcome).Inc()
}

// Limited counts one rejected request.
func (m *Metrics) Limited(scope string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(scope).Inc()
}

// Purged counts removed token rows.
func (m *Metrics) Purged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.TokensPurged.Add(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records count and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.InFlight.Inc()
		defer m.InFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// the route pattern is only known after routing
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := []string{r.Method, route, strconv.Itoa(status)}

		m.RequestsTotal.WithLabelValues(labels...).Inc()
		m.RequestsDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
	})
}
