package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	// outbound calls to the volunteer hours backend
	ClientRequestsTotal   *prometheus.CounterVec
	ClientRequestDuration *prometheus.HistogramVec
	ClientInFlight        prometheus.Gauge

	// backend health as seen by the poller
	HealthChecksTotal *prometheus.CounterVec

	// status server
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		ClientRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vhours",
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "Backend requests by method, route and result.",
			},
			[]string{"method", "route", "result"}, // result=success|failed
		),
		ClientRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "vhours",
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "Backend request latency.",
				Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route"},
		),
		ClientInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "vhours",
				Subsystem: "client",
				Name:      "in_flight_requests",
				Help:      "Backend requests currently waiting for a response.",
			},
		),
		HealthChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vhours",
				Subsystem: "health",
				Name:      "checks_total",
				Help:      "Backend health checks by reported status.",
			},
			[]string{"status"},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vhours",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests served by the status server.",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "vhours",
				Name:      "http_request_duration_seconds",
				Help:      "Status server latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"method", "route", "status"},
		),
	}
	reg.MustRegister(
		p.ClientRequestsTotal,
		p.ClientRequestDuration,
		p.ClientInFlight,
		p.HealthChecksTotal,
		p.RequestsTotal,
		p.RequestsDuration,
	)

	return p
}

func (p *Prom) ObserveClient(method, route string, ok bool, d time.Duration) {
	result := "success"
	if !ok {
		result = "failed"
	}
	p.ClientRequestsTotal.WithLabelValues(method, route, result).Inc()
	p.ClientRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}

		status := strconv.Itoa(ctx.Writer.Status())
		method := ctx.Request.Method

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
	}
}
