/*
Package metrics declares the Prometheus collectors of the service and the HTTP
middleware that feeds the request collectors.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Auth outcomes recorded by RecordAuth.
const (
	OutcomeSuccess     = "success"
	OutcomeRejected    = "rejected"
	OutcomeDuplicate   = "duplicate"
	OutcomeUnavailable = "unavailable"
	OutcomeDegraded    = "degraded"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aqi_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aqi_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aqi_http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aqi_rate_limit_rejections_total",
			Help: "Total number of requests rejected by the per-IP rate limiter",
		},
		[]string{"path"},
	)

	// AuthAttempts counts register and login attempts.
	// Labels:
	//   - action: "register", "login"
	//   - outcome: one of the Outcome* constants
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aqi_auth_attempts_total",
			Help: "Total number of register and login attempts by outcome",
		},
		[]string{"action", "outcome"},
	)

	WeatherUpstreamTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aqi_weather_upstream_requests_total",
			Help: "Total number of weather upstream calls by result",
		},
		[]string{"result"},
	)

	// WeatherBreakerState is 0 closed, 1 half-open, 2 open.
	WeatherBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aqi_weather_circuit_breaker_state",
			Help: "Weather upstream circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
	)

	FeedConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aqi_readings_feed_connections",
			Help: "Current number of live readings websocket clients",
		},
	)
)

// RecordAuth records one register or login attempt.
func RecordAuth(action, outcome string) {
	AuthAttempts.WithLabelValues(action, outcome).Inc()
}

// RecordWeather records the result of one weather upstream call.
func RecordWeather(result string) {
	WeatherUpstreamTotal.WithLabelValues(result).Inc()
}

// Middleware records request count, latency and in-flight requests.
// The route label is the chi route pattern so path parameters do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HTTPInFlight.Inc()
		defer HTTPInFlight.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
