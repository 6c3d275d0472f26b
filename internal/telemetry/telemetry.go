// Package telemetry defines the service's Prometheus metrics and the HTTP
// middleware that records them.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsdesk_http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsdesk_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)

	ingestArticlesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsdesk_ingest_articles_total",
			Help: "Total number of articles upserted, labeled by category and country.",
		},
		[]string{"category", "country"},
	)

	ingestPairFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsdesk_ingest_pair_failures_total",
			Help: "Total number of category/country pairs skipped after a fetch failure.",
		},
		[]string{"category", "country"},
	)

	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsdesk_upstream_requests_total",
			Help: "Total number of upstream API requests, labeled by upstream and status.",
		},
		[]string{"upstream", "status"},
	)
)

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// AddIngestedArticles records articles stored for a category/country pair.
func AddIngestedArticles(category, country string, n int) {
	ingestArticlesTotal.WithLabelValues(category, country).Add(float64(n))
}

// IncIngestPairFailure records a skipped category/country pair.
func IncIngestPairFailure(category, country string) {
	ingestPairFailuresTotal.WithLabelValues(category, country).Inc()
}

// IncUpstreamRequest records one request against an external feed.
func IncUpstreamRequest(upstream string, status int) {
	upstreamRequestsTotal.WithLabelValues(upstream, strconv.Itoa(status)).Inc()
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware is a chi middleware that records HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}

		ObserveHTTPRequest(r.Method, routePattern, ww.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
