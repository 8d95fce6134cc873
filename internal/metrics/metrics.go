// Package metrics exposes Prometheus collectors for the firm crawler.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	targetsTotal               *prometheus.CounterVec
	targetDurationSeconds      prometheus.Histogram
	sectionFetchesTotal        *prometheus.CounterVec
	candidatesTotal            *prometheus.CounterVec
	runsTotal                  *prometheus.CounterVec
	remainingTargets           prometheus.Gauge
	rateLimitDelaysSeconds     *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		targetsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "firmcrawler_targets_total",
				Help: "Targets finished, labeled by status and failure class.",
			},
			[]string{"status", "reason"},
		)

		targetDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "firmcrawler_target_duration_seconds",
				Help:    "Wall-clock time spent on a single target.",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
		)

		sectionFetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "firmcrawler_section_fetches_total",
				Help: "Page fetches, labeled by site and status.",
			},
			[]string{"site", "status"},
		)

		candidatesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "firmcrawler_candidates_total",
				Help: "Candidate links discovered, labeled by source.",
			},
			[]string{"source"},
		)

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "firmcrawler_runs_total",
				Help: "Orchestrator invocations, labeled by terminal state.",
			},
			[]string{"outcome"},
		)

		remainingTargets = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "firmcrawler_remaining_targets",
				Help: "Targets not yet processed in the current checkpoint.",
			},
		)

		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "firmcrawler_rate_limit_delay_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// ReasonClass folds a free-text failure reason into a bounded label value.
func ReasonClass(reason string) string {
	switch reason {
	case "":
		return "none"
	case "no_content", "extraction_failed":
		return reason
	}
	return "error"
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveTarget counts a finished target.
func ObserveTarget(status, reason string, duration time.Duration) {
	Init()
	targetsTotal.WithLabelValues(status, ReasonClass(reason)).Inc()
	targetDurationSeconds.Observe(duration.Seconds())
}

// ObserveSectionFetch counts a single page fetch.
func ObserveSectionFetch(rawURL, status string) {
	Init()
	sectionFetchesTotal.WithLabelValues(SanitizeSite(rawURL), status).Inc()
}

// ObserveCandidates adds n discovered links for source.
func ObserveCandidates(source string, n int) {
	Init()
	if n > 0 {
		candidatesTotal.WithLabelValues(source).Add(float64(n))
	}
}

// ObserveRun counts an orchestrator exit.
func ObserveRun(outcome string) {
	Init()
	runsTotal.WithLabelValues(outcome).Inc()
}

// SetRemaining publishes the current backlog size.
func SetRemaining(n int) {
	Init()
	remainingTargets.Set(float64(n))
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	Init()
	rateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Middleware is a chi middleware that records HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			routePattern = rctx.RoutePattern()
		}
		if routePattern == "" {
			routePattern = "unknown"
		}
		ObserveHTTPRequest(r.Method, routePattern, ww.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
