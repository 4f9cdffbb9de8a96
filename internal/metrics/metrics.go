// Package metrics exposes Prometheus collectors for the tracker service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scrapeJobsTotal            *prometheus.CounterVec
	scrapeActiveJobs           prometheus.Gauge
	webhookResultsTotal        *prometheus.CounterVec
	historyInsertsTotal        prometheus.Counter
	sweptJobsTotal             prometheus.Counter
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scrapeJobsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracker_scrape_jobs_total",
				Help: "Total number of scrape jobs launched, labeled by platform and provider.",
			},
			[]string{"platform", "provider"},
		)

		scrapeActiveJobs = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tracker_scrape_jobs_active",
				Help: "Number of scrape worker processes currently running.",
			},
		)

		webhookResultsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracker_webhook_results_total",
				Help: "Total number of scraping results received, labeled by status.",
			},
			[]string{"status"},
		)

		historyInsertsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "tracker_history_inserts_total",
				Help: "Total number of search history rows written.",
			},
		)

		sweptJobsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "tracker_swept_jobs_total",
				Help: "Total number of scrape jobs force-failed by the deadline sweeper.",
			},
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
				Help:    "Histogram of HTTP request durations, labeled by method and route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveJobLaunched increments the launched jobs counter.
func ObserveJobLaunched(platform, provider string) {
	scrapeJobsTotal.WithLabelValues(platform, provider).Inc()
}

// IncActiveJobs increments the running worker gauge.
func IncActiveJobs() {
	scrapeActiveJobs.Inc()
}

// DecActiveJobs decrements the running worker gauge.
func DecActiveJobs() {
	scrapeActiveJobs.Dec()
}

// ObserveResult counts one ingested scraping result.
func ObserveResult(status string) {
	webhookResultsTotal.WithLabelValues(status).Inc()
}

// ObserveHistoryInsert counts one history row write.
func ObserveHistoryInsert() {
	historyInsertsTotal.Inc()
}

// ObserveSweptJob counts one job force-failed by the sweeper.
func ObserveSweptJob() {
	sweptJobsTotal.Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
