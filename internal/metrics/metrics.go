// Package metrics exposes Prometheus collectors for the lead scraper service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scrapeJobsTotal         *prometheus.CounterVec
	leadsProcessedTotal     *prometheus.CounterVec
	leadScore               prometheus.Histogram
	outboundRequestsTotal   *prometheus.CounterVec
	outboundDurationSeconds *prometheus.HistogramVec
	eventsDroppedTotal      prometheus.Counter
	activeJobs              prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		scrapeJobsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadscout_jobs_total",
				Help: "Total scrape jobs finished, labeled by terminal status.",
			},
			[]string{"status"},
		)

		leadsProcessedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadscout_leads_processed_total",
				Help: "Total leads processed, labeled by scrape outcome.",
			},
			[]string{"outcome"},
		)

		leadScore = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "leadscout_lead_score",
				Help:    "Distribution of computed lead scores.",
				Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		)

		outboundRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadscout_outbound_requests_total",
				Help: "Outbound HTTP requests, labeled by target kind and status class.",
			},
			[]string{"kind", "class"},
		)

		outboundDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leadscout_outbound_duration_seconds",
				Help:    "Outbound HTTP request latencies, labeled by target kind.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"kind"},
		)

		eventsDroppedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "leadscout_events_dropped_total",
				Help: "Progress events dropped due to subscriber backpressure.",
			},
		)

		activeJobs = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "leadscout_active_jobs",
				Help: "Number of scrape jobs currently running.",
			},
		)
	})
}

// Handler returns an http.Handler exposing the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveJobFinished increments the terminal-status counter.
func ObserveJobFinished(status string) {
	if scrapeJobsTotal != nil {
		scrapeJobsTotal.WithLabelValues(status).Inc()
	}
}

// ObserveLead records one processed lead and its score.
func ObserveLead(outcome string, score int) {
	if leadsProcessedTotal != nil {
		leadsProcessedTotal.WithLabelValues(outcome).Inc()
	}
	if leadScore != nil {
		leadScore.Observe(float64(score))
	}
}

// ObserveOutbound records one outbound HTTP call.
func ObserveOutbound(kind string, statusCode int, dur time.Duration) {
	if outboundRequestsTotal != nil {
		outboundRequestsTotal.WithLabelValues(kind, statusClass(statusCode)).Inc()
	}
	if outboundDurationSeconds != nil {
		outboundDurationSeconds.WithLabelValues(kind).Observe(dur.Seconds())
	}
}

// ObserveEventDropped counts one dropped progress event.
func ObserveEventDropped() {
	if eventsDroppedTotal != nil {
		eventsDroppedTotal.Inc()
	}
}

// JobStarted increments the running-jobs gauge.
func JobStarted() {
	if activeJobs != nil {
		activeJobs.Inc()
	}
}

// JobEnded decrements the running-jobs gauge.
func JobEnded() {
	if activeJobs != nil {
		activeJobs.Dec()
	}
}

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "other"
	}
}
