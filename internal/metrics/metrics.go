package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the reporting service.
type Metrics struct {
	// Pipeline metrics
	ReportsBuilt   *prometheus.CounterVec
	BuildDuration  *prometheus.HistogramVec
	FetchErrors    *prometheus.CounterVec
	RecordsFetched *prometheus.CounterVec

	// Lifecycle metrics
	ReportsCreated     *prometheus.CounterVec
	ReportsPublished   prometheus.Counter
	ReportsArchived    prometheus.Counter
	DuplicatePeriods   prometheus.Counter
	InvalidTransitions prometheus.Counter

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Notification metrics
	Notifications *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ReportsBuilt: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_built_total",
				Help:      "Total number of report summaries built, by report type",
			},
			[]string{"report_type"},
		),
		BuildDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_build_duration_seconds",
				Help:      "Time spent building a report summary",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"report_type"},
		),
		FetchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "record_fetch_errors_total",
				Help:      "Raw record fetch failures, by channel",
			},
			[]string{"channel"},
		),
		RecordsFetched: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_fetched_total",
				Help:      "Raw metric records fetched from the warehouse, by channel",
			},
			[]string{"channel"},
		),
		ReportsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_created_total",
				Help:      "Reports created, by report type",
			},
			[]string{"report_type"},
		),
		ReportsPublished: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_published_total",
				Help:      "Reports transitioned to published",
			},
		),
		ReportsArchived: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_archived_total",
				Help:      "Reports transitioned to archived",
			},
		),
		DuplicatePeriods: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "duplicate_period_conflicts_total",
				Help:      "Report creations rejected by the period uniqueness constraint",
			},
		),
		InvalidTransitions: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invalid_transitions_total",
				Help:      "Rejected report status transitions",
			},
		),
		CacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_cache_hits_total",
				Help:      "Report cache hits",
			},
		),
		CacheMisses: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_cache_misses_total",
				Help:      "Report cache misses",
			},
		),
		Notifications: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Notification delivery attempts, by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveBuild records one completed summary build.
func (m *Metrics) ObserveBuild(reportType string, d time.Duration) {
	if m == nil {
		return
	}
	m.ReportsBuilt.WithLabelValues(reportType).Inc()
	m.BuildDuration.WithLabelValues(reportType).Observe(d.Seconds())
}

// RecordNotification records a delivery attempt outcome.
func (m *Metrics) RecordNotification(delivered bool) {
	if m == nil {
		return
	}
	outcome := "sent"
	if !delivered {
		outcome = "failed"
	}
	m.Notifications.WithLabelValues(outcome).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
