package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for monitoring the synchronization engine
var (
	PublishAttemptsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "listsync_publish_attempts_total",
			Help: "Total number of publish drain steps that claimed an item",
		},
	)

	PublishSuccessTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "listsync_publish_success_total",
			Help: "Total number of queue items published and snapshotted",
		},
	)

	PublishRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "listsync_publish_retries_total",
			Help: "Total number of transient publish failures scheduled for retry",
		},
	)

	PublishDeadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "listsync_publish_dead_total",
			Help: "Total number of queue items dead-lettered",
		},
	)

	PublishDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "listsync_publish_duration_seconds",
			Help:    "Duration of one publish drain step",
			Buckets: prometheus.DefBuckets,
		},
	)

	DriftEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listsync_drift_events_total",
			Help: "Total number of drift events recorded, by classification",
		},
		[]string{"classification"},
	)

	ReconcileSkipsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "listsync_reconcile_skips_total",
			Help: "Total number of listings skipped during reconciliation (remote fetch failed)",
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "listsync_queue_depth",
			Help: "Number of queue items still owed to the remote side",
		},
	)

	LastPublishAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "listsync_last_publish_age_seconds",
			Help: "Seconds since the most recent successful publish",
		},
	)

	PolicyRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listsync_policy_refresh_total",
			Help: "Total number of policy cache refreshes, by outcome",
		},
		[]string{"outcome"},
	)
)

// Register registers all Prometheus metrics
func Register() {
	prometheus.MustRegister(PublishAttemptsTotal)
	prometheus.MustRegister(PublishSuccessTotal)
	prometheus.MustRegister(PublishRetriesTotal)
	prometheus.MustRegister(PublishDeadTotal)
	prometheus.MustRegister(PublishDuration)
	prometheus.MustRegister(DriftEventsTotal)
	prometheus.MustRegister(ReconcileSkipsTotal)
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(LastPublishAgeSeconds)
	prometheus.MustRegister(PolicyRefreshTotal)
}
