package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailcheck_messages_processed_total",
			Help: "Inbound messages handled by the mail-check pipeline",
		},
		[]string{"outcome"}, // reply, bounce, skipped, error
	)

	SequencesCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mailcheck_followups_cancelled_total",
			Help: "Scheduled follow-ups cancelled by the sequence controller",
		},
	)

	NotificationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "In-app notifications inserted by the emitter",
		},
	)

	ImportRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_rows_total",
			Help: "Rows handled by the import pipeline",
		},
		[]string{"status"}, // success, error, skipped
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
