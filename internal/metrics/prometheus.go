// Package metrics exposes Prometheus counters for the intake pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Notification outcomes.
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusRequeued = "requeued"
	StatusDropped  = "dropped"
)

var (
	InquiriesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inquiry_intake_inquiries_created_total",
			Help: "Total number of inquiries persisted",
		},
	)

	NotificationsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inquiry_intake_notifications_published_total",
			Help: "Total number of notification messages enqueued",
		},
	)

	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inquiry_intake_notifications_processed_total",
			Help: "Total number of notification messages processed, by outcome",
		},
		[]string{"status"},
	)

	NotificationBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inquiry_intake_notification_batch_size",
			Help:    "Number of notification messages per processed batch",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		},
	)
)

var registerOnce sync.Once

// Init registers metrics with the default Prometheus registry. Safe to call
// more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(InquiriesCreated)
		prometheus.MustRegister(NotificationsPublished)
		prometheus.MustRegister(NotificationsSent)
		prometheus.MustRegister(NotificationBatchSize)
	})
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
