// Package metrics exposes prometheus counters for the event pipeline and
// the HTTP handler that serves them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsPublished counts events confirmed by the broker, by type.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tasktrack_events_published_total",
		Help: "The total number of events confirmed by the broker",
	}, []string{"event_type"})

	// PublishFailures counts publish attempts the broker did not confirm.
	PublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tasktrack_events_publish_failures_total",
		Help: "The total number of publish attempts not confirmed by the broker",
	})

	// EventsAcknowledged counts events processed and acked by the consumer.
	EventsAcknowledged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tasktrack_events_acknowledged_total",
		Help: "The total number of events successfully processed and acknowledged",
	}, []string{"event_type"})

	// EventsRedelivered counts events returned to the queue for retry.
	EventsRedelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tasktrack_events_redelivered_total",
		Help: "The total number of events rejected for redelivery after a processing failure",
	})

	// EventsDeadLettered counts events removed after exhausting redeliveries.
	EventsDeadLettered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tasktrack_events_dead_lettered_total",
		Help: "The total number of events dead-lettered after exhausting redeliveries",
	})
)

// Handler returns the HTTP handler serving the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
