package outbox

import "github.com/prometheus/client_golang/prometheus"

var (
	deliveredCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitcoach",
		Subsystem: "outbox",
		Name:      "coaching_events_delivered_total",
		Help:      "Coaching events published to Kafka, by event type.",
	}, []string{"event_type"})

	failedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitcoach",
		Subsystem: "outbox",
		Name:      "coaching_events_failed_total",
		Help:      "Coaching events whose Kafka publish failed and were parked in outbox_dlq, by event type.",
	}, []string{"event_type"})

	batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fitcoach",
		Subsystem: "outbox",
		Name:      "dispatch_batch_duration_seconds",
		Help:      "Time to claim, publish and mark one batch of coaching events.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	dlqCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitcoach",
		Subsystem: "outbox",
		Name:      "coaching_events_dlq_total",
		Help:      "Coaching events moved to the dead-letter table, by topic.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(deliveredCounter, failedCounter, batchDuration, dlqCounter)
}

func countByType(counter *prometheus.CounterVec, messages []Message) {
	for _, msg := range messages {
		counter.WithLabelValues(msg.EventType).Inc()
	}
}
