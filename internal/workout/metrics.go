package workout

import "github.com/prometheus/client_golang/prometheus"

var (
	activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fitcoach",
		Subsystem: "workout",
		Name:      "sessions_active",
		Help:      "Number of live workout player sessions.",
	})

	completedSessions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitcoach",
		Subsystem: "workout",
		Name:      "sessions_completed_total",
		Help:      "Number of workout player sessions that reached the end.",
	})
)

func init() {
	prometheus.MustRegister(activeSessions, completedSessions)
}
