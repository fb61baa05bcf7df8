package chat

import "github.com/prometheus/client_golang/prometheus"

var (
	connectedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fitcoach",
		Subsystem: "chat",
		Name:      "connections",
		Help:      "Number of open chat WebSocket connections.",
	})

	framesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitcoach",
		Subsystem: "chat",
		Name:      "broadcasts_total",
		Help:      "Number of chat events broadcast to course rooms.",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(connectedGauge, framesCounter)
}
