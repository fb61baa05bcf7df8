package captcha

import "github.com/prometheus/client_golang/prometheus"

var (
	issuedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitcoach",
		Subsystem: "captcha",
		Name:      "issued_total",
		Help:      "Number of captcha challenges issued.",
	})

	verifyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitcoach",
		Subsystem: "captcha",
		Name:      "verifications_total",
		Help:      "Captcha verifications grouped by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(issuedCounter, verifyCounter)
}
