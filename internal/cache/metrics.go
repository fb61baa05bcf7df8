package cache

import "github.com/prometheus/client_golang/prometheus"

var (
	hitCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitcoach",
		Subsystem: "catalog_cache",
		Name:      "hits_total",
		Help:      "Catalog cache hits.",
	})

	missCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitcoach",
		Subsystem: "catalog_cache",
		Name:      "misses_total",
		Help:      "Catalog cache misses.",
	})
)

func init() {
	prometheus.MustRegister(hitCounter, missCounter)
}
