package jobs

import "github.com/prometheus/client_golang/prometheus"

var (
	jobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitcoach",
		Subsystem: "jobs",
		Name:      "runs_total",
		Help:      "Maintenance job runs grouped by job and outcome.",
	}, []string{"job", "status"})
	jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fitcoach",
		Subsystem: "jobs",
		Name:      "duration_seconds",
		Help:      "Maintenance job run time.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})
	jobLastSuccess = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fitcoach",
		Subsystem: "jobs",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last successful run per job.",
	}, []string{"job"})
)

func init() {
	prometheus.MustRegister(jobRuns, jobDuration, jobLastSuccess)
}
