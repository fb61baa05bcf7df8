// Package observability holds HTTP metrics and request logging shared by the API binary.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitcoach",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests grouped by method, route pattern and status code.",
	}, []string{"method", "route", "status"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fitcoach",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency grouped by method and route pattern.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "route"})
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fitcoach",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "HTTP requests currently being served, including open streams.",
	})
	domainEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitcoach",
		Subsystem: "domain",
		Name:      "actions_total",
		Help:      "Successful user-facing actions grouped by name.",
	}, []string{"action"})
)

func init() {
	prometheus.MustRegister(httpRequests, httpDuration, httpInFlight, domainEvents)
}

func recordRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Domain action names recorded by the API handlers.
const (
	ActionRegister         = "register"
	ActionLogin            = "login"
	ActionOAuthLogin       = "oauth_login"
	ActionPasswordReset    = "password_reset"
	ActionEnroll           = "enroll"
	ActionCourseCompleted  = "course_completed"
	ActionWorkoutCompleted = "workout_completed"
	ActionChatPosted       = "chat_posted"
	ActionChatModerated    = "chat_moderated"
	ActionNutritionLogged  = "nutrition_logged"
	ActionRated            = "course_rated"
)

// RecordAction counts a successful domain action.
func RecordAction(action string) {
	domainEvents.WithLabelValues(action).Inc()
}
