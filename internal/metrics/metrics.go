package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartturf",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status.",
		},
		[]string{"endpoint", "status"},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartturf",
			Name:      "bookings_total",
			Help:      "Reservation attempts by outcome (created, conflict, rejected).",
		},
		[]string{"outcome"},
	)

	matchJoins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartturf",
			Name:      "match_joins_total",
			Help:      "Match join attempts by outcome (joined, full, duplicate).",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookings, matchJoins)
	})
}

// IncHTTP increments the request counter for an endpoint/status pair.
func IncHTTP(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

// IncBooking records a reservation attempt outcome.
func IncBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}

// IncMatchJoin records a join attempt outcome.
func IncMatchJoin(outcome string) {
	matchJoins.WithLabelValues(outcome).Inc()
}
