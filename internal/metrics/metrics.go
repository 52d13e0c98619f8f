package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deskbook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	reservationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "deskbook",
			Name:      "reservations_created_total",
			Help:      "Successfully created reservations.",
		},
	)

	reservationConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "deskbook",
			Name:      "reservation_conflicts_total",
			Help:      "Booking attempts rejected due to an overlapping reservation.",
		},
	)

	reservationsCanceled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "deskbook",
			Name:      "reservations_canceled_total",
			Help:      "Canceled reservations.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, reservationsCreated, reservationConflicts, reservationsCanceled)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncReservationCreated() { reservationsCreated.Inc() }
func IncReservationConflict() { reservationConflicts.Inc() }
func IncReservationCanceled() { reservationsCanceled.Inc() }
