package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vitrina",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "status"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vitrina",
			Name:      "bookings_created_total",
			Help:      "Bookings successfully committed to the ledger.",
		},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vitrina",
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions by target status.",
		},
		[]string{"status"},
	)

	slotFullRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vitrina",
			Name:      "slot_full_rejections_total",
			Help:      "Booking attempts rejected because the slot was full.",
		},
	)

	checkIns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vitrina",
			Name:      "store_checkins_total",
			Help:      "Store check-in stream events by direction.",
		},
		[]string{"direction"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			bookingsCreated,
			bookingTransitions,
			slotFullRejections,
			checkIns,
		)
	})
}

// IncHTTP increments the request counter for an endpoint/status pair.
func IncHTTP(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

// IncBookingCreated counts a committed booking.
func IncBookingCreated() {
	bookingsCreated.Inc()
}

// IncTransition counts a status transition by its target status.
func IncTransition(status string) {
	bookingTransitions.WithLabelValues(status).Inc()
}

// IncSlotFull counts a capacity rejection.
func IncSlotFull() {
	slotFullRejections.Inc()
}

// IncCheckIn counts a check-in ("in") or check-out ("out") event.
func IncCheckIn(direction string) {
	checkIns.WithLabelValues(direction).Inc()
}
