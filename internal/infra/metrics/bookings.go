package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		bookingsCreatedTotal,
		bookingConflictsTotal,
	)
}

var (
	bookingsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Total number of bookings committed.",
		},
	)

	bookingConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_conflicts_total",
			Help: "Total number of booking attempts rejected for slot overlap.",
		},
	)
)

func IncBookingsCreated()  { bookingsCreatedTotal.Inc() }
func IncBookingConflicts() { bookingConflictsTotal.Inc() }
