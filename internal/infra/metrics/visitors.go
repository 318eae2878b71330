package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		visitorsCheckedInTotal,
		visitorsCheckedOutTotal,
	)
}

var (
	visitorsCheckedInTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "visitors_checked_in_total",
			Help: "Total number of visitor check-ins.",
		},
	)

	visitorsCheckedOutTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "visitors_checked_out_total",
			Help: "Total number of visitor checkouts.",
		},
	)
)

func IncVisitorsCheckedIn()  { visitorsCheckedInTotal.Inc() }
func IncVisitorsCheckedOut() { visitorsCheckedOutTotal.Inc() }
