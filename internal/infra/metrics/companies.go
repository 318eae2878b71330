package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(companiesExpiredTotal)
}

var companiesExpiredTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "companies_expired_total",
		Help: "Total number of tenants flipped to expired by the sweep.",
	},
)

func IncCompaniesExpired(count int) { companiesExpiredTotal.Add(float64(count)) }
