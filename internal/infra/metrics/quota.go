package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(quotaDeniedTotal)
}

var quotaDeniedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "quota_denied_total",
		Help: "Resource creations denied by plan quota, by resource kind.",
	},
	[]string{"resource"}, // 'rooms', 'bookings', 'visitors'
)

func IncQuotaDenied(resource string) { quotaDeniedTotal.WithLabelValues(resource).Inc() }
