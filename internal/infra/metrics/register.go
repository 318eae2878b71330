package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	regOnce sync.Once
	pending []prometheus.Collector
)

// register queues collectors from the per-file init funcs. Nothing touches
// the default registry until MustRegister runs in main.
func register(c ...prometheus.Collector) {
	pending = append(pending, c...)
}

// MustRegister installs every queued collector into the default registry.
// Only the first call does any work.
func MustRegister() {
	regOnce.Do(func() {
		if len(pending) > 0 {
			prometheus.MustRegister(pending...)
		}
	})
}
