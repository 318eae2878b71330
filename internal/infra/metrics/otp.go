package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		otpSentTotal,
		otpVerifiedTotal,
		otpFailedTotal,
	)
}

var (
	otpSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "otp_sent_total",
			Help: "Total number of OTP codes dispatched.",
		},
	)

	otpVerifiedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "otp_verified_total",
			Help: "Total number of successful OTP verifications.",
		},
	)

	otpFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_failed_total",
			Help: "OTP verification failures by reason.",
		},
		[]string{"reason"}, // 'expired', 'mismatch'
	)
)

func IncOtpSent()                { otpSentTotal.Inc() }
func IncOtpVerified()            { otpVerifiedTotal.Inc() }
func IncOtpFailed(reason string) { otpFailedTotal.WithLabelValues(reason).Inc() }
