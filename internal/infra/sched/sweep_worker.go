package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"visitgate/internal/infra/metrics"
	"visitgate/internal/usecase"
)

// SweepWorker periodically flips companies whose trial or subscription window
// has lapsed to expired, and purges dead OTP sessions.
type SweepWorker struct {
	interval time.Duration
	subUC    *usecase.SubscriptionUseCase
	otpUC    *usecase.OtpUseCase
	log      *zerolog.Logger
}

func NewSweepWorker(interval time.Duration, subUC *usecase.SubscriptionUseCase, otpUC *usecase.OtpUseCase, logger *zerolog.Logger) *SweepWorker {
	sweepLog := logger.With().Str("component", "SweepWorker").Logger()
	return &SweepWorker{
		interval: interval,
		subUC:    subUC,
		otpUC:    otpUC,
		log:      &sweepLog,
	}
}

func (w *SweepWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting sweep worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping sweep worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.subUC.FinishExpired(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("subscription sweep error")
			}
			if n > 0 {
				metrics.IncCompaniesExpired(n)
				w.log.Info().Int("count", n).Msg("expired subscriptions finished")
			}
			purged, err := w.otpUC.PurgeExpired(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("otp purge error")
			}
			if purged > 0 {
				w.log.Info().Int("count", purged).Msg("stale otp sessions purged")
			}
		}
	}
}
