package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"visitgate/internal/domain/ports/adapter"
	"visitgate/internal/infra/logging"
)

// MailDispatcher routes outbound mail through an explicit per-call failure
// policy. Propagating sends run inline on the request; log-and-continue sends
// are handed to the background submit func so their failure cannot reach an
// already-committed primary write.
type MailDispatcher struct {
	sender adapter.MailSender
	submit func(task func(ctx context.Context) error) error
	log    *zerolog.Logger
}

func NewMailDispatcher(sender adapter.MailSender, submit func(task func(ctx context.Context) error) error, logger *zerolog.Logger) *MailDispatcher {
	return &MailDispatcher{sender: sender, submit: submit, log: logger}
}

// Dispatch sends m under the given failure mode. In FailLog mode the returned
// error is always nil; onSent (optional) runs after a successful send, e.g.
// to flip an idempotency flag.
func (d *MailDispatcher) Dispatch(ctx context.Context, m adapter.Mail, mode adapter.FailureMode, onSent func(ctx context.Context) error) error {
	if mode == adapter.FailPropagate {
		if err := d.sender.Send(ctx, m); err != nil {
			return err
		}
		if onSent != nil {
			return onSent(ctx)
		}
		return nil
	}

	err := d.submit(func(taskCtx context.Context) error {
		if err := d.sender.Send(taskCtx, m); err != nil {
			logging.With(taskCtx, d.log).Warn().Err(err).Str("to", m.To).Str("subject", m.Subject).Msg("best-effort mail dispatch failed")
			return nil
		}
		if onSent != nil {
			if err := onSent(taskCtx); err != nil {
				logging.With(taskCtx, d.log).Warn().Err(err).Str("to", m.To).Msg("post-send hook failed")
			}
		}
		return nil
	})
	if err != nil {
		// Queue full or stopped: drop, the primary write already succeeded.
		d.log.Warn().Err(err).Str("to", m.To).Msg("mail task not enqueued")
	}
	return nil
}
