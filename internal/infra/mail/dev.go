package mail

import (
	"context"

	"github.com/rs/zerolog"

	"visitgate/internal/domain/ports/adapter"
)

// Ensure interface compliance
var _ adapter.MailSender = (*DevSender)(nil)

// DevSender logs outbound mail instead of delivering it. Used in local runs
// and tests where no provider credentials exist.
type DevSender struct {
	log *zerolog.Logger
}

func NewDevSender(log *zerolog.Logger) *DevSender {
	return &DevSender{log: log}
}

func (s *DevSender) Send(_ context.Context, m adapter.Mail) error {
	s.log.Info().
		Str("to", m.To).
		Str("subject", m.Subject).
		Str("text", m.Text).
		Msg("dev mail (not delivered)")
	return nil
}
