package mail

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mailersend/mailersend-go"

	"visitgate/internal/domain/ports/adapter"
)

// Ensure interface compliance
var _ adapter.MailSender = (*MailerSendSender)(nil)

// MailerSendSender delivers mail through the MailerSend API.
type MailerSendSender struct {
	client *mailersend.Mailersend
	from   mailersend.From
}

func NewMailerSendSender(apiKey, fromEmail, fromName string) (*MailerSendSender, error) {
	if apiKey == "" || fromEmail == "" {
		return nil, fmt.Errorf("mailersend: api key and from address are required")
	}
	return &MailerSendSender{
		client: mailersend.NewMailersend(apiKey),
		from:   mailersend.From{Name: fromName, Email: fromEmail},
	}, nil
}

func (s *MailerSendSender) Send(ctx context.Context, m adapter.Mail) error {
	msg := s.client.Email.NewMessage()
	msg.SetFrom(s.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: m.ToName, Email: m.To}})
	msg.SetSubject(m.Subject)
	if strings.TrimSpace(m.Text) != "" {
		msg.SetText(m.Text)
	}
	if strings.TrimSpace(m.HTML) != "" {
		msg.SetHTML(m.HTML)
	}

	res, err := s.client.Email.Send(ctx, msg)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("mailersend: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
