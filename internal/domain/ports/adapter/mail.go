package adapter

import "context"

// FailureMode states what a mail failure means for the enclosing operation.
type FailureMode string

const (
	// FailPropagate makes dispatch failure the operation's failure (OTP mail:
	// without the code the user has no path forward).
	FailPropagate FailureMode = "propagate"
	// FailLog swallows dispatch failure after the primary write committed
	// (visitor passes, booking notifications).
	FailLog FailureMode = "log-and-continue"
)

// Mail is one outbound message.
type Mail struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// MailSender is the mail collaborator.
type MailSender interface {
	Send(ctx context.Context, m Mail) error
}
