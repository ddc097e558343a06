// Package mail delivers the rendered digest over authenticated SMTP
// submission (STARTTLS on the standard port).
package mail

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"

	"vndigest/internal/logger"
)

// ErrMissingCredentials marks a run that processed articles but was never
// configured to deliver them. Callers distinguish it from transport failures.
var ErrMissingCredentials = errors.New("mail credentials are not configured")

// Sender delivers one digest document.
type Sender interface {
	Send(ctx context.Context, subject, htmlBody string) error
}

// SMTPSender sends the digest as a multipart HTML message through an
// authenticated submission session.
type SMTPSender struct {
	host     string
	port     int
	from     string
	password string
	to       string
}

// NewSMTPSender builds the production sender. Credentials are validated at
// send time, not here.
func NewSMTPSender(host string, port int, from, password, to string) *SMTPSender {
	return &SMTPSender{host: host, port: port, from: from, password: password, to: to}
}

// Send submits the message once. No retry: a failed delivery is the run's
// terminal outcome.
func (s *SMTPSender) Send(ctx context.Context, subject, htmlBody string) error {
	if s.from == "" || s.password == "" || s.to == "" {
		return ErrMissingCredentials
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to)
	m.SetHeader("Subject", subject)
	// multipart/alternative: plain fallback for clients that reject HTML.
	m.SetBody("text/plain", "Bản tóm tắt tuần này chỉ có ở định dạng HTML.")
	m.AddAlternative("text/html", htmlBody)

	dialer := gomail.NewDialer(s.host, s.port, s.from, s.password)

	// gomail has no context support; bound the call ourselves so a hung SMTP
	// session cannot stall the run past the caller's deadline.
	done := make(chan error, 1)
	go func() { done <- dialer.DialAndSend(m) }()

	select {
	case <-ctx.Done():
		return fmt.Errorf("mail delivery aborted: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
	}

	logger.Info("digest delivered", "to", s.to, "subject", subject)
	return nil
}
