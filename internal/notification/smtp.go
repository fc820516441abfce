package notification

import (
	"context"
	"fmt"

	mail "github.com/go-mail/mail"

	"residora/internal/platform/config"
)

// SMTPSender delivers mail over SMTP with STARTTLS negotiation.
type SMTPSender struct {
	host string
	port int
	from string
	user string
	pass string
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		host: cfg.Host,
		port: cfg.Port,
		from: cfg.From,
		user: cfg.User,
		pass: cfg.Pass,
	}
}

func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)

	// Prefer multipart/alternative (text + html).
	if msg.TextBody != "" {
		m.SetBody("text/plain", msg.TextBody)
	}
	if msg.HTMLBody != "" {
		if msg.TextBody == "" {
			m.SetBody("text/html", msg.HTMLBody)
		} else {
			m.AddAlternative("text/html", msg.HTMLBody)
		}
	}

	d := mail.NewDialer(s.host, s.port, s.user, s.pass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
