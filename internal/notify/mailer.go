package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/david/termin-watch/internal/config"
	"github.com/jordan-wright/email"
)

type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// Mailer sends through an SMTP submission server. Send upgrades to TLS
// via STARTTLS when the server offers it.
type Mailer struct {
	cfg  config.SMTPConfig
	send sendFunc
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		cfg: cfg,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

func (m *Mailer) Send(ctx context.Context, subject, body string) error {
	if !m.cfg.Complete() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	mail := email.NewEmail()
	mail.From = m.cfg.From
	if mail.From == "" {
		mail.From = m.cfg.User
	}
	mail.To = recipients(m.cfg.To)
	mail.Subject = subject
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	if err := m.send(mail, addr, auth); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}
	return nil
}

// recipients splits a comma-separated MAIL_TO.
func recipients(to string) []string {
	var out []string
	for _, r := range strings.Split(to, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
