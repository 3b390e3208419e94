package notify

import (
	"freelance/notifier/internal/config"

	"gopkg.in/gomail.v2"
)

// SMTPMailer delivers digest emails over an authenticated STARTTLS
// session.
type SMTPMailer struct {
	dialer *gomail.Dialer
	email  string
	sender string
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Server, cfg.Port, cfg.Email, cfg.Password),
		email:  cfg.Email,
		sender: cfg.Sender,
	}
}

func (m *SMTPMailer) Send(email Email) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.email, m.sender)
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/plain", email.Text)
	msg.AddAlternative("text/html", email.HTML)
	return m.dialer.DialAndSend(msg)
}
