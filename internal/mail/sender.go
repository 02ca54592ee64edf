package mail

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/careerlab/careerlab-os/pkg/config"
)

// Sender is the outbound message relay consumed by services.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender delivers plain-text mail through the configured SMTP relay.
type SMTPSender struct {
	host     string
	port     int
	user     string
	password string
	fromName string
}

// NewSMTPSender builds a sender from SMTP configuration.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.User,
		password: cfg.Password,
		fromName: cfg.FromName,
	}
}

// Send dials the relay and delivers a single message. Each call opens its
// own connection; delivery volume here is a handful of mails per request.
func (s *SMTPSender) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.user, s.fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.host, s.port, s.user, s.password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
