package utils

import (
	"errors"

	"gopkg.in/gomail.v2"
)

// Mailer sends HTML mail through an SMTP relay.
type Mailer struct {
	Host     string
	Port     int
	User     string
	Password string
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (m Mailer) Enabled() bool {
	return m.Host != "" && m.User != ""
}

func (m Mailer) SendEmail(to, subject, body string) error {
	if !m.Enabled() {
		return errors.New("smtp is not configured")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.User)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	d := gomail.NewDialer(m.Host, m.Port, m.User, m.Password)
	return d.DialAndSend(msg)
}
