package notify

import (
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	applog "sellerhub/internal/log"
)

type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer delivers through a relay with PLAIN auth when credentials are set.
type SMTPMailer struct {
	Addr string
	From string
	auth smtp.Auth
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	m := &SMTPMailer{Addr: net.JoinHostPort(host, strconv.Itoa(port)), From: from}
	if username != "" {
		m.auth = smtp.PlainAuth("", username, password, host)
	}
	return m
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(htmlBody)
	if err := smtp.SendMail(m.Addr, m.auth, m.From, []string{to}, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes mail to the application log instead of sending it.
type LogMailer struct{}

func (LogMailer) Send(to, subject, htmlBody string) error {
	applog.Info(nil, "mail.logged", map[string]any{"to": to, "subject": subject, "bytes": len(htmlBody)})
	return nil
}
