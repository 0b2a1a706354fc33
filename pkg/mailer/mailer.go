// Package mailer sends notification mail over SMTP. Delivery is
// best-effort: callers log failures and move on.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// Sender delivers a single message. Implemented by SMTP below and by
// fakes in tests.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTP sends mail through a plain SMTP relay.
type SMTP struct {
	host        string
	port        int
	user        string
	pass        string
	fromAddress string
	fromName    string
}

// NewSMTP creates an SMTP sender. User/pass may be empty for an
// unauthenticated relay.
func NewSMTP(host string, port int, user, pass, fromAddress, fromName string) *SMTP {
	return &SMTP{host: host, port: port, user: user, pass: pass, fromAddress: fromAddress, fromName: fromName}
}

// Send delivers one message.
func (m *SMTP) Send(to, subject, body string) error {
	if m.host == "" {
		return fmt.Errorf("smtp host not configured")
	}
	msg := m.buildMessage(to, subject, body)
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}
	if err := smtp.SendMail(addr, auth, m.fromAddress, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (m *SMTP) buildMessage(to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", m.fromName, m.fromAddress)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
