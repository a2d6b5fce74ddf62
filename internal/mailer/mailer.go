// Package mailer delivers registration verification codes to the
// fixed operator address over SMTP.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"paga/internal/log"
)

// Sender delivers a verification code for a username.
type Sender interface {
	SendVerificationCode(ctx context.Context, username, code string) error
}

// SMTPMailer sends through a plain SMTP relay.
type SMTPMailer struct {
	addr     string // host:port
	from     string
	to       string // operator address, never the registering user
	auth     smtp.Auth
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(host, port, username, password, from, operator string) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{
		addr:     host + ":" + port,
		from:     from,
		to:       operator,
		auth:     auth,
		sendMail: smtp.SendMail,
	}
}

func (m *SMTPMailer) SendVerificationCode(_ context.Context, username, code string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", m.to)
	fmt.Fprintf(&b, "Subject: Registration code for %s\r\n", username)
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "User %q requested registration.\r\nVerification code: %s\r\n", username, code)

	if err := m.sendMail(m.addr, m.auth, m.from, []string{m.to}, []byte(b.String())); err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}
	return nil
}

// LogSender writes verification codes to the log. It stands in when no
// SMTP relay is configured.
type LogSender struct {
	Logger *log.Logger
}

func (s *LogSender) SendVerificationCode(ctx context.Context, username, code string) error {
	s.Logger.InfoContext(ctx, "Verification code issued",
		log.FieldComponent, log.ComponentMailer,
		log.FieldUsername, username,
		"code", code)
	return nil
}
