// Package mailer sends transactional email such as verification codes.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"picfeed/internal/config"
	"picfeed/internal/middleware"
)

// Mailer delivers a plain-text message to a single recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New returns an SMTP mailer when SMTP_HOST is configured and a log mailer otherwise.
func New(cfg *config.Config) Mailer {
	if cfg == nil || strings.TrimSpace(cfg.SMTPHost) == "" {
		return LogMailer{}
	}
	return &SMTPMailer{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}
}

// LogMailer writes messages to the application log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, to, subject, body string) error {
	middleware.Logger.InfoContext(ctx, "Email not sent (log mailer)",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", body),
	)
	return nil
}

// SMTPMailer sends mail through an SMTP relay using PLAIN auth when credentials are set.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// send is smtp.SendMail; replaced in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	send := m.send
	if send == nil {
		send = smtp.SendMail
	}
	if err := send(addr, auth, m.From, []string{to}, buildMessage(m.From, to, subject, body)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
