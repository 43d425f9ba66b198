package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"time"

	"github.com/onexay/travis-notify/internal/logging"
)

// Mailer transmits a formatted message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer relays messages through an SMTP server, upgrading to TLS when
// the server offers STARTTLS.
type SMTPMailer struct {
	Addr     string
	Username string
	Password string
	Timeout  time.Duration
}

// Send delivers msg to every recipient in msg.To.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("smtp: no recipients")
	}
	host, _, err := net.SplitHostPort(m.Addr)
	if err != nil {
		return fmt.Errorf("smtp: invalid address %q: %w", m.Addr, err)
	}

	timeout := m.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", m.Addr)
	if err != nil {
		return fmt.Errorf("smtp: dial %s: %w", m.Addr, err)
	}
	deadline := time.Now().Add(timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp: handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return fmt.Errorf("smtp: starttls: %w", err)
		}
	}
	if m.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", m.Username, m.Password, host)); err != nil {
			return fmt.Errorf("smtp: auth: %w", err)
		}
	}
	from, err := envelopeAddress(msg.From)
	if err != nil {
		return err
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("smtp: mail from: %w", err)
	}
	for _, rcpt := range msg.To {
		addr, err := envelopeAddress(rcpt)
		if err != nil {
			return err
		}
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("smtp: rcpt %s: %w", addr, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp: data: %w", err)
	}
	if _, err := w.Write(msg.Bytes()); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp: close data: %w", err)
	}
	return client.Quit()
}

// LogMailer writes messages to the logger instead of sending them.
type LogMailer struct {
	Logger logging.Logger
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	logging.Ensure(m.Logger).WithContext(ctx).Info("mail not sent, no smtp relay configured",
		"from", msg.From,
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}

// envelopeAddress strips any display name: RCPT TO and MAIL FROM take the
// bare address only.
func envelopeAddress(header string) (string, error) {
	addr, err := mail.ParseAddress(header)
	if err != nil {
		return "", fmt.Errorf("smtp: invalid address %q: %w", header, err)
	}
	return addr.Address, nil
}
