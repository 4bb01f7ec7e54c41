// Package mail sends SMTP e-mail.
//
//	sender := mail.NewSMTPSender(mail.FromConfig())
//	err := sender.Send(ctx, mail.Message{
//	    To:      []string{"shop@example.com"},
//	    Subject: "Order ORD-124 is Paid",
//	    Body:    "...",
//	})
package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/darzi-app/darzi/config"
)

// ErrNotConfigured is returned when no SMTP credentials are set.
var ErrNotConfigured = errors.New("mail: MAIL_USERNAME not configured")

// SMTP holds connection settings.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// FromConfig reads MAIL_* settings.
func FromConfig() SMTP {
	return SMTP{
		Host:     config.Get("MAIL_HOST", "smtp.mailtrap.io"),
		Port:     config.Get("MAIL_PORT", "587"),
		Username: config.Get("MAIL_USERNAME", ""),
		Password: config.Get("MAIL_PASSWORD", ""),
		From:     config.Get("MAIL_FROM", "orders@darzi.local"),
		FromName: config.Get("MAIL_FROM_NAME", config.ShopName()),
	}
}

// Message is an outgoing e-mail. Body is plain text unless HTML is set.
type Message struct {
	To      []string
	CC      []string
	Subject string
	Body    string
	HTML    bool
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// SMTPSender delivers over SMTP: implicit TLS on port 465, STARTTLS otherwise.
type SMTPSender struct {
	cfg SMTP
}

// NewSMTPSender creates a sender for cfg.
func NewSMTPSender(cfg SMTP) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	cfg := s.cfg
	if cfg.Username == "" {
		return ErrNotConfigured
	}
	if len(m.To) == 0 {
		return errors.New("mail: no recipients")
	}

	rcpt := append(append([]string{}, m.To...), m.CC...)
	raw := m.Bytes(fmt.Sprintf("%s <%s>", cfg.FromName, cfg.From))
	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)

	if cfg.Port != "465" {
		return smtp.SendMail(addr, auth, cfg.From, rcpt, raw)
	}

	d := tls.Dialer{Config: &tls.Config{ServerName: cfg.Host}}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("mail: TLS dial: %w", err)
	}
	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("mail: smtp client: %w", err)
	}
	defer client.Quit() //nolint:errcheck

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("mail: auth: %w", err)
	}
	if err := client.Mail(cfg.From); err != nil {
		return err
	}
	for _, a := range rcpt {
		if err := client.Rcpt(a); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Bytes renders m as an RFC 5322 message from the given sender.
func (m Message) Bytes(from string) []byte {
	contentType := "text/plain"
	if m.HTML {
		contentType = "text/html"
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(m.To, ", ") + "\r\n")
	if len(m.CC) > 0 {
		b.WriteString("Cc: " + strings.Join(m.CC, ", ") + "\r\n")
	}
	b.WriteString("Subject: " + m.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s; charset=\"UTF-8\"\r\n", contentType)
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	return []byte(b.String())
}
