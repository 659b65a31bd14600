package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// SMTPSender delivers notifications as e-mail over implicit-TLS SMTP
// (port 465 style).
type SMTPSender struct {
	host     string
	port     int
	sender   string
	password string
	receiver string
}

// NewSMTPSender creates an SMTPSender. sender doubles as the login user.
func NewSMTPSender(host string, port int, sender, password, receiver string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		sender:   sender,
		password: password,
		receiver: receiver,
	}
}

// Send delivers one message. The connection is opened, authenticated, and
// closed per call; notification volume is a handful of mails per backoff
// window at most.
func (s *SMTPSender) Send(ctx context.Context, subject, message string) error {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))

	dialer := &tls.Dialer{
		Config: &tls.Config{ServerName: s.host, MinVersion: tls.VersionTLS12},
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp: dial %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp: handshake: %w", err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", s.sender, s.password, s.host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp: auth: %w", err)
	}

	if err := client.Mail(s.sender); err != nil {
		return fmt.Errorf("smtp: mail from: %w", err)
	}
	if err := client.Rcpt(s.receiver); err != nil {
		return fmt.Errorf("smtp: rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp: data: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: Trading bot <%s>\r\n", s.sender)
	fmt.Fprintf(&b, "To: %s\r\n", s.receiver)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("\r\n")
	b.WriteString(message)
	b.WriteString("\r\n")

	if _, err := w.Write([]byte(b.String())); err != nil {
		return fmt.Errorf("smtp: write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp: close body: %w", err)
	}

	return client.Quit()
}

// Name returns the sender identifier.
func (s *SMTPSender) Name() string {
	return "smtp"
}
