// Package mail sends analysis reports by email. The SMTP sender speaks plain
// SMTP with optional AUTH; attachments are encoded as base64 MIME parts.
package mail

import (
	"encoding/base64"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
)

// Message is a single outbound email. Attachment is optional; when set,
// AttachmentName should carry the filename shown to the recipient.
type Message struct {
	To             string
	Subject        string
	Body           string
	Attachment     []byte
	AttachmentName string
}

// Sender dispatches report emails.
type Sender interface {
	Send(msg Message) error
}

// SMTPConfig holds SMTP transport settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends mail over a plain SMTP connection.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send delivers the message to the configured SMTP host.
func (s *SMTPSender) Send(msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("recipient address is required")
	}
	from := s.cfg.From
	if from == "" {
		return fmt.Errorf("sender address is not configured")
	}

	host := s.cfg.Host
	if host == "" {
		host = "localhost"
	}
	addr := fmt.Sprintf("%s:%d", host, s.cfg.Port)

	raw := buildMIMEMessage(from, msg)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if err := client.Hello(heloDomain(from)); err != nil {
		return err
	}
	if (s.cfg.Username != "" || s.cfg.Password != "") && supportsAuth(client) {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(msg.To); err != nil {
		return err
	}
	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write([]byte(raw)); err != nil {
		_ = writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return client.Quit()
}

const mimeBoundary = "dxai-report-boundary"

// buildMIMEMessage assembles the raw RFC 5322 message. Plain text only when
// there is no attachment, multipart/mixed with a base64 part otherwise.
func buildMIMEMessage(from string, msg Message) string {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")

	if len(msg.Attachment) == 0 {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
		b.WriteString("\r\n")
		b.WriteString(msg.Body)
		return b.String()
	}

	b.WriteString("Content-Type: multipart/mixed; boundary=" + mimeBoundary + "\r\n")
	b.WriteString("\r\n")

	b.WriteString("--" + mimeBoundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	b.WriteString("\r\n")

	name := msg.AttachmentName
	if name == "" {
		name = "report.pdf"
	}
	b.WriteString("--" + mimeBoundary + "\r\n")
	b.WriteString("Content-Type: application/pdf; name=\"" + name + "\"\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n")
	b.WriteString("Content-Disposition: attachment; filename=\"" + name + "\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(wrapBase64(base64.StdEncoding.EncodeToString(msg.Attachment)))
	b.WriteString("\r\n")
	b.WriteString("--" + mimeBoundary + "--\r\n")
	return b.String()
}

// wrapBase64 folds encoded content at 76 columns per RFC 2045.
func wrapBase64(encoded string) string {
	const lineLen = 76
	var b strings.Builder
	for len(encoded) > lineLen {
		b.WriteString(encoded[:lineLen])
		b.WriteString("\r\n")
		encoded = encoded[lineLen:]
	}
	b.WriteString(encoded)
	return b.String()
}

func heloDomain(addr string) string {
	parts := strings.Split(addr, "@")
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}
	return "localhost"
}

func supportsAuth(client *smtp.Client) bool {
	ok, _ := client.Extension("AUTH")
	return ok
}

// NoopSender logs instead of sending. Used when SMTP is not configured so
// the email endpoint stays functional in local development.
type NoopSender struct {
	logger zerolog.Logger
}

func NewNoopSender(logger zerolog.Logger) *NoopSender {
	return &NoopSender{logger: logger}
}

func (n *NoopSender) Send(msg Message) error {
	n.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("attachment_bytes", len(msg.Attachment)).
		Msg("email sending disabled, message dropped")
	return nil
}
