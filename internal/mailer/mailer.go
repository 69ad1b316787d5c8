package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/ontime/backend/config"
)

// Mailer sends application email over SMTP.
type Mailer struct {
	cfg config.EmailConfig
}

// New creates a mailer from SMTP settings.
func New(cfg config.EmailConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Message is a single outgoing email.
type Message struct {
	ToAddress string
	ToName    string
	Subject   string
	BodyText  string
	BodyHTML  string
}

// Send delivers the message through the configured SMTP server. When both a
// text and an HTML body are present the message is sent as multipart/alternative.
func (m *Mailer) Send(msg Message) error {
	if m.cfg.SMTPHost == "" {
		return fmt.Errorf("smtp host not configured")
	}

	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	return smtp.SendMail(addr, auth, m.cfg.FromAddress, []string{msg.ToAddress}, m.build(msg))
}

func (m *Mailer) build(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", m.cfg.FromName, m.cfg.FromAddress)
	if msg.ToName != "" {
		fmt.Fprintf(&b, "To: %s <%s>\r\n", msg.ToName, msg.ToAddress)
	} else {
		fmt.Fprintf(&b, "To: %s\r\n", msg.ToAddress)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")

	switch {
	case msg.BodyHTML != "" && msg.BodyText != "":
		const boundary = "ontime-alt-boundary"
		fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", boundary, msg.BodyText)
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", boundary, msg.BodyHTML)
		fmt.Fprintf(&b, "--%s--\r\n", boundary)
	case msg.BodyHTML != "":
		fmt.Fprintf(&b, "Content-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", msg.BodyHTML)
	default:
		fmt.Fprintf(&b, "Content-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", msg.BodyText)
	}
	return []byte(b.String())
}
