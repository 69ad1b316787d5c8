package mailer

import (
	"strings"
	"testing"

	"github.com/ontime/backend/config"
)

func testMailer() *Mailer {
	return New(config.EmailConfig{
		FromAddress: "noreply@ontime.local",
		FromName:    "On Time",
		SMTPHost:    "smtp.example.com",
		SMTPPort:    587,
	})
}

func TestBuildMultipart(t *testing.T) {
	raw := string(testMailer().build(Message{
		ToAddress: "jane@example.com",
		ToName:    "Jane Doe",
		Subject:   "Password Reset",
		BodyText:  "Your code is 123456",
		BodyHTML:  "<p>Your code is <b>123456</b></p>",
	}))

	for _, want := range []string{
		"From: On Time <noreply@ontime.local>",
		"To: Jane Doe <jane@example.com>",
		"Subject: Password Reset",
		"multipart/alternative",
		"Your code is 123456",
		"<b>123456</b>",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestBuildHTMLOnly(t *testing.T) {
	raw := string(testMailer().build(Message{
		ToAddress: "jane@example.com",
		Subject:   "Hello",
		BodyHTML:  "<p>hi</p>",
	}))

	if !strings.Contains(raw, "Content-Type: text/html") {
		t.Errorf("expected html content type, got:\n%s", raw)
	}
	if strings.Contains(raw, "multipart") {
		t.Errorf("unexpected multipart message:\n%s", raw)
	}
	if !strings.Contains(raw, "To: jane@example.com\r\n") {
		t.Errorf("bare address form not used:\n%s", raw)
	}
}

func TestSendRequiresHost(t *testing.T) {
	m := New(config.EmailConfig{})
	if err := m.Send(Message{ToAddress: "jane@example.com"}); err == nil {
		t.Fatal("expected error with no smtp host configured")
	}
}
