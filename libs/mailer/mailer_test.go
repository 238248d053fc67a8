package mailer

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

type captureProvider struct {
	last Message
}

func (c *captureProvider) Name() string { return "capture" }

func (c *captureProvider) Send(msg Message) (SendResult, error) {
	c.last = msg
	return SendResult{ProviderMessageID: "captured"}, nil
}

func TestLogProviderSend(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := NewLogProvider(logger)

	msg := Message{
		From:    "test@example.com",
		To:      []string{"recipient@example.com"},
		Subject: "Test Subject",
		HTML:    "<p>Test HTML</p>",
		Text:    "Test text",
	}

	result, err := provider.Send(msg)
	if err != nil {
		t.Fatalf("LogProvider.Send() error = %v", err)
	}

	if result.ProviderMessageID == "" {
		t.Error("LogProvider.Send() returned empty message ID")
	}

	if !strings.HasPrefix(result.ProviderMessageID, "log-") {
		t.Errorf("LogProvider.Send() message ID = %v, want prefix 'log-'", result.ProviderMessageID)
	}
}

func TestMailerAppliesDefaultFromAddress(t *testing.T) {
	provider := &captureProvider{}
	m := New(provider, "noreply@stayport.example")

	if _, err := m.Send(Message{To: []string{"guest@example.com"}, Subject: "Hi"}); err != nil {
		t.Fatalf("Mailer.Send() error = %v", err)
	}
	if provider.last.From != "noreply@stayport.example" {
		t.Errorf("default From not applied, got %q", provider.last.From)
	}

	if _, err := m.Send(Message{From: "custom@stayport.example", To: []string{"guest@example.com"}}); err != nil {
		t.Fatalf("Mailer.Send() error = %v", err)
	}
	if provider.last.From != "custom@stayport.example" {
		t.Errorf("explicit From overridden, got %q", provider.last.From)
	}
}

func TestMailerProviderName(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := New(NewLogProvider(logger), "default@test.com")

	if got := m.ProviderName(); got != "log" {
		t.Errorf("Mailer.ProviderName() = %v, want 'log'", got)
	}
}

func TestResendProviderName(t *testing.T) {
	provider := NewResendProvider("fake-api-key")

	if got := provider.Name(); got != "resend" {
		t.Errorf("ResendProvider.Name() = %v, want 'resend'", got)
	}
}
