package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRenderAccessEmail(t *testing.T) {
	html, err := renderAccessEmail(AccessMessage{
		To:       "ana@example.com",
		UserName: "Ana",
		Password: "KNV-ABCDEF123456",
		AppURL:   "https://kanva.ao",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Ana", "KNV-ABCDEF123456", "https://kanva.ao"} {
		if !strings.Contains(html, want) {
			t.Errorf("expected body to contain %q", want)
		}
	}
}

func TestRenderAccessEmail_DefaultName(t *testing.T) {
	html, err := renderAccessEmail(AccessMessage{
		To:       "ana@example.com",
		Password: "KNV-ABCDEF123456",
		AppURL:   "https://kanva.ao",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(html, "Cliente") {
		t.Error("expected fallback greeting for an unnamed recipient")
	}
}

func TestRenderAccessEmail_EscapesHTML(t *testing.T) {
	html, err := renderAccessEmail(AccessMessage{
		UserName: "<script>alert(1)</script>",
		Password: "KNV-ABCDEF123456",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Error("expected user-supplied name to be escaped")
	}
}

func TestResendSender_NotConfigured(t *testing.T) {
	sender := NewResendSender("", "Kanva <acesso@kanva.ao>", zerolog.Nop())

	err := sender.SendAccessKey(context.Background(), AccessMessage{To: "ana@example.com"})
	if err != ErrNotConfigured {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestMockSender_Records(t *testing.T) {
	sender := NewMockSender(zerolog.Nop())
	ctx := context.Background()

	msg := AccessMessage{To: "ana@example.com", Password: "KNV-ABCDEF123456"}
	if err := sender.SendAccessKey(ctx, msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sent := sender.Sent()
	if len(sent) != 1 || sent[0].To != "ana@example.com" {
		t.Errorf("expected one recorded message, got %+v", sent)
	}
}
