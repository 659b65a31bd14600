package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/cpleonardo/simple-market-maker/internal/domain"
)

type recordingSender struct {
	name     string
	err      error
	subjects []string
}

func (s *recordingSender) Send(_ context.Context, subject, _ string) error {
	s.subjects = append(s.subjects, subject)
	return s.err
}

func (s *recordingSender) Name() string { return s.name }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNotifyFanOut(t *testing.T) {
	a := &recordingSender{name: "smtp"}
	b := &recordingSender{name: "telegram"}
	n := NewNotifier([]Sender{a, b}, discardLogger())

	if err := n.Notify(context.Background(), "subject", "body"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(a.subjects) != 1 || len(b.subjects) != 1 {
		t.Fatalf("deliveries: smtp=%d telegram=%d, want 1 each", len(a.subjects), len(b.subjects))
	}
}

func TestNotifyContinuesPastFailedSender(t *testing.T) {
	a := &recordingSender{name: "smtp", err: errors.New("connection refused")}
	b := &recordingSender{name: "telegram"}
	n := NewNotifier([]Sender{a, b}, discardLogger())

	err := n.Notify(context.Background(), "subject", "body")
	if err == nil {
		t.Fatal("expected combined error")
	}
	if !strings.Contains(err.Error(), "smtp") {
		t.Fatalf("error %q does not name the failed sender", err)
	}
	// The healthy sender still received the message.
	if len(b.subjects) != 1 {
		t.Fatalf("telegram deliveries = %d, want 1", len(b.subjects))
	}
}

func TestNotifyNoSenders(t *testing.T) {
	n := NewNotifier(nil, discardLogger())
	if err := n.Notify(context.Background(), "subject", "body"); err != nil {
		t.Fatalf("Notify with no senders: %v", err)
	}
}

func TestFundsStatus(t *testing.T) {
	market := domain.MarketPair{Base: "BTC", Quote: "MXN"}
	subject, body := FundsStatus(market, decimal.RequireFromString("0.5"), decimal.RequireFromString("1200"))

	if subject != "0.5 BTC, 1200 MXN" {
		t.Fatalf("subject = %q", subject)
	}
	for _, want := range []string{"BTC-MXN", "0.5 BTC", "1200 MXN"} {
		if !strings.Contains(body, want) {
			t.Errorf("body %q missing %q", body, want)
		}
	}
}
